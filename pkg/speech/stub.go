package speech

import (
	"context"
	"io"
	"time"
)

const StubTranscript = "This is a test transcription. Your audio was received successfully."

// Stub answers with StubTranscript after Delay without calling any provider.
type Stub struct {
	Delay time.Duration
}

func (s *Stub) Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (string, error) {
	if s.Delay <= 0 {
		return StubTranscript, nil
	}

	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return StubTranscript, nil
	}
}
