package transcription

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
	"github.com/jwalitptl/medrecords-api/pkg/speech"
)

type Service interface {
	Transcribe(ctx context.Context, audio *model.Upload) (string, error)
}

type service struct {
	transcriber speech.Transcriber
	provider    string
	metrics     *metrics.Metrics
}

// NewService wraps transcriber; provider labels its metrics and logs.
func NewService(transcriber speech.Transcriber, provider string, m *metrics.Metrics) Service {
	return &service{
		transcriber: transcriber,
		provider:    provider,
		metrics:     m,
	}
}

func (s *service) Transcribe(ctx context.Context, audio *model.Upload) (string, error) {
	if audio == nil || audio.Reader == nil {
		return "", errors.NewValidation("No audio file provided", nil)
	}

	log.Ctx(ctx).Debug().
		Str("provider", s.provider).
		Str("filename", audio.Filename).
		Int64("size", audio.Size).
		Str("content_type", audio.ContentType).
		Msg("transcribing audio")

	start := time.Now()
	text, err := s.transcriber.Transcribe(ctx, audio.Reader, audio.Filename, audio.ContentType)
	s.metrics.ObserveUpstream(s.provider, start, err)
	if err != nil {
		return "", errors.NewUpstream("Failed to transcribe audio", err)
	}
	return text, nil
}
