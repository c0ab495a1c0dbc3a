package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medrecords-api/pkg/circuitbreaker"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultModelID = "scribe_v1"

	speechToTextPath = "/v1/speech-to-text"
	maxErrorBody     = 4 << 10
)

type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
	ModelID string
	Timeout time.Duration
}

// ElevenLabs calls the ElevenLabs speech-to-text API.
type ElevenLabs struct {
	apiKey  string
	baseURL string
	modelID string
	client  *http.Client
	cb      *circuitbreaker.CircuitBreaker
}

func NewElevenLabs(cfg ElevenLabsConfig) *ElevenLabs {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &ElevenLabs{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		modelID: cfg.ModelID,
		client:  &http.Client{Timeout: cfg.Timeout},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:                "elevenlabs",
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
			OnStateChange: func(name, from, to string) {
				log.Warn().Str("breaker", name).Str("from", from).Str("to", to).Msg("circuit breaker state changed")
			},
		}),
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("elevenlabs returned %d: %s", e.StatusCode, e.Body)
}

func (c *ElevenLabs) Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (string, error) {
	var text string
	err := c.cb.Execute(func() error {
		var err error
		text, err = c.transcribe(ctx, audio, filename, contentType)
		return err
	})
	return text, err
}

func (c *ElevenLabs) transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (string, error) {
	body, formType := multipartBody(audio, filename, contentType, c.modelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+speechToTextPath, body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", formType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech-to-text request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var out transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode transcription: %w", err)
	}
	return out.Text, nil
}

// multipartBody streams the form through a pipe so the audio is never
// buffered in memory.
func multipartBody(audio io.Reader, filename, contentType, modelID string) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, audio, filename, contentType, modelID)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType()
}

func writeForm(mw *multipart.Writer, audio io.Reader, filename, contentType, modelID string) error {
	if err := mw.WriteField("model_id", modelID); err != nil {
		return err
	}

	if filename == "" {
		filename = "audio"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, audio)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
