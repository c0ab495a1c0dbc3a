package transcribe

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	transcriptionService "github.com/jwalitptl/medrecords-api/internal/service/transcription"
	"github.com/jwalitptl/medrecords-api/pkg/httputil"
)

const fallbackMessage = "Failed to transcribe audio"

type Handler struct {
	service transcriptionService.Service
	test    transcriptionService.Service
}

// NewHandler serves transcribe with service and transcribe-test with test.
func NewHandler(service, test transcriptionService.Service) *Handler {
	return &Handler{service: service, test: test}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/transcribe", h.transcribe(h.service))
	r.POST("/transcribe-test", h.transcribe(h.test))
}

func (h *Handler) transcribe(svc transcriptionService.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		audio, closeAudio, err := handler.FormUpload(c, "audio")
		defer closeAudio()
		if err != nil {
			httputil.RespondWithFormError(c, err, fallbackMessage)
			return
		}

		text, err := svc.Transcribe(c.Request.Context(), audio)
		if err != nil {
			httputil.RespondWithFormError(c, err, fallbackMessage)
			return
		}

		c.JSON(http.StatusOK, handler.TranscriptionResponse{Transcription: text})
	}
}
