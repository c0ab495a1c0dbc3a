package intake

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/handler"
	"github.com/jwalitptl/medrecords-api/internal/model"
	intakeService "github.com/jwalitptl/medrecords-api/internal/service/intake"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
	"github.com/jwalitptl/medrecords-api/pkg/httputil"
)

const fallbackMessage = "Internal server error"

type Handler struct {
	service intakeService.Service
}

func NewHandler(service intakeService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/add-patient-record", h.AddPatientRecord)
}

func (h *Handler) AddPatientRecord(c *gin.Context) {
	image, closeImage, err := handler.FormUpload(c, "image")
	defer closeImage()
	if err != nil {
		httputil.RespondWithFormError(c, err, fallbackMessage)
		return
	}

	age, err := parseAge(c.PostForm("age"))
	if err != nil {
		httputil.RespondWithFormError(c, err, fallbackMessage)
		return
	}

	form, err := h.service.AddPatientRecord(c.Request.Context(), &model.PatientFormInput{
		Name:           c.PostForm("name"),
		Age:            age,
		Sex:            c.PostForm("sex"),
		MedicalHistory: c.PostForm("medicalHistory"),
		Image:          image,
	})
	if err != nil {
		httputil.RespondWithFormError(c, err, fallbackMessage)
		return
	}

	c.JSON(http.StatusOK, handler.PatientFormResponse{
		Message:     "Uploaded successfully",
		PatientForm: form,
	})
}

// parseAge treats an absent age as 0.
func parseAge(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	age, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidation("Age must be a whole number", err)
	}
	return age, nil
}
