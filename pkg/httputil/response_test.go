package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/pkg/errors"
)

func respond(err error) (*httptest.ResponseRecorder, ErrorResponse) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/get-records", nil)

	RespondWithError(c, err, "Error fetching patient records")

	var body ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRespondWithErrorValidationIs404(t *testing.T) {
	w, body := respond(errors.NewValidation("Patient Id is required", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Patient Id is required", body.Message)
}

func TestRespondWithErrorNotFound(t *testing.T) {
	w, body := respond(fmt.Errorf("lookup: %w", errors.NewNotFound("medical record", nil)))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "medical record not found", body.Message)
}

func TestRespondWithErrorHidesUnknownCause(t *testing.T) {
	w, body := respond(fmt.Errorf("pq: relation does not exist"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Error fetching patient records", body.Message)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(errors.ErrValidation))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(errors.ErrUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.ErrUpstream))
}

func TestRespondWithFormError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", errors.NewValidation("Image is required", nil), http.StatusBadRequest, `{"error":"Image is required"}`},
		{"upstream", errors.NewUpstream("cloudinary said no", fmt.Errorf("401")), http.StatusInternalServerError, `{"error":"Internal server error"}`},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/add-patient-record", nil)

			RespondWithFormError(c, tc.err, "Internal server error")

			require.Equal(t, tc.status, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}
