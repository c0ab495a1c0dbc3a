package intake

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
)

type fakeService struct {
	add func(*model.PatientFormInput) (*model.PatientForm, error)
}

func (f *fakeService) AddPatientRecord(_ context.Context, in *model.PatientFormInput) (*model.PatientForm, error) {
	return f.add(in)
}

func post(t *testing.T, svc *fakeService, fields map[string]string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "scan.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/add-patient-record", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAddPatientRecord(t *testing.T) {
	svc := &fakeService{add: func(in *model.PatientFormInput) (*model.PatientForm, error) {
		require.NotNil(t, in.Image)
		data, err := io.ReadAll(in.Image.Reader)
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))
		assert.Equal(t, "scan.png", in.Image.Filename)
		assert.Equal(t, 42, in.Age)
		assert.Equal(t, "Asthma", in.MedicalHistory)
		return &model.PatientForm{Name: in.Name, Age: in.Age, Image: "https://res.cloudinary.com/x/scan.png"}, nil
	}}

	w := post(t, svc, map[string]string{
		"name": "Jane", "age": "42", "sex": "F", "medicalHistory": "Asthma",
	}, []byte("png-bytes"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Uploaded successfully"`)
	assert.Contains(t, w.Body.String(), `"image":"https://res.cloudinary.com/x/scan.png"`)
}

func TestAddPatientRecordMissingImage(t *testing.T) {
	svc := &fakeService{add: func(in *model.PatientFormInput) (*model.PatientForm, error) {
		assert.Nil(t, in.Image)
		return nil, errors.NewValidation("Image is required", nil)
	}}

	w := post(t, svc, map[string]string{"name": "Jane", "age": "42"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Image is required"}`, w.Body.String())
}

func TestAddPatientRecordBadAge(t *testing.T) {
	w := post(t, &fakeService{}, map[string]string{"age": "forty"}, []byte("x"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Age")
}

func TestAddPatientRecordUploadFailure(t *testing.T) {
	svc := &fakeService{add: func(*model.PatientFormInput) (*model.PatientForm, error) {
		return nil, errors.NewUpstream("Internal server error", assert.AnError)
	}}

	w := post(t, svc, map[string]string{"age": "1"}, []byte("x"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}
