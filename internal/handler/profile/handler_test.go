package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
)

type fakeService struct {
	get func(*model.ProfileQuery) (*model.UserProfile, error)
}

func (f *fakeService) GetUserProfile(_ context.Context, q *model.ProfileQuery) (*model.UserProfile, error) {
	return f.get(q)
}

func serve(svc *fakeService, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestGetUserProfile(t *testing.T) {
	userID := uuid.New()
	svc := &fakeService{get: func(q *model.ProfileQuery) (*model.UserProfile, error) {
		assert.Equal(t, "PATIENT", q.Role)
		user := &model.User{Name: "Patient1", Email: "patient1@example.com", Role: model.RolePatient}
		user.ID = userID
		return &model.UserProfile{
			User:           user,
			MedicalRecords: []*model.MedicalRecord{},
			DoctorRecords:  []*model.MedicalRecord{},
		}, nil
	}}

	w := serve(svc, "/api/v1/get-user-profile?userId="+userID.String()+"&role=PATIENT")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, userID.String(), user["id"])
	assert.Equal(t, "patient", user["role"])
	assert.NotContains(t, user, "PasswordHash")
	assert.Equal(t, []interface{}{}, user["medicalRecords"])
}

func TestGetUserProfileNotFound(t *testing.T) {
	svc := &fakeService{get: func(*model.ProfileQuery) (*model.UserProfile, error) {
		return nil, errors.NewNotFound("User", nil)
	}}

	w := serve(svc, "/api/v1/get-user-profile?userId="+uuid.NewString()+"&role=doctor")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"User not found"}`, w.Body.String())
}

func TestGetUserProfileStoreFailure(t *testing.T) {
	svc := &fakeService{get: func(*model.ProfileQuery) (*model.UserProfile, error) {
		return nil, errors.NewUpstream("", assert.AnError)
	}}

	w := serve(svc, "/api/v1/get-user-profile?userId="+uuid.NewString()+"&role=doctor")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Error fetching user"}`, w.Body.String())
}
