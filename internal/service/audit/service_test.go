package audit

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrecords-api/internal/model"
)

type fakeRepo struct {
	created []*model.AuditLog
	err     error
}

func (f *fakeRepo) Create(ctx context.Context, log *model.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, log)
	return nil
}

func (f *fakeRepo) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func TestService_EntryUsesRequestInfo(t *testing.T) {
	actor := uuid.New()
	ctx := WithRequestInfo(context.Background(), RequestInfo{
		ActorID:   &actor,
		IPAddress: "10.0.0.1",
		UserAgent: "curl/8.0",
		RequestID: "req-1",
	})

	svc := NewService(&fakeRepo{})
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	entity := uuid.New()
	entry, err := svc.Entry(ctx, model.AuditActionTransition, EntityMedicalRecord, entity, map[string]string{"to": "accepted"})
	require.NoError(t, err)

	assert.Equal(t, &actor, entry.ActorID)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)
	assert.Equal(t, "curl/8.0", entry.UserAgent)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, entity, entry.EntityID)
	assert.JSONEq(t, `{"to":"accepted"}`, string(entry.Changes))
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), entry.CreatedAt)
}

func TestService_EntryWithoutRequestInfo(t *testing.T) {
	entry, err := NewService(&fakeRepo{}).Entry(context.Background(), model.AuditActionRead, EntityUser, uuid.New(), nil)
	require.NoError(t, err)

	assert.Nil(t, entry.ActorID)
	assert.Nil(t, entry.Changes)
}

func TestService_Log(t *testing.T) {
	repo := &fakeRepo{}
	NewService(repo).Log(context.Background(), model.AuditActionRead, EntityUser, uuid.New(), nil)
	assert.Len(t, repo.created, 1)

	failing := &fakeRepo{err: errors.New("db down")}
	assert.NotPanics(t, func() {
		NewService(failing).Log(context.Background(), model.AuditActionRead, EntityUser, uuid.New(), nil)
	})
}

func TestService_LogFailureUsesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("request_id", "req-42").Logger()
	ctx := logger.WithContext(context.Background())

	entity := uuid.New()
	NewService(&fakeRepo{err: errors.New("db down")}).Log(ctx, model.AuditActionRead, EntityUser, entity, nil)

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "failed to write audit log")
	assert.Contains(t, out, entity.String())
	assert.Contains(t, out, "db down")
}
