package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/medrecords-api/internal/config"
)

type captureDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSMTPService_SendCustom(t *testing.T) {
	d := &captureDialer{}
	svc := &smtpService{dialer: d, from: "no-reply@medrecords.local"}

	err := svc.SendCustom(context.Background(), "patient@example.com", "New record", "Please review.")
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"patient@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"New record"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Please review.")
}

func TestSMTPService_Errors(t *testing.T) {
	svc := &smtpService{dialer: &captureDialer{err: errors.New("connection refused")}, from: "x@y"}
	assert.ErrorContains(t, svc.SendCustom(context.Background(), "a@b", "s", "c"), "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.SendCustom(ctx, "a@b", "s", "c"), context.Canceled)
}

func TestNewService_DisabledLogsOnly(t *testing.T) {
	svc := NewService(config.SMTPConfig{})
	assert.IsType(t, logOnly{}, svc)
	assert.NoError(t, svc.SendCustom(context.Background(), "a@b", "s", "c"))
}
