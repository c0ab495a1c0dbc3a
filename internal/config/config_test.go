package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "events", cfg.Redis.Channel)
	assert.Equal(t, 3, cfg.Outbox.RetryAttempts)
	assert.Equal(t, "elevenlabs", cfg.Transcription.Provider)
	assert.Equal(t, 1500*time.Millisecond, cfg.Transcription.StubDelay)
	assert.Equal(t, "patient_records", cfg.Cloudinary.Folder)
	assert.Equal(t, "scribe_v1", cfg.ElevenLabs.ModelID)
	assert.False(t, cfg.SMTP.Enabled())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: 9090
database:
  host: db.internal
  name: records
transcription:
  provider: stub
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	chdir(t, dir)

	t.Setenv("RECORDS_DATABASE_PORT", "6543")
	t.Setenv("ELEVENLABS_API_KEY", "xi-secret")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "stub", cfg.Transcription.Provider)
	assert.Equal(t, "xi-secret", cfg.ElevenLabs.APIKey)
	assert.True(t, cfg.SMTP.Enabled())
	assert.Equal(t, "host=db.internal port=6543 user=postgres password= dbname=records sslmode=disable", cfg.Database.DSN())
}
