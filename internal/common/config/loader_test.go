package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
submission:
  webhook_url: https://hooks.example.com/apply
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "careerflow", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 30000, cfg.Submission.Timeout)
	assert.Equal(t, "/application-success", cfg.Submission.ConfirmationRoute)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "careerflow", cfg.Database.Redis.KeyPrefix)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 70000, cfg.Session.SubmitLockTTL)
	assert.Equal(t, 10, cfg.Server.RateLimit.RequestsPerMinute)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("CF_TEST_HOOK", "https://hooks.example.com/from-env")
	path := writeConfig(t, `
submission:
  webhook_url: ${CF_TEST_HOOK}
  timeout: 5000
session:
  store: redis
  ttl: 60000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/from-env", cfg.Submission.WebhookURL)
	assert.Equal(t, 5*time.Second, GetDuration(cfg.Submission.Timeout))
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, time.Minute, GetDuration(cfg.Session.TTL))
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("SUBMISSION_WEBHOOK_URL", "https://override.example.com/hook")
	path := writeConfig(t, `
submission:
  webhook_url: https://hooks.example.com/apply
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com/hook", cfg.Submission.WebhookURL)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing webhook",
			body: "server:\n  port: 9000\n",
		},
		{
			name: "unknown session store",
			body: "submission:\n  webhook_url: https://hooks.example.com/a\nsession:\n  store: disk\n",
		},
		{
			name: "postgres enabled without host",
			body: "submission:\n  webhook_url: https://hooks.example.com/a\ndatabase:\n  postgres:\n    enabled: true\n",
		},
		{
			name: "email enabled without sender",
			body: "submission:\n  webhook_url: https://hooks.example.com/a\nnotifications:\n  email:\n    enabled: true\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "cf", Password: "pw", Database: "careerflow", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=cf password=pw dbname=careerflow sslmode=disable", p.GetDSN())
}
