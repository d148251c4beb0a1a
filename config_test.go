package subscribe_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	subscribe "github.com/goliatone/go-subscribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigParsesTTLs(t *testing.T) {
	path := writeConfigFile(t, `
base_url: https://news.example.com
confirmation_ttl: 48h
magic_link_ttl: 5m
ses:
  region: us-east-1
  from: news@example.com
`)

	cfg, err := subscribe.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://news.example.com", cfg.GetBaseURL())
	assert.Equal(t, 48*time.Hour, cfg.GetConfirmationTTL())
	assert.Equal(t, 5*time.Minute, cfg.GetMagicLinkTTL())
	assert.Equal(t, "us-east-1", cfg.GetSES().Region)
	assert.Equal(t, "news@example.com", cfg.GetSES().From)
}

func TestLoadConfigFallsBackToDefaultTTLs(t *testing.T) {
	path := writeConfigFile(t, `
base_url: https://news.example.com
confirmation_ttl: not-a-duration
`)

	cfg, err := subscribe.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, subscribe.ConfirmationTokenTTL, cfg.GetConfirmationTTL())
	assert.Equal(t, subscribe.MagicLinkTokenTTL, cfg.GetMagicLinkTTL())
}

func TestLoadConfigRequiresBaseURL(t *testing.T) {
	path := writeConfigFile(t, `
confirmation_ttl: 24h
`)

	_, err := subscribe.LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigEnvironmentOverridesCredentials(t *testing.T) {
	t.Setenv("SES_ACCESS_KEY", "env-access")
	t.Setenv("SES_SECRET_KEY", "env-secret")

	path := writeConfigFile(t, `
base_url: https://news.example.com
ses:
  region: us-east-1
  access_key: file-access
  secret_key: file-secret
`)

	cfg, err := subscribe.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-access", cfg.GetSES().AccessKey)
	assert.Equal(t, "env-secret", cfg.GetSES().SecretKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := subscribe.LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
