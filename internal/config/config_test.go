package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithSecretFromEnv(t *testing.T) {
	t.Setenv("MARKETPLACE_SECRET_KEY", "s3cret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.Equal(t, "default1.jpg", cfg.Images.DefaultAvatar)
	assert.Equal(t, "default2.jpg", cfg.Images.DefaultListing)
	assert.Equal(t, 1800*time.Second, cfg.Reset.Expiry())
	assert.Equal(t, "noreply@marketplace.com", cfg.Mail.From)
	assert.Empty(t, cfg.TrustedProxies, "no proxy is trusted by default")
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrMissingSecret), "got %v", err)
}

func TestLoad_FileAndNestedEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yml := []byte("port: \"9090\"\nsecret_key: from-file\ndb:\n  path: file.db\nreset:\n  expiry_seconds: 60\ntrusted_proxies:\n  - 10.0.0.0/8\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), yml, 0o600))
	t.Setenv("MARKETPLACE_DB_PATH", "env.db")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "from-file", cfg.Secret)
	assert.Equal(t, "env.db", cfg.DB.Path)
	assert.Equal(t, time.Minute, cfg.Reset.Expiry())
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
}

func TestValidate(t *testing.T) {
	base := Config{Secret: "k", PageSize: 5, Reset: ResetConfig{ExpirySeconds: 10}}
	assert.NoError(t, base.Validate())

	bad := base
	bad.PageSize = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Reset.ExpirySeconds = 0
	assert.Error(t, bad.Validate())
}

func TestSessionSecretFallback(t *testing.T) {
	cfg := Config{Secret: "token-key"}
	assert.Equal(t, "token-key", cfg.SessionSecret())

	cfg.Session.Secret = "cookie-key"
	assert.Equal(t, "cookie-key", cfg.SessionSecret())
}
