package config

import (
	"flag"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// resetFlagSet создаёт новый FlagSet перед каждым вызовом NewConfig,
// чтобы избежать повторной регистрации одних и тех же флагов между тестами.
func resetFlagSet(t *testing.T) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flag.CommandLine.SetOutput(os.Stderr)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URI", "AUTH_SECRET", "ENCRYPTION_KEY", "TOKEN_TTL", "CACHE_SIZE", "CACHE_TTL",
		"ADMIN_USERNAME", "ADMIN_PASSWORD", "LOG_LEVEL", "BASE_URL", "ENABLE_HTTPS", "TOKEN_FILE",
		"TLS_CERT_FILE", "TLS_KEY_FILE", "TRUST_PROXY_HEADERS",
	} {
		t.Setenv(k, "")
	}
}

func TestNewConfig_DefaultsWhenEnvEmpty(t *testing.T) {
	clearEnv(t)
	resetFlagSet(t)
	cfg := NewConfig()

	assert.Equal(t, "", cfg.AuthSecret, "auth secret must not get a dev default")
	assert.Equal(t, "", cfg.EncryptionKey, "encryption key must not get a dev default")
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 0, cfg.CacheSize)
	assert.False(t, cfg.TrustProxy, "proxy headers must be ignored unless enabled")
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "keystore.db", cfg.DatabaseDSN)
	assert.Equal(t, "localhost:5000", cfg.BaseURL)
	assert.Equal(t, "http://localhost:5000", cfg.ServerURL)
	assert.NotEmpty(t, cfg.TokenFile)
}

func TestNewConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "example.com:443")
	t.Setenv("ENABLE_HTTPS", "true")
	t.Setenv("AUTH_SECRET", "top")
	t.Setenv("ENCRYPTION_KEY", strings.Repeat("k", 32))
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("CACHE_SIZE", "128")
	t.Setenv("TLS_CERT_FILE", "/etc/keyvault/cert.pem")
	t.Setenv("TLS_KEY_FILE", "/etc/keyvault/key.pem")

	resetFlagSet(t)
	cfg := NewConfig()

	assert.Equal(t, "example.com:443", cfg.BaseURL)
	assert.Equal(t, "https://example.com:443", cfg.ServerURL)
	assert.Equal(t, "top", cfg.AuthSecret)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 128, cfg.CacheSize)
	assert.Equal(t, "/etc/keyvault/cert.pem", cfg.TLSCertFile)
	assert.NoError(t, cfg.ValidateServer())
}

func TestNewConfig_InvalidBaseURLFallback(t *testing.T) {
	clearEnv(t)
	// Невалидный BASE_URL (со схемой) должен откатиться на значение по умолчанию
	t.Setenv("BASE_URL", "http://bad:8080")

	resetFlagSet(t)
	cfg := NewConfig()

	assert.Equal(t, "localhost:5000", cfg.BaseURL)
	assert.True(t, strings.HasPrefix(cfg.ServerURL, "http://localhost:5000"))
}

func TestConfig_ValidateServer(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateServer()
	assert.ErrorIs(t, err, ErrMissingAuthSecret)
	assert.ErrorIs(t, err, ErrMissingEncryptionKey)

	cfg.AuthSecret = "s"
	err = cfg.ValidateServer()
	assert.NotErrorIs(t, err, ErrMissingAuthSecret)
	assert.ErrorIs(t, err, ErrMissingEncryptionKey)

	cfg.EncryptionKey = "k"
	assert.NoError(t, cfg.ValidateServer())
}

func TestConfig_ValidateServerRequiresTLSFilesForHTTPS(t *testing.T) {
	cfg := &Config{AuthSecret: "s", EncryptionKey: "k", EnableHTTPS: true}
	assert.ErrorIs(t, cfg.ValidateServer(), ErrMissingTLSFiles)

	cfg.TLSCertFile, cfg.TLSKeyFile = "cert.pem", "key.pem"
	assert.NoError(t, cfg.ValidateServer())
}
