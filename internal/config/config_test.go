package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "change-me", cfg.SessionSecret)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.VerificationCodeTTL)
	assert.Equal(t, 5, cfg.VerificationMaxAttempts)
	assert.True(t, cfg.SignupRequireTicket)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("FRONTEND_URL", "http://front.test/")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("VERIFICATION_MAX_ATTEMPTS", "3")
	t.Setenv("SIGNUP_REQUIRE_TICKET", "false")
	t.Setenv("MEILISEARCH_HOST", "meili")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "http://front.test", cfg.FrontendURL)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.VerificationMaxAttempts)
	assert.False(t, cfg.SignupRequireTicket)
	assert.Equal(t, "http://meili:7700", cfg.MeiliSearchHost)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "SESSION_TTL", "forever"},
		{"bad attempts", "VERIFICATION_MAX_ATTEMPTS", "zero"},
		{"non-positive attempts", "VERIFICATION_MAX_ATTEMPTS", "0"},
		{"bad bool", "SESSION_COOKIE_SECURE", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
