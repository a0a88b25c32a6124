package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "APP_ENV", "SESSION_SECRET", "SESSION_TTL_HOURS", "SESSION_COOKIE_NAME",
		"ETSY_API_KEY", "OAUTH_REDIRECT_URI", "ETSY_SCOPES", "ETSY_AUTH_URL", "ETSY_TOKEN_URL",
		"ETSY_API_BASE_URL", "REDIS_URL", "DATABASE_URL", "ALLOWED_ORIGINS", "STATIC_DIR",
	} {
		t.Setenv(key, "")
	}

	cfg := loadConfig()

	assert.Equal(t, 4000, cfg.Port)
	assert.False(t, cfg.Production)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "shopgate.sid", cfg.SessionCookieName)
	assert.Equal(t, []string{"shops_r", "listings_r"}, cfg.Scopes)
	assert.Equal(t, "https://www.etsy.com/oauth/connect", cfg.AuthURL)
	assert.Equal(t, "https://api.etsy.com/v3/public/oauth/token", cfg.TokenURL)
	assert.Equal(t, "https://api.etsy.com/v3/", cfg.APIBaseURL)
	assert.Equal(t, "memory", cfg.backend())
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("ETSY_SCOPES", "shops_r  transactions_r")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DATABASE_URL", "postgres://localhost/shopgate")

	cfg := loadConfig()

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.Production)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"shops_r", "transactions_r"}, cfg.Scopes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "redis", cfg.backend(), "redis wins over postgres")
}

func TestGetEnvInt_Invalid(t *testing.T) {
	t.Setenv("SHOPGATE_TEST_INT", "not-a-number")
	assert.Equal(t, 7, getEnvInt("SHOPGATE_TEST_INT", 7))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config
		wantErr string
	}{
		{
			name: "development with memory",
			cfg:  config{APIKey: "k", SessionTTL: time.Hour},
		},
		{
			name:    "missing api key",
			cfg:     config{SessionTTL: time.Hour},
			wantErr: "ETSY_API_KEY",
		},
		{
			name:    "production without secret",
			cfg:     config{APIKey: "k", SessionTTL: time.Hour, Production: true, RedisURL: "redis://x"},
			wantErr: "SESSION_SECRET",
		},
		{
			name:    "production without durable backend",
			cfg:     config{APIKey: "k", SessionTTL: time.Hour, Production: true, SessionSecret: "s"},
			wantErr: "REDIS_URL or DATABASE_URL",
		},
		{
			name: "production with postgres",
			cfg:  config{APIKey: "k", SessionTTL: time.Hour, Production: true, SessionSecret: "s", DatabaseURL: "postgres://x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
