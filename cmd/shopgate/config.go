package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// devSessionSecret signs cookies when SESSION_SECRET is unset outside production.
const devSessionSecret = "development-secret-change-in-production"

// config is the process configuration, read from the environment.
type config struct {
	Port       int
	Production bool

	SessionSecret     string
	SessionTTL        time.Duration
	SessionCookieName string

	APIKey      string
	RedirectURI string
	Scopes      []string
	AuthURL     string
	TokenURL    string
	APIBaseURL  string

	RedisURL    string
	DatabaseURL string

	AllowedOrigins []string
	StaticDir      string
}

func loadConfig() config {
	return config{
		Port:       getEnvInt("PORT", 4000),
		Production: getEnv("APP_ENV", "development") == "production",

		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "shopgate.sid"),

		APIKey:      getEnv("ETSY_API_KEY", ""),
		RedirectURI: getEnv("OAUTH_REDIRECT_URI", "http://localhost:4000/auth/callback"),
		Scopes:      strings.Fields(getEnv("ETSY_SCOPES", "shops_r listings_r")),
		AuthURL:     getEnv("ETSY_AUTH_URL", "https://www.etsy.com/oauth/connect"),
		TokenURL:    getEnv("ETSY_TOKEN_URL", "https://api.etsy.com/v3/public/oauth/token"),
		APIBaseURL:  getEnv("ETSY_API_BASE_URL", "https://api.etsy.com/v3/"),

		RedisURL:    getEnv("REDIS_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		StaticDir:      getEnv("STATIC_DIR", ""),
	}
}

// validate rejects configurations that cannot run safely.
func (c *config) validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("ETSY_API_KEY is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL_HOURS must be positive"))
	}
	if c.Production {
		if c.SessionSecret == "" {
			errs = append(errs, errors.New("SESSION_SECRET is required in production"))
		}
		if c.RedisURL == "" && c.DatabaseURL == "" {
			errs = append(errs, errors.New("REDIS_URL or DATABASE_URL is required in production"))
		}
	}
	return errors.Join(errs...)
}

// backend names the session store the configuration selects.
func (c *config) backend() string {
	switch {
	case c.RedisURL != "":
		return "redis"
	case c.DatabaseURL != "":
		return "postgres"
	default:
		return "memory"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
