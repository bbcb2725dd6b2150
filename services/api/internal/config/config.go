package config

import (
	"os"
	"time"

	pkgconfig "userdesk/pkg/config"
)

type Config struct {
	ListenAddr  string
	DatabaseURL string
	LogLevel    string

	// Both secrets are required. An operator who wants a shared secret sets
	// them to the same value explicitly; there is no silent fallback.
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	AppURL             string
	LinkPolicy         string

	KafkaBrokers []string
	ESURL        string
	ESUser       string
	ESPassword   string
	RedisAddr    string

	LoginRateLimit  int
	LoginRateWindow time.Duration

	SecureCookies bool
}

func Load() *Config {
	cfg := &Config{
		ListenAddr:  pkgconfig.EnvDefault("API_ADDR", ":8081"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		AccessSecret:  []byte(os.Getenv("ACCESS_TOKEN_SECRET")),
		RefreshSecret: []byte(os.Getenv("REFRESH_TOKEN_SECRET")),
		AccessTTL:     pkgconfig.EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:    pkgconfig.EnvDurationDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
		AppURL:             pkgconfig.EnvDefault("APP_URL", "http://localhost:3000"),
		LinkPolicy:         pkgconfig.EnvDefault("OAUTH_LINK_POLICY", "email"),

		KafkaBrokers: pkgconfig.CSV(os.Getenv("KAFKA_BROKERS")),
		ESURL:        os.Getenv("ES_URL"),
		ESUser:       os.Getenv("ES_USER"),
		ESPassword:   os.Getenv("ES_PASSWORD"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),

		LoginRateLimit:  pkgconfig.EnvIntDefault("LOGIN_RATE_LIMIT", 20),
		LoginRateWindow: pkgconfig.EnvDurationDefault("LOGIN_RATE_WINDOW", time.Minute),

		SecureCookies: pkgconfig.EnvBool("COOKIE_SECURE"),
	}

	pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgconfig.MustNonEmptyBytes(cfg.AccessSecret, "ACCESS_TOKEN_SECRET")
	pkgconfig.MustNonEmptyBytes(cfg.RefreshSecret, "REFRESH_TOKEN_SECRET")

	return cfg
}
