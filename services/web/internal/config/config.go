package config

import (
	"os"

	pkgconfig "userdesk/pkg/config"
)

type Config struct {
	ListenAddr string
	BackendURL string
	AppURL     string
	LogLevel   string

	SessionSecret []byte

	SecureCookies bool
}

func Load() *Config {
	cfg := &Config{
		ListenAddr: pkgconfig.EnvDefault("WEB_ADDR", ":3000"),
		BackendURL: pkgconfig.EnvDefault("BACKEND_URL", "http://localhost:8081"),
		AppURL:     pkgconfig.EnvDefault("APP_URL", "http://localhost:3000"),
		LogLevel:   pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		SessionSecret: []byte(os.Getenv("SESSION_SECRET")),

		SecureCookies: pkgconfig.EnvBool("COOKIE_SECURE"),
	}

	pkgconfig.MustNonEmptyBytes(cfg.SessionSecret, "SESSION_SECRET")

	return cfg
}
