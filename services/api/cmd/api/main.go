package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"userdesk/pkg/db"
	"userdesk/pkg/logging"
	loggingmw "userdesk/pkg/middleware/logging"
	"userdesk/services/api/internal/config"
	"userdesk/services/api/internal/events"
	"userdesk/services/api/internal/httpserver"
	"userdesk/services/api/internal/models"
	"userdesk/services/api/internal/oauth"
	"userdesk/services/api/internal/repo"
	"userdesk/services/api/internal/search"
	"userdesk/services/api/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(echomw.Recover(), echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gormDB, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := gormDB.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	userRepo := &repo.UserRepo{DB: gormDB}

	authSvc := &service.AuthService{
		Repo:          userRepo,
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		LinkPolicy:    service.ParseLinkPolicy(cfg.LinkPolicy),
	}
	userSvc := &service.UserService{Repo: userRepo}

	google := oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	if google == nil {
		logger.Warn("google oauth disabled; GOOGLE_CLIENT_ID/SECRET/CALLBACK_URL missing")
	}

	producer := events.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		logger.Warn("elasticsearch disabled", "error", err)
		es = nil
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	httpserver.Register(e, &httpserver.Deps{
		Auth:            authSvc,
		Users:           userSvc,
		Google:          google,
		Producer:        producer,
		ES:              es,
		Redis:           rdb,
		AppURL:          cfg.AppURL,
		Secure:          cfg.SecureCookies,
		LoginRateLimit:  cfg.LoginRateLimit,
		LoginRateWindow: cfg.LoginRateWindow,
	})

	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
