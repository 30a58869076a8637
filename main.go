package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"labtrack/internal/auth"
	"labtrack/internal/config"
	"labtrack/internal/database"
	"labtrack/internal/email"
	"labtrack/internal/handlers"
	"labtrack/internal/logger"
	"labtrack/internal/middleware"
	"labtrack/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logger.Initialize(logger.ParseLevel(cfg.LogLevel), cfg.IsDevelopment())

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	backend, err := openBackend(cfg, db)
	if err != nil {
		log.Fatal("Failed to open record store:", err)
	}

	stores, err := store.New(backend, cfg.AdminPassword, cfg.TempDir)
	if err != nil {
		log.Fatal("Failed to initialize stores:", err)
	}

	if cfg.SeedUsersPath != "" {
		created, err := auth.SeedFromFile(stores.Users, cfg.SeedUsersPath)
		if err != nil {
			log.Fatal("Failed to seed users:", err)
		}
		logger.Info("User seed file applied", "path", cfg.SeedUsersPath, "created", created)
	}

	access := auth.NewService(stores.Users)

	emailService := email.NewService(cfg)
	if emailService.IsEnabled() {
		logger.Info("Email service enabled with Mailgun")
	} else {
		logger.Info("Email service disabled - Mailgun not configured")
	}

	go cleanupLoop(db, time.Hour)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.SetFuncMap(handlers.TemplateFuncs())
	r.LoadHTMLGlob("templates/*.html")
	r.Static("/static", "./static")

	r.Use(middleware.IPBlocker(cfg))
	r.Use(middleware.Track404AndBlock(cfg))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg))

	handlers.SetupRoutes(r, db, cfg, stores, access, emailService)

	logger.Info("Server starting",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"store_backend", cfg.StoreBackend)
	log.Fatal(r.Run(":" + cfg.Port))
}

func openBackend(cfg *config.Config, db *sql.DB) (store.Backend, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		return database.NewDocumentBackend(db), nil
	case "file", "":
		b, err := store.NewFileBackend(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

// cleanupLoop drops expired sessions and CSRF tokens. Staged exports are not
// swept; they are removed when downloaded.
func cleanupLoop(db *sql.DB, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		if err := database.CleanupExpiredSessions(db); err != nil {
			logger.Error("Failed to clean up sessions", "error", err)
		}
		if err := database.CleanupExpiredCSRFTokens(db); err != nil {
			logger.Error("Failed to clean up CSRF tokens", "error", err)
		}
	}
}
