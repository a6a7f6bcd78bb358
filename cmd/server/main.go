package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Load .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/modacart/auth-service/internal/config"     // Internal config loader
	"github.com/modacart/auth-service/internal/database"   // MySQL connection pool
	"github.com/modacart/auth-service/internal/handler"    // HTTP handlers
	"github.com/modacart/auth-service/internal/identity"   // Google ID token verification
	"github.com/modacart/auth-service/internal/mail"       // SMTP delivery
	"github.com/modacart/auth-service/internal/middleware" // Rate limiting middleware
	"github.com/modacart/auth-service/internal/queue"      // RabbitMQ OTP dispatch
	"github.com/modacart/auth-service/internal/repository" // Data access layer
	"github.com/modacart/auth-service/internal/router"     // Route registration
	"github.com/modacart/auth-service/internal/service"    // Business logic
)

func main() {
	// Load a local .env file when present.  In production the variables come
	// from the real environment and this is a no-op.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Open the MySQL pool that backs users and the refresh-token ledger.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the one-time-code store and the rate limiter.  A nil client
	// means Redis is unreachable; the limiter fails open but OTP login cannot
	// work, so treat it as fatal.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed")
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepo(db, cfg.BcryptCost)
	tokenRepo := repository.NewTokenRepo(db)
	codeRepo := repository.NewCodeRepo(rdb)

	// OTP codes travel through RabbitMQ: the publisher enqueues them inside
	// the request path and the consumer delivers mail in the background.
	publisher := queue.NewPublisher(cfg.OTPTTL)
	go queue.StartOTPConsumer(mail.NewSMTPSenderFromEnv())

	verifier := identity.NewGoogleVerifier(cfg.GoogleClientID)

	authSvc := service.NewAuthService(service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		JWTIssuer:      cfg.JWTIssuer,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		OTPTTL:         cfg.OTPTTL,
	}, userRepo, tokenRepo, codeRepo, publisher, verifier)
	adminSvc := service.NewAdminService(userRepo)

	e := echo.New()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e) // Register the health check
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, authSvc), cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, handler.NewAdminHandler(adminSvc), cfg.JWTSecret, userRepo)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
