package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/harshyyy26/QuizApp/internal/config"
	"github.com/harshyyy26/QuizApp/internal/database"
	"github.com/harshyyy26/QuizApp/internal/handler"
	"github.com/harshyyy26/QuizApp/internal/middleware"
	"github.com/harshyyy26/QuizApp/internal/model"
	"github.com/harshyyy26/QuizApp/internal/queue"
	"github.com/harshyyy26/QuizApp/internal/repository"
	"github.com/harshyyy26/QuizApp/internal/router"
	"github.com/harshyyy26/QuizApp/internal/service"
)

func main() {
	// Load .env when present; real environments set variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()

	// Redis backs the blacklist and the one-time secret registries; without
	// it no credential workflow can run, so a failed connection is fatal.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed")
	}

	users := repository.NewUserRepo(db)
	quizzes := repository.NewQuizRepo(db)
	attempts := repository.NewAttemptRepo(db)
	blacklist := repository.NewBlacklistRepo(rdb)
	otps := repository.NewOtpRepo(rdb)
	resets := repository.NewResetRepo(rdb)
	mailer := service.NewQueueMailer(cfg.ResetLinkBase)

	seedAdmin(cfg, users)

	// The email consumer drains email.outbound into logs/email.log; in a
	// deployment with a real relay it stays off.
	go func() {
		if err := queue.StartEmailConsumer(); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	// The authentication gate runs once on every request; guarded groups add
	// their role requirement on top.
	e.Use(middleware.Authenticate(cfg.JWTSecret, blacklist))

	authHandler := handler.NewAuthHandler(cfg, users, blacklist, otps, resets, mailer)
	userHandler := handler.NewUserHandler(users, quizzes, attempts)
	adminHandler := handler.NewAdminHandler(users, quizzes, attempts)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb))
	router.RegisterAuth(e, authHandler, limiter)
	router.RegisterUser(e, userHandler)
	router.RegisterAdmin(e, adminHandler)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedAdmin creates the configured admin identity when its username is
// absent, so a fresh deployment always has one ADMIN account.
func seedAdmin(cfg config.Config, users *repository.UserRepo) {
	if cfg.AdminUsername == "" || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := users.ExistsByUsername(ctx, cfg.AdminUsername)
	if err != nil {
		log.Printf("admin seed: lookup failed: %v", err)
		return
	}
	if exists {
		return
	}
	if _, err := users.Create(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword,
		[]model.Role{model.RoleAdmin}, cfg.BcryptCost); err != nil {
		log.Printf("admin seed: create failed: %v", err)
		return
	}
	log.Printf("admin user %q created", cfg.AdminUsername)
}
