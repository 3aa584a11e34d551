package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/spotatlas/spot-directory/internal/config"
	"github.com/spotatlas/spot-directory/internal/database"
	"github.com/spotatlas/spot-directory/internal/handler"
	"github.com/spotatlas/spot-directory/internal/media"
	"github.com/spotatlas/spot-directory/internal/middleware"
	"github.com/spotatlas/spot-directory/internal/queue"
	"github.com/spotatlas/spot-directory/internal/repository"
	"github.com/spotatlas/spot-directory/internal/router"
)

func main() {
	// .env is optional; real deployments set the variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables response caching and rate
	// limiting instead of failing startup.
	rdb := config.NewRedisClient()

	photos, err := media.NewStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("photo store: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	spots := repository.NewSpotRepo(db)
	reviews := repository.NewReviewRepo(db)
	hearts := repository.NewHeartRepo(db)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterAccount(e, handler.NewAccountHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterSpots(e, handler.NewSpotHandler(cfg, spots, reviews, users, hearts, photos), cfg.JWTSecret, cache)

	// Resized spot photos are served straight off disk.
	e.Static("/uploads", cfg.UploadDir)

	// The mail consumer drains password-reset events in the background and
	// reconnects on its own; a hard failure only loses mail, not the API.
	go func() {
		if err := queue.StartMailConsumer(); err != nil {
			log.Printf("mail consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
