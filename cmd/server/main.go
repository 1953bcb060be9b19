package main

import (
	"log"

	"anoa.com/facultydir/internal/bootstrap"
	"anoa.com/facultydir/internal/config"
	"anoa.com/facultydir/internal/server"
	"anoa.com/facultydir/pkg/database"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db := database.Connect()

	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedManagerUser(db); err != nil {
			log.Fatalf("failed to seed manager user: %v", err)
		}
	}

	// Redis is optional: without it notifications fall back to polling and
	// email rate limiting is disabled.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	} else {
		log.Println("REDIS_URL not set, running without redis")
	}

	srv := server.NewServer(cfg, db, redisClient)

	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
