// Package bootstrap brings up the runtime dependencies shared by the API
// server and the seeder.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BodiAli/blog-api/internal/cache"
	"github.com/BodiAli/blog-api/internal/config"
	"github.com/BodiAli/blog-api/internal/database"
	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedIfEmpty fills an empty development database with demo content.
	SeedIfEmpty bool
}

// InitRuntime connects to the database and Redis. Redis is optional: an
// unreachable server leaves the client nil and caching disabled.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()
	if rdb == nil {
		middleware.Logger.Warn("redis unavailable, running without cache")
	}

	if opts.SeedIfEmpty && cfg.Env == "development" {
		if err := seedIfEmpty(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo content: %w", err)
		}
	}

	return db, rdb, nil
}

func seedIfEmpty(ctx context.Context, db *gorm.DB) error {
	var users int64
	if err := db.WithContext(ctx).Table("users").Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	opts := seed.DefaultOptions()
	opts.Clean = false
	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		return err
	}
	sum, err := s.Run(ctx)
	if err != nil {
		return err
	}
	middleware.Logger.Info("seeded empty development database",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
	)
	return nil
}
