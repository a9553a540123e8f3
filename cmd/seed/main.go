// Command seed fills the database with fake blog content.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/BodiAli/blog-api/internal/cache"
	"github.com/BodiAli/blog-api/internal/config"
	"github.com/BodiAli/blog-api/internal/database"
	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/seed"
)

func main() {
	if err := run(); err != nil {
		middleware.Logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	defaults := seed.DefaultOptions()
	preset := flag.String("preset", "", "YAML preset file; overrides the sizing flags")
	users := flag.Int("users", defaults.Users, "number of users to create")
	posts := flag.Int("posts", defaults.PostsPerUser, "posts per user")
	comments := flag.Int("comments", defaults.CommentsPerPost, "comments per post")
	likes := flag.Float64("likes", defaults.LikeChance, "chance that a user likes a given post")
	clean := flag.Bool("clean", defaults.Clean, "delete existing blog data first")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env, os.Stdout)

	opts := defaults
	if *preset != "" {
		opts, err = seed.LoadPresetFile(*preset)
		if err != nil {
			return err
		}
		middleware.Logger.Info("loaded seed preset", slog.String("path", *preset))
	} else {
		opts.Users, opts.PostsPerUser, opts.CommentsPerPost = *users, *posts, *comments
		opts.LikeChance, opts.Clean = *likes, *clean
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		return err
	}
	if _, err := s.Run(context.Background()); err != nil {
		return err
	}

	// Cached pages would otherwise hide the new content until they expire.
	cache.InitRedis(cfg.RedisURL)
	cache.InvalidatePostsList(context.Background())
	cache.Invalidate(context.Background(), cache.TopicsKey())

	middleware.Logger.Info("seeded users share one password", slog.String("password", seed.DefaultPassword))
	return nil
}
