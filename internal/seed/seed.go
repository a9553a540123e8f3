// Package seed fills the database with fake users, posts, topics, comments
// and likes for development and demos.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Options size a seeding run. They can be loaded from a YAML preset.
type Options struct {
	Users           int      `yaml:"users"`
	PostsPerUser    int      `yaml:"posts_per_user"`
	CommentsPerPost int      `yaml:"comments_per_post"`
	LikeChance      float64  `yaml:"like_chance"`
	DraftRatio      float64  `yaml:"draft_ratio"`
	MaxDays         int      `yaml:"max_days"`
	Topics          []string `yaml:"topics"`
	Clean           bool     `yaml:"clean"`
	FastHash        bool     `yaml:"fast_hash"`
	RandomSeed      int64    `yaml:"random_seed"`
}

// Summary counts what a run created.
type Summary struct {
	Users        int
	Posts        int
	Comments     int
	PostLikes    int
	CommentLikes int
}

var defaultTopics = []string{
	"Go", "Databases", "Distributed Systems", "Frontend", "DevOps", "Security",
	"Testing", "Career", "Open Source", "Linux", "Cloud", "Performance",
}

// DefaultOptions is a small, browsable dataset.
func DefaultOptions() Options {
	return Options{
		Users:           10,
		PostsPerUser:    3,
		CommentsPerPost: 4,
		LikeChance:      0.3,
		DraftRatio:      0.15,
		MaxDays:         90,
		Clean:           true,
	}
}

// LoadPreset decodes a YAML preset on top of DefaultOptions.
func LoadPreset(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		return Options{}, fmt.Errorf("decode seed preset: %w", err)
	}
	if opts.Users < 1 {
		return Options{}, fmt.Errorf("seed preset needs at least one user")
	}
	if opts.LikeChance < 0 || opts.LikeChance > 1 || opts.DraftRatio < 0 || opts.DraftRatio > 1 {
		return Options{}, fmt.Errorf("like_chance and draft_ratio must be between 0 and 1")
	}
	return opts, nil
}

// LoadPresetFile reads a YAML preset from path.
func LoadPresetFile(path string) (Options, error) {
	f, err := os.Open(path) // #nosec G304: operator supplied path
	if err != nil {
		return Options{}, err
	}
	defer func() { _ = f.Close() }()
	return LoadPreset(f)
}

// Seeder runs a seeding plan against a database.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder for db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: opts, factory: f}, nil
}

// Run optionally clears the blog tables, then creates users, posts,
// comments and likes. Likes go through the toggle so counters match rows.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if s.opts.Clean {
		if err := Clear(ctx, s.db); err != nil {
			return nil, err
		}
	}

	sum := &Summary{}
	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u, err := s.factory.CreateUser(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	middleware.Logger.Info("seeded users", slog.Int("count", sum.Users))

	for _, author := range users {
		for p := 0; p < s.opts.PostsPerUser; p++ {
			post, err := s.factory.CreatePost(ctx, author)
			if err != nil {
				return nil, fmt.Errorf("create post: %w", err)
			}
			sum.Posts++
			if err := s.engage(ctx, post, users, sum); err != nil {
				return nil, err
			}
		}
	}

	middleware.Logger.Info("seeding complete",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("post_likes", sum.PostLikes),
		slog.Int("comment_likes", sum.CommentLikes),
	)
	return sum, nil
}

func (s *Seeder) engage(ctx context.Context, post *models.Post, users []*models.User, sum *Summary) error {
	for _, u := range users {
		if s.factory.chance(s.opts.LikeChance) {
			if err := s.factory.Like(ctx, models.LikeKindPost, post.ID, u.ID); err != nil {
				return fmt.Errorf("like post: %w", err)
			}
			sum.PostLikes++
		}
	}

	for c := 0; c < s.opts.CommentsPerPost; c++ {
		author := users[s.factory.rng.Intn(len(users))]
		comment, err := s.factory.CreateComment(ctx, author, post)
		if err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		sum.Comments++
		for _, u := range users {
			if s.factory.chance(s.opts.LikeChance / 2) {
				if err := s.factory.Like(ctx, models.LikeKindComment, comment.ID, u.ID); err != nil {
					return fmt.Errorf("like comment: %w", err)
				}
				sum.CommentLikes++
			}
		}
	}
	return nil
}

// Clear deletes every blog row, children first.
func Clear(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.Info("clearing existing data")
	tables := []string{"comment_likes", "post_likes", "comments", "post_topics", "posts", "topics", "users"}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
