package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password of every seeded user.
const DefaultPassword = "password123"

// Factory builds blog entities with fake content and persists them through
// the repositories so counters and topic links stay consistent.
type Factory struct {
	db       *gorm.DB
	opts     Options
	faker    *gofakeit.Faker
	rng      *rand.Rand
	hash     string
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	likes    repository.LikeRepository
}

// NewFactory creates a Factory bound to db. The password hash is computed
// once and shared by every user it creates.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cost := bcrypt.DefaultCost
	if opts.FastHash {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{
		db:       db,
		opts:     opts,
		faker:    gofakeit.New(seed),
		rng:      rand.New(rand.NewSource(seed)), // #nosec G404: seeding only
		hash:     string(hash),
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		likes:    repository.NewLikeRepository(db),
	}, nil
}

// BuildUser returns an unsaved user with a unique email derived from n.
func (f *Factory) BuildUser(n int) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	return &models.User{
		FirstName:     first,
		LastName:      last,
		Email:         fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), n),
		Password:      f.hash,
		ProfileImgURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
}

// CreateUser persists a fake user.
func (f *Factory) CreateUser(ctx context.Context, n int, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(n)
	for _, override := range overrides {
		override(user)
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post by user, created some time within the
// last MaxDays, and the topic names to attach to it.
func (f *Factory) BuildPost(user *models.User) (*models.Post, []string) {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	age := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute

	title := strings.TrimSuffix(f.faker.Sentence(f.rng.Intn(5)+3), ".")
	post := &models.Post{
		Title:     title,
		Content:   f.faker.Paragraph(f.rng.Intn(3)+1, 4, 12, "\n\n"),
		Published: f.rng.Float64() >= f.opts.DraftRatio,
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-age),
	}
	if f.rng.Float64() < 0.4 {
		post.ImgURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/450", f.faker.UUID())
	}
	return post, f.pickTopics()
}

// CreatePost persists a fake post with its topics.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post, topics := f.BuildPost(user)
	for _, override := range overrides {
		override(post)
	}
	if err := f.posts.Create(ctx, post, topics); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a fake comment by user on post.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content: f.faker.Sentence(f.rng.Intn(12) + 4),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Like toggles user's like on the target. Seeding only ever toggles a
// (user, target) pair once, so the result is always a like.
func (f *Factory) Like(ctx context.Context, kind models.LikeKind, targetID, userID uint) error {
	_, err := f.likes.Toggle(ctx, kind, targetID, userID)
	return err
}

func (f *Factory) pickTopics() []string {
	pool := f.opts.Topics
	if len(pool) == 0 {
		pool = defaultTopics
	}
	n := f.rng.Intn(4)
	picked := make([]string, 0, n)
	for _, i := range f.rng.Perm(len(pool))[:min(n, len(pool))] {
		picked = append(picked, pool[i])
	}
	return picked
}

// chance reports true with probability p.
func (f *Factory) chance(p float64) bool {
	return f.rng.Float64() < p
}
