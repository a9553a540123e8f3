// Package testutil provides shared fixtures for tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/BodiAli/blog-api/internal/database"
	"github.com/BodiAli/blog-api/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory sqlite database private to the test.
// A single connection keeps every statement on the same in-memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// Password is the plaintext password of every user created by CreateUser.
const Password = "secret-pass"

var (
	hashOnce     sync.Once
	passwordHash []byte
)

// CreateUser inserts a user named first with a unique email.
func CreateUser(t testing.TB, db *gorm.DB, first string) *models.User {
	t.Helper()
	hashOnce.Do(func() {
		passwordHash, _ = bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	})
	u := &models.User{
		FirstName: first,
		LastName:  "Tester",
		Email:     fmt.Sprintf("%s-%s@example.com", first, uuid.NewString()[:8]),
		Password:  string(passwordHash),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreatePost inserts a post owned by owner with the given topics.
func CreatePost(t testing.TB, db *gorm.DB, owner *models.User, title string, published bool, topics ...string) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Content: title + " body", Published: published, UserID: owner.ID}
	for _, name := range topics {
		topic := models.Topic{Name: name}
		if err := db.Where(models.Topic{Name: name}).FirstOrCreate(&topic).Error; err != nil {
			t.Fatalf("create topic: %v", err)
		}
		p.Topics = append(p.Topics, topic)
	}
	if err := db.Omit("Topics.*").Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

// CreateComment inserts a comment by author on post.
func CreateComment(t testing.TB, db *gorm.DB, author *models.User, post *models.Post, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{Content: content, UserID: author.ID, PostID: post.ID}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
