package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/repository"
	"github.com/BodiAli/blog-api/internal/storage"
	"github.com/BodiAli/blog-api/internal/testutil"

	"gorm.io/gorm"
)

const testMaxImageBytes = 3 << 20

// imageStoreStub records uploads and deletes in memory.
type imageStoreStub struct {
	mu        sync.Mutex
	next      int
	uploaded  []string
	deleted   []string
	uploadErr error
}

func (s *imageStoreStub) Upload(_ context.Context, _ []byte) (storage.UploadedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return storage.UploadedImage{}, s.uploadErr
	}
	s.next++
	id := fmt.Sprintf("asset-%d", s.next)
	s.uploaded = append(s.uploaded, id)
	return storage.UploadedImage{URL: "/uploads/" + id + ".webp", AssetID: id}, nil
}

func (s *imageStoreStub) Delete(_ context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, assetID)
	return nil
}

// tokenIssuerStub signs nothing; the token names the user.
type tokenIssuerStub struct{ err error }

func (s tokenIssuerStub) Issue(userID uint) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("token-for-%d", userID), nil
}

type fixture struct {
	db       *gorm.DB
	images   *imageStoreStub
	posts    *PostService
	comments *CommentService
	likes    *LikeService
	auth     *AuthService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	images := &imageStoreStub{}
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	userRepo := repository.NewUserRepository(db)
	return &fixture{
		db:       db,
		images:   images,
		posts:    NewPostService(postRepo, commentRepo, images, DefaultPageSize, testMaxImageBytes),
		comments: NewCommentService(commentRepo, postRepo, DefaultPageSize),
		likes:    NewLikeService(repository.NewLikeRepository(db), postRepo, commentRepo),
		auth:     NewAuthService(userRepo, images, tokenIssuerStub{}, testMaxImageBytes),
		users:    NewUserService(userRepo),
	}
}

func boolPtr(b bool) *bool { return &b }

func viewerOf(u *models.User) models.Viewer {
	return models.IdentifiedViewer(u.ID)
}
