package service

import (
	"context"
	"log/slog"

	"github.com/BodiAli/blog-api/internal/cache"
	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/observability"
	"github.com/BodiAli/blog-api/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ToggleLikeInput names a like target. CommentID is only read for comment likes.
type ToggleLikeInput struct {
	Kind      models.LikeKind
	PostID    uint
	CommentID uint
	UserID    uint
}

// LikeService flips likes on posts and comments.
type LikeService struct {
	likes    repository.LikeRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
}

func NewLikeService(
	likes repository.LikeRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
) *LikeService {
	return &LikeService{likes: likes, posts: posts, comments: comments}
}

// Toggle likes the target if the user has not, and unlikes it otherwise. It
// reports whether the target is liked afterwards. A CONFLICT from a racing
// toggle by the same user is retried once.
func (s *LikeService) Toggle(ctx context.Context, in ToggleLikeInput) (liked bool, err error) {
	span, ctx := observability.StartSpan(ctx, "like.toggle",
		attribute.String("like.kind", string(in.Kind)),
		attribute.Int64("like.post_id", int64(in.PostID)),
		attribute.Int64("like.user_id", int64(in.UserID)),
	)
	defer func() {
		observability.RecordLikeToggle(string(in.Kind), liked, err)
		span.AddAttributes(attribute.Bool("like.liked", liked))
		span.Finish(err)
	}()

	targetID, err := s.target(ctx, in)
	if err != nil {
		return false, err
	}

	liked, err = s.likes.Toggle(ctx, in.Kind, targetID, in.UserID)
	if models.IsCode(err, models.CodeConflict) {
		middleware.Logger.DebugContext(ctx, "retrying like toggle after conflict",
			slog.String("kind", string(in.Kind)),
			slog.Uint64("target_id", uint64(targetID)),
		)
		liked, err = s.likes.Toggle(ctx, in.Kind, targetID, in.UserID)
	}
	if err != nil {
		return false, err
	}

	cache.InvalidatePost(ctx, in.PostID)
	return liked, nil
}

// target checks the target exists. A comment must belong to the post it is
// addressed under.
func (s *LikeService) target(ctx context.Context, in ToggleLikeInput) (uint, error) {
	ok, err := s.posts.Exists(ctx, in.PostID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, models.NewNotFoundError("Post")
	}

	switch in.Kind {
	case models.LikeKindPost:
		return in.PostID, nil
	case models.LikeKindComment:
		comment, err := s.comments.GetByID(ctx, in.CommentID)
		if err != nil {
			return 0, err
		}
		if comment.PostID != in.PostID {
			return 0, models.NewNotFoundError("Comment")
		}
		return comment.ID, nil
	}
	return 0, models.NewValidationError("unknown like kind")
}
