package service

import (
	"context"

	"github.com/BodiAli/blog-api/internal/cache"
	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/repository"
	"github.com/BodiAli/blog-api/internal/validation"
)

const maxCommentLength = 10000

// CommentPage is one page of a post's comments.
type CommentPage struct {
	Comments   []*models.Comment `json:"comments"`
	TotalPages int               `json:"totalPages"`
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
}

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	pageSize    int
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	pageSize int,
) *CommentService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		pageSize:    pageSize,
	}
}

func (s *CommentService) ListComments(ctx context.Context, viewer models.Viewer, postID uint, page string) (*CommentPage, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	total, err := s.commentRepo.CountByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	p := Paginate(page, total, s.pageSize)
	comments, err := s.commentRepo.ListByPost(ctx, repository.CommentQuery{
		Viewer: viewer,
		PostID: postID,
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return &CommentPage{Comments: comments, TotalPages: p.TotalPages}, nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content, err := checkCommentContent(in.Content)
	if err != nil {
		return nil, err
	}
	if err := s.requirePost(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: content,
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, in.PostID)
	return comment, nil
}

// UpdateComment changes the content of a comment. Only its author may.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentInPost(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(comment.UserID, in.UserID, "You are not allowed to update this comment"); err != nil {
		return nil, err
	}
	content, err := checkCommentContent(in.Content)
	if err != nil {
		return nil, err
	}

	updated, err := s.commentRepo.UpdateContent(ctx, in.CommentID, content)
	if err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, in.PostID)
	return updated, nil
}

// DeleteComment removes a comment. Its author and the post's author may both
// delete it.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentInPost(ctx, in.PostID, in.CommentID)
	if err != nil {
		return err
	}

	if !AuthorizeMutation(comment.UserID, in.UserID) {
		post, err := s.postRepo.GetByID(ctx, in.PostID)
		if err != nil {
			return err
		}
		if err := requireOwner(post.UserID, in.UserID, "You are not allowed to delete this comment"); err != nil {
			return err
		}
	}

	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, in.PostID)
	return nil
}

func (s *CommentService) requirePost(ctx context.Context, postID uint) error {
	ok, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Post")
	}
	return nil
}

// commentInPost loads a comment and rejects it unless it hangs off postID.
func (s *CommentService) commentInPost(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, models.NewNotFoundError("Comment")
	}
	return comment, nil
}

func checkCommentContent(content string) (string, error) {
	check := validation.NewChecker(validation.LocationBody)
	f := check.Field("content", "Content", content).NotEmpty().MaxLen(maxCommentLength)
	if err := check.Err(); err != nil {
		return "", err
	}
	return f.Value(), nil
}
