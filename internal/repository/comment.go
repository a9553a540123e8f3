package repository

import (
	"context"

	"github.com/BodiAli/blog-api/internal/models"

	"gorm.io/gorm"
)

// CommentQuery selects a page of a post's comments for a viewer.
type CommentQuery struct {
	Viewer models.Viewer
	PostID uint
	Limit  int
	Offset int
}

// CommentRepository defines interface for comment operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, q CommentQuery) ([]*models.Comment, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
	UpdateContent(ctx context.Context, id uint, content string) (*models.Comment, error)
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	db := r.db.WithContext(ctx)
	if err := db.Omit("User", "Post").Create(comment).Error; err != nil {
		return translateError(err, "Post")
	}
	return translateError(db.Preload("User").First(comment, comment.ID).Error, "Comment")
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, translateError(err, "Comment")
	}
	return &comment, nil
}

// ListByPost returns comments by like count, newest first among equals,
// each annotated with whether the viewer liked it.
func (r *commentRepository) ListByPost(ctx context.Context, q CommentQuery) ([]*models.Comment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var comments []*models.Comment
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("comments.post_id = ?", q.PostID).
		Order("comments.likes DESC").
		Order("comments.created_at DESC").
		Order("comments.id DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&comments).Error
	if err != nil {
		return nil, translateError(err, "Comment")
	}

	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	liked, err := likedIDs(ctx, r.db, "comment_likes", "comment_id", q.Viewer, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		c.Liked = liked[c.ID]
	}
	return comments, nil
}

func (r *commentRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, translateError(err, "Comment")
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) (*models.Comment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	db := r.db.WithContext(ctx)
	res := db.Model(&models.Comment{ID: id}).Update("content", content)
	if res.Error != nil {
		return nil, translateError(res.Error, "Comment")
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Comment")
	}

	var comment models.Comment
	if err := db.Preload("User").First(&comment, id).Error; err != nil {
		return nil, translateError(err, "Comment")
	}
	return &comment, nil
}

// Delete removes a comment and its likes in one transaction.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Comment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translateError(err, "Comment")
}
