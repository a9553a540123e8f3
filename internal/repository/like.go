package repository

import (
	"context"
	"fmt"

	"github.com/BodiAli/blog-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository owns every write to like rows and like counters.
type LikeRepository interface {
	Toggle(ctx context.Context, kind models.LikeKind, targetID, userID uint) (bool, error)
	Count(ctx context.Context, kind models.LikeKind, targetID uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

type likeTarget struct {
	resource string
	row      func(userID, targetID uint) any
	column   string
	counter  any
}

func targetFor(kind models.LikeKind) (likeTarget, error) {
	switch kind {
	case models.LikeKindPost:
		return likeTarget{
			resource: "Post",
			row:      func(u, t uint) any { return &models.PostLike{UserID: u, PostID: t} },
			column:   "post_id",
			counter:  &models.Post{},
		}, nil
	case models.LikeKindComment:
		return likeTarget{
			resource: "Comment",
			row:      func(u, t uint) any { return &models.CommentLike{UserID: u, CommentID: t} },
			column:   "comment_id",
			counter:  &models.Comment{},
		}, nil
	}
	return likeTarget{}, models.NewValidationError(fmt.Sprintf("unknown like kind %q", kind))
}

// Toggle flips the user's like on the target and moves the counter by one in
// the same transaction. It reports whether the target is liked afterwards.
//
// The like row's primary key is what serialises concurrent toggles: an insert
// that finds the row already present changes nothing and reports liked.
func (r *likeRepository) Toggle(ctx context.Context, kind models.LikeKind, targetID, userID uint) (bool, error) {
	target, err := targetFor(kind)
	if err != nil {
		return false, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var liked bool
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND "+target.column+" = ?", userID, targetID).Delete(target.row(0, 0))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return adjustCounter(tx, target, targetID, -1)
		}

		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(target.row(userID, targetID))
		if res.Error != nil {
			return res.Error
		}
		liked = true
		if res.RowsAffected == 0 {
			return nil
		}
		return adjustCounter(tx, target, targetID, 1)
	})
	if err != nil {
		return false, translateError(err, target.resource)
	}
	return liked, nil
}

func adjustCounter(tx *gorm.DB, target likeTarget, targetID uint, delta int) error {
	res := tx.Model(target.counter).Where("id = ?", targetID).UpdateColumn("likes", gorm.Expr("likes + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the number of like rows for the target.
func (r *likeRepository) Count(ctx context.Context, kind models.LikeKind, targetID uint) (int64, error) {
	target, err := targetFor(kind)
	if err != nil {
		return 0, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err = r.db.WithContext(ctx).Model(target.row(0, 0)).Where(target.column+" = ?", targetID).Count(&count).Error
	return count, translateError(err, target.resource)
}
