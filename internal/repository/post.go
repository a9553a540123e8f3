package repository

import (
	"context"
	"strings"

	"github.com/BodiAli/blog-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostQuery selects a page of posts for a viewer.
type PostQuery struct {
	Viewer models.Viewer
	Topic  string
	Limit  int
	Offset int
}

// PostChanges is a partial post update. Nil fields are left untouched.
type PostChanges struct {
	Title     *string
	Content   *string
	Published *bool
	ImgURL    *string
	ImgID     *string
	// Topics replaces the post's topics when non-nil.
	Topics []string
}

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, topics []string) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	ListPublished(ctx context.Context, q PostQuery) ([]*models.Post, error)
	CountPublished(ctx context.Context, topic string) (int64, error)
	ListByUser(ctx context.Context, userID uint, q PostQuery) ([]*models.Post, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	Update(ctx context.Context, id uint, changes PostChanges) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
	IsLiked(ctx context.Context, viewer models.Viewer, postID uint) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// publishedPosts restricts to published posts, optionally to those with a
// topic whose name contains topic, case-insensitively.
func publishedPosts(topic string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("posts.published = ?", true)
		topic = strings.TrimSpace(topic)
		if topic == "" {
			return db
		}
		return db.Where(
			`EXISTS (SELECT 1 FROM post_topics pt JOIN topics t ON t.id = pt.topic_id `+
				`WHERE pt.post_id = posts.id AND LOWER(t.name) LIKE ? ESCAPE '\')`,
			"%"+escapeLike(strings.ToLower(topic))+"%",
		)
	}
}

// byPopularity orders by like count, then newest, then id so pages never overlap.
func byPopularity(db *gorm.DB) *gorm.DB {
	return db.Order("posts.likes DESC").Order("posts.created_at DESC").Order("posts.id DESC")
}

func byNewest(db *gorm.DB) *gorm.DB {
	return db.Order("posts.created_at DESC").Order("posts.id DESC")
}

func withAuthorAndTopics(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Topics", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("topics.name ASC")
	})
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, topics []string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		linked, err := linkTopics(tx, post.ID, topics)
		if err != nil {
			return err
		}
		post.Topics = linked
		return nil
	})
	return translateError(err, "Post")
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var post models.Post
	if err := r.db.WithContext(ctx).Scopes(withAuthorAndTopics).First(&post, id).Error; err != nil {
		return nil, translateError(err, "Post")
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translateError(err, "Post")
	}
	return count > 0, nil
}

func (r *postRepository) ListPublished(ctx context.Context, q PostQuery) ([]*models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var posts []*models.Post
	err := readDB(r.db).WithContext(ctx).
		Scopes(publishedPosts(q.Topic), byPopularity, withAuthorAndTopics).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, translateError(err, "Post")
	}
	if err := r.annotateLiked(ctx, q.Viewer, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) CountPublished(ctx context.Context, topic string) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Post{}).Scopes(publishedPosts(topic)).Count(&count).Error
	return count, translateError(err, "Post")
}

// ListByUser returns every post owned by userID, published or not, newest first.
func (r *postRepository) ListByUser(ctx context.Context, userID uint, q PostQuery) ([]*models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Scopes(byNewest, withAuthorAndTopics).
		Where("posts.user_id = ?", userID).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, translateError(err, "Post")
	}
	if err := r.annotateLiked(ctx, q.Viewer, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", userID).Count(&count).Error
	return count, translateError(err, "Post")
}

// Update applies changes and, when topics change, sweeps orphaned topics in
// the same transaction.
func (r *postRepository) Update(ctx context.Context, id uint, changes PostChanges) (*models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{}
		if changes.Title != nil {
			updates["title"] = *changes.Title
		}
		if changes.Content != nil {
			updates["content"] = *changes.Content
		}
		if changes.Published != nil {
			updates["published"] = *changes.Published
		}
		if changes.ImgURL != nil {
			updates["img_url"] = *changes.ImgURL
		}
		if changes.ImgID != nil {
			updates["img_id"] = *changes.ImgID
		}

		if len(updates) > 0 {
			res := tx.Model(&models.Post{ID: id}).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		if changes.Topics == nil {
			return nil
		}
		if err := tx.Exec("DELETE FROM post_topics WHERE post_id = ?", id).Error; err != nil {
			return err
		}
		if _, err := linkTopics(tx, id, changes.Topics); err != nil {
			return err
		}
		_, err := sweepOrphanTopics(tx)
		return err
	})
	if err != nil {
		return nil, translateError(err, "Post")
	}

	var post models.Post
	if err := r.db.WithContext(ctx).Scopes(withAuthorAndTopics).First(&post, id).Error; err != nil {
		return nil, translateError(err, "Post")
	}
	return &post, nil
}

// Delete removes the post with its comments, likes and topic links, then
// sweeps orphaned topics. All or nothing.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			sql  string
			args []any
		}{
			{"DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE post_id = ?)", []any{id}},
			{"DELETE FROM comments WHERE post_id = ?", []any{id}},
			{"DELETE FROM post_likes WHERE post_id = ?", []any{id}},
			{"DELETE FROM post_topics WHERE post_id = ?", []any{id}},
		}
		for _, s := range steps {
			if err := tx.Exec(s.sql, s.args...).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		_, err := sweepOrphanTopics(tx)
		return err
	})
	return translateError(err, "Post")
}

func (r *postRepository) IsLiked(ctx context.Context, viewer models.Viewer, postID uint) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	liked, err := likedIDs(ctx, r.db, "post_likes", "post_id", viewer, []uint{postID})
	if err != nil {
		return false, err
	}
	return liked[postID], nil
}

func (r *postRepository) annotateLiked(ctx context.Context, viewer models.Viewer, posts []*models.Post) error {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, err := likedIDs(ctx, r.db, "post_likes", "post_id", viewer, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.Liked = liked[p.ID]
	}
	return nil
}

// likedIDs returns the subset of ids the viewer has a like row for. Anonymous
// viewers like nothing and cause no query.
func likedIDs(ctx context.Context, db *gorm.DB, table, column string, viewer models.Viewer, ids []uint) (map[uint]bool, error) {
	liked := make(map[uint]bool, len(ids))
	userID, ok := viewer.UserID()
	if !ok || len(ids) == 0 {
		return liked, nil
	}

	var found []uint
	err := db.WithContext(ctx).Table(table).
		Where("user_id = ? AND "+column+" IN ?", userID, ids).
		Pluck(column, &found).Error
	if err != nil {
		return nil, translateError(err, "Like")
	}
	for _, id := range found {
		liked[id] = true
	}
	return liked, nil
}
