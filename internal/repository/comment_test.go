package repository

import (
	"context"
	"testing"
	"time"

	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_ListByPost(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")
	post := testutil.CreatePost(t, db, author, "p", true)
	elsewhere := testutil.CreatePost(t, db, author, "q", true)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first := testutil.CreateComment(t, db, fan, post, "first")
	second := testutil.CreateComment(t, db, fan, post, "second")
	liked := testutil.CreateComment(t, db, author, post, "liked")
	testutil.CreateComment(t, db, fan, elsewhere, "elsewhere")
	for i, c := range []*models.Comment{first, second, liked} {
		require.NoError(t, db.Model(c).UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}
	_, err := likes.Toggle(ctx, models.LikeKindComment, liked.ID, fan.ID)
	require.NoError(t, err)

	comments, err := repo.ListByPost(ctx, CommentQuery{Viewer: models.IdentifiedViewer(fan.ID), PostID: post.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "liked", comments[0].Content)
	assert.True(t, comments[0].Liked)
	assert.Equal(t, 1, comments[0].Likes)
	assert.Equal(t, "second", comments[1].Content)
	assert.False(t, comments[1].Liked)
	assert.Equal(t, "first", comments[2].Content)
	assert.Equal(t, fan.ID, comments[2].User.ID)

	anon, err := repo.ListByPost(ctx, CommentQuery{PostID: post.ID, Limit: 10})
	require.NoError(t, err)
	for _, c := range anon {
		assert.False(t, c.Liked)
	}

	count, err := repo.CountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCommentRepository_CRUD(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author, "p", true)

	c := &models.Comment{Content: "hello", UserID: author.ID, PostID: post.ID}
	require.NoError(t, repo.Create(ctx, c))
	assert.NotZero(t, c.ID)
	assert.Equal(t, author.FirstName, c.User.FirstName)

	updated, err := repo.UpdateContent(ctx, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	_, err = NewLikeRepository(db).Toggle(ctx, models.LikeKindComment, c.ID, author.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err = repo.GetByID(ctx, c.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	var likeRows int64
	require.NoError(t, db.Model(&models.CommentLike{}).Count(&likeRows).Error)
	assert.Zero(t, likeRows)

	assert.True(t, models.IsCode(repo.Delete(ctx, c.ID), models.CodeNotFound))
	_, err = repo.UpdateContent(ctx, c.ID, "x")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
