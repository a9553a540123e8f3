package repository

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func likePost(t *testing.T, db *gorm.DB, userID, postID uint) {
	t.Helper()
	_, err := NewLikeRepository(db).Toggle(context.Background(), models.LikeKindPost, postID, userID)
	require.NoError(t, err)
}

func titles(posts []*models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func TestPostRepository_ListPublished_SQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	shape := strings.Join([]string{
		regexp.QuoteMeta(`SELECT * FROM "posts" WHERE posts.published = $1 AND EXISTS (SELECT 1 FROM post_topics pt JOIN topics t ON t.id = pt.topic_id WHERE pt.post_id = posts.id AND LOWER(t.name) LIKE $2 ESCAPE '\')`),
		regexp.QuoteMeta(`ORDER BY posts.likes DESC,posts.created_at DESC,posts.id DESC`),
		`LIMIT`,
	}, ".*")
	mock.ExpectQuery(shape).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	posts, err := repo.ListPublished(context.Background(), PostQuery{Topic: " Go_lang ", Limit: 7})
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListPublished(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	reader := testutil.CreateUser(t, db, "reader")
	other := testutil.CreateUser(t, db, "other")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := testutil.CreatePost(t, db, author, "older", true, "Golang")
	newer := testutil.CreatePost(t, db, author, "newer", true, "Databases")
	popular := testutil.CreatePost(t, db, author, "popular", true, "golang tips")
	draft := testutil.CreatePost(t, db, author, "draft", false, "Golang")
	require.NoError(t, db.Model(older).UpdateColumn("created_at", base).Error)
	require.NoError(t, db.Model(newer).UpdateColumn("created_at", base.Add(time.Hour)).Error)
	require.NoError(t, db.Model(popular).UpdateColumn("created_at", base).Error)

	likePost(t, db, reader.ID, popular.ID)
	likePost(t, db, other.ID, popular.ID)
	likePost(t, db, reader.ID, draft.ID)
	likePost(t, db, other.ID, draft.ID)
	likePost(t, db, author.ID, draft.ID)

	t.Run("published only, popularity then newest", func(t *testing.T) {
		posts, err := repo.ListPublished(ctx, PostQuery{Viewer: models.AnonymousViewer(), Limit: 7})
		require.NoError(t, err)
		assert.Equal(t, []string{"popular", "newer", "older"}, titles(posts))
		assert.Equal(t, 2, posts[0].Likes)
		assert.NotEmpty(t, posts[0].User.FirstName)

		count, err := repo.CountPublished(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("topic filter is a case-insensitive substring", func(t *testing.T) {
		posts, err := repo.ListPublished(ctx, PostQuery{Topic: "GOLANG", Limit: 7})
		require.NoError(t, err)
		assert.Equal(t, []string{"popular", "older"}, titles(posts))

		count, err := repo.CountPublished(ctx, "golang")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		posts, err = repo.ListPublished(ctx, PostQuery{Topic: "%", Limit: 7})
		require.NoError(t, err)
		assert.Empty(t, posts, "wildcards are matched literally")
	})

	t.Run("liked annotation follows the viewer", func(t *testing.T) {
		posts, err := repo.ListPublished(ctx, PostQuery{Viewer: models.IdentifiedViewer(reader.ID), Limit: 7})
		require.NoError(t, err)
		for _, p := range posts {
			assert.Equal(t, p.ID == popular.ID, p.Liked, p.Title)
		}

		for _, v := range []models.Viewer{models.AnonymousViewer(), models.IdentifiedViewer(author.ID)} {
			posts, err := repo.ListPublished(ctx, PostQuery{Viewer: v, Limit: 7})
			require.NoError(t, err)
			for _, p := range posts {
				assert.False(t, p.Liked, p.Title)
			}
		}
	})

	t.Run("window", func(t *testing.T) {
		posts, err := repo.ListPublished(ctx, PostQuery{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"older"}, titles(posts))
	})
}

func TestPostRepository_GetByIDIgnoresPublished(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	author := testutil.CreateUser(t, db, "author")
	draft := testutil.CreatePost(t, db, author, "draft", false, "b-topic", "a-topic")

	got, err := repo.GetByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.False(t, got.Published)
	assert.Equal(t, []string{"a-topic", "b-topic"}, got.TopicNames())
	assert.Equal(t, author.ID, got.User.ID)

	_, err = repo.GetByID(context.Background(), draft.ID+1)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostRepository_ListByUserIncludesDrafts(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	someone := testutil.CreateUser(t, db, "someone")

	testutil.CreatePost(t, db, author, "first", true)
	testutil.CreatePost(t, db, author, "second", false)
	testutil.CreatePost(t, db, someone, "not mine", true)

	posts, err := repo.ListByUser(ctx, author.ID, PostQuery{Viewer: models.IdentifiedViewer(author.ID), Limit: 7})
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, titles(posts))

	count, err := repo.CountByUser(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPostRepository_CreateReusesTopics(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")

	first := &models.Post{Title: "one", Content: "c", Published: true, UserID: author.ID}
	require.NoError(t, repo.Create(ctx, first, []string{"Go", "SQL"}))
	second := &models.Post{Title: "two", Content: "c", Published: true, UserID: author.ID}
	require.NoError(t, repo.Create(ctx, second, []string{"go"}))

	assert.Equal(t, first.Topics[0].ID, second.Topics[0].ID)
	assert.Equal(t, "Go", second.Topics[0].Name)

	var topics int64
	require.NoError(t, db.Model(&models.Topic{}).Count(&topics).Error)
	assert.Equal(t, int64(2), topics)
}

func TestPostRepository_UpdateSweepsOrphanTopics(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author, "post", true, "keep", "drop")
	testutil.CreatePost(t, db, author, "other", true, "keep")

	title := "renamed"
	updated, err := repo.Update(ctx, post.ID, PostChanges{Title: &title, Topics: []string{"keep", "new"}})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, []string{"keep", "new"}, updated.TopicNames())

	var names []string
	require.NoError(t, db.Model(&models.Topic{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{"keep", "new"}, names)

	published := false
	updated, err = repo.Update(ctx, post.ID, PostChanges{Published: &published})
	require.NoError(t, err)
	assert.False(t, updated.Published)
	assert.Equal(t, []string{"keep", "new"}, updated.TopicNames(), "nil topics leave links alone")

	_, err = repo.Update(ctx, post.ID+100, PostChanges{Title: &title})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")

	post := testutil.CreatePost(t, db, author, "doomed", true, "lonely", "shared")
	keeper := testutil.CreatePost(t, db, author, "keeper", true, "shared")
	comment := testutil.CreateComment(t, db, fan, post, "nice")
	likePost(t, db, fan.ID, post.ID)
	_, err := NewLikeRepository(db).Toggle(ctx, models.LikeKindComment, comment.ID, author.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, post.ID))

	for _, model := range []any{&models.Comment{}, &models.PostLike{}, &models.CommentLike{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
	var names []string
	require.NoError(t, db.Model(&models.Topic{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"shared"}, names)

	exists, err := repo.Exists(ctx, keeper.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.Delete(ctx, post.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostRepository_IsLiked(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author, "p", true)
	likePost(t, db, author.ID, post.ID)

	liked, err := repo.IsLiked(context.Background(), models.IdentifiedViewer(author.ID), post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.IsLiked(context.Background(), models.AnonymousViewer(), post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}
