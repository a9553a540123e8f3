package service

import (
	"context"

	"github.com/BodiAli/blog-api/internal/cache"
	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/repository"
	"github.com/BodiAli/blog-api/internal/validation"
)

const (
	maxTitleLength = 255
	// TopCommentsLimit is how many comments a post detail embeds.
	TopCommentsLimit = 10
)

// PostPage is one page of posts.
type PostPage struct {
	Posts      []*models.Post `json:"posts"`
	TotalPages int            `json:"totalPages"`
}

// ListPostsInput selects a page of published posts.
type ListPostsInput struct {
	Viewer models.Viewer
	Topic  string
	Page   string
}

// CreatePostInput is a new post. Published defaults to true.
type CreatePostInput struct {
	UserID    uint
	Title     string
	Content   string
	Published *bool
	Topics    []string
	Image     *ImageUpload
}

// UpdatePostInput replaces a post's title, content and topics. Published and
// Image are left alone when nil.
type UpdatePostInput struct {
	UserID    uint
	PostID    uint
	Title     string
	Content   string
	Published *bool
	Topics    []string
	Image     *ImageUpload
}

// PostService implements reads and owner-only writes on posts.
type PostService struct {
	posts         repository.PostRepository
	comments      repository.CommentRepository
	images        ImageStore
	pageSize      int
	maxImageBytes int64
}

// NewPostService creates a PostService.
func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	images ImageStore,
	pageSize int,
	maxImageBytes int64,
) *PostService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PostService{
		posts:         posts,
		comments:      comments,
		images:        images,
		pageSize:      pageSize,
		maxImageBytes: maxImageBytes,
	}
}

// ListPosts returns a page of published posts, most liked first. Pages seen
// by anonymous viewers are cached since they carry no per-viewer state.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*PostPage, error) {
	total, err := s.posts.CountPublished(ctx, in.Topic)
	if err != nil {
		return nil, err
	}
	page := Paginate(in.Page, total, s.pageSize)
	query := repository.PostQuery{Viewer: in.Viewer, Topic: in.Topic, Limit: page.Limit, Offset: page.Offset}

	result := &PostPage{TotalPages: page.TotalPages}
	load := func() error {
		posts, err := s.posts.ListPublished(ctx, query)
		result.Posts = posts
		return err
	}
	if in.Viewer.IsAnonymous() {
		err = cache.Aside(ctx, cache.PostsListKey(ctx, in.Topic, page.Page), &result.Posts, cache.PostsListTTL, load)
	} else {
		err = load()
	}
	if err != nil {
		return nil, err
	}
	if result.Posts == nil {
		result.Posts = []*models.Post{}
	}
	return result, nil
}

// GetPost returns a post with its top comments, whether or not it is published.
func (s *PostService) GetPost(ctx context.Context, viewer models.Viewer, postID uint) (*models.PostDetail, error) {
	var detail models.PostDetail
	load := func() error {
		post, err := s.posts.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		comments, err := s.comments.ListByPost(ctx, repository.CommentQuery{
			Viewer: viewer,
			PostID: postID,
			Limit:  TopCommentsLimit,
		})
		if err != nil {
			return err
		}
		liked, err := s.posts.IsLiked(ctx, viewer, postID)
		if err != nil {
			return err
		}
		post.Liked = liked
		detail = models.PostDetail{Post: post, PostLiked: liked, Comments: comments}
		return nil
	}

	var err error
	if viewer.IsAnonymous() {
		err = cache.Aside(ctx, cache.PostKey(postID), &detail, cache.PostTTL, load)
	} else {
		err = load()
	}
	if err != nil {
		return nil, err
	}
	if detail.Comments == nil {
		detail.Comments = []*models.Comment{}
	}
	return &detail, nil
}

// ListUserPosts returns the viewer's own posts, drafts included, newest first.
func (s *PostService) ListUserPosts(ctx context.Context, viewer models.Viewer, page string) (*PostPage, error) {
	userID, ok := viewer.UserID()
	if !ok {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	total, err := s.posts.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := Paginate(page, total, s.pageSize)
	posts, err := s.posts.ListByUser(ctx, userID, repository.PostQuery{Viewer: viewer, Limit: p.Limit, Offset: p.Offset})
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return &PostPage{Posts: posts, TotalPages: p.TotalPages}, nil
}

func (s *PostService) checkPost(title, content string, topics []string, image *ImageUpload) (*validation.Checker, string, string, []string) {
	check := validation.NewChecker(validation.LocationBody)
	t := check.Field("title", "Title", title).NotEmpty().MaxLen(maxTitleLength)
	c := check.Field("content", "Content", content).NotEmpty()
	names := validation.NormalizeTopics(check, topics)
	if image != nil {
		validation.CheckImage(check, "postImage", int64(len(image.Data)), s.maxImageBytes, image.Data)
	}
	return check, t.Value(), c.Value(), names
}

// CreatePost validates and stores a post with its topics and optional image.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	check, title, content, topics := s.checkPost(in.Title, in.Content, in.Topics, in.Image)
	if err := check.Err(); err != nil {
		return nil, err
	}

	published := true
	if in.Published != nil {
		published = *in.Published
	}
	post := &models.Post{
		Title:     title,
		Content:   content,
		Published: published,
		UserID:    in.UserID,
	}
	if in.Image != nil {
		img, err := s.images.Upload(ctx, in.Image.Data)
		if err != nil {
			return nil, err
		}
		post.ImgURL, post.ImgID = img.URL, img.AssetID
	}

	if err := s.posts.Create(ctx, post, topics); err != nil {
		discardImage(ctx, s.images, post.ImgID)
		return nil, err
	}
	s.invalidate(ctx, post.ID)
	return s.posts.GetByID(ctx, post.ID)
}

// UpdatePost replaces the post's fields. Only the owner may update; a new
// image supersedes and deletes the old one.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	existing, err := s.ownedPost(ctx, in.PostID, in.UserID, "You are not allowed to update this post")
	if err != nil {
		return nil, err
	}

	check, title, content, topics := s.checkPost(in.Title, in.Content, in.Topics, in.Image)
	if err := check.Err(); err != nil {
		return nil, err
	}

	changes := repository.PostChanges{
		Title:     &title,
		Content:   &content,
		Published: in.Published,
		Topics:    topics,
	}
	var uploaded string
	if in.Image != nil {
		img, err := s.images.Upload(ctx, in.Image.Data)
		if err != nil {
			return nil, err
		}
		uploaded = img.AssetID
		changes.ImgURL, changes.ImgID = &img.URL, &img.AssetID
	}

	post, err := s.posts.Update(ctx, in.PostID, changes)
	if err != nil {
		discardImage(ctx, s.images, uploaded)
		return nil, err
	}
	if uploaded != "" {
		discardImage(ctx, s.images, existing.ImgID)
	}
	s.invalidate(ctx, in.PostID)
	return post, nil
}

// SetPublished changes only the publication flag.
func (s *PostService) SetPublished(ctx context.Context, userID, postID uint, published bool) (*models.Post, error) {
	if _, err := s.ownedPost(ctx, postID, userID, "You are not allowed to update this post"); err != nil {
		return nil, err
	}
	post, err := s.posts.Update(ctx, postID, repository.PostChanges{Published: &published})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, postID)
	return post, nil
}

// DeletePost removes the post with everything hanging off it, then its image.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	existing, err := s.ownedPost(ctx, postID, userID, "You are not allowed to delete this post")
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	discardImage(ctx, s.images, existing.ImgID)
	s.invalidate(ctx, postID)
	return nil
}

// ownedPost loads the post and checks ownership separately, so a missing post
// is NOT_FOUND and someone else's post is FORBIDDEN.
func (s *PostService) ownedPost(ctx context.Context, postID, userID uint, forbidden string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(post.UserID, userID, forbidden); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) invalidate(ctx context.Context, postID uint) {
	cache.InvalidatePost(ctx, postID)
	cache.Invalidate(ctx, cache.TopicsKey())
}
