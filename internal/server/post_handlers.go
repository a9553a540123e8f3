package server

import (
	"strconv"
	"strings"

	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/service"
	"github.com/BodiAli/blog-api/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Title     string   `json:"title" form:"title"`
	Content   string   `json:"content" form:"content"`
	Published *bool    `json:"published" form:"-"`
	Topics    []string `json:"topics" form:"-"`
}

type postForm struct {
	postRequest
	image *service.ImageUpload
}

// parsePostForm reads a post from JSON or from a multipart form with an
// optional postImage file.
func (s *Server) parsePostForm(c *fiber.Ctx) (*postForm, error) {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, models.NewValidationError("Invalid request body")
	}
	if !isMultipart(c) {
		return &postForm{postRequest: req}, nil
	}

	req.Topics = formList(c, "topics")
	if raw := strings.TrimSpace(c.FormValue("published")); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			check := validation.NewChecker(validation.LocationBody)
			check.Add("published", raw, "Published must be a boolean.")
			return nil, check.Err()
		}
		req.Published = &published
	}

	image, err := readImage(c, "postImage", s.maxImageBytes())
	if err != nil {
		return nil, err
	}
	return &postForm{postRequest: req, image: image}, nil
}

// GetPosts handles GET /api/posts
// @Summary List published posts
// @Description Most liked first, seven per page, optionally filtered by topic substring
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Param topic query string false "Topic filter"
// @Success 200 {object} service.PostPage
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Viewer: middleware.ViewerFrom(c),
		Topic:  c.Query("topic"),
		Page:   c.Query("page"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post with its top comments
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{post=models.PostDetail}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.postService.GetPost(c.UserContext(), middleware.ViewerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"post": detail})
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Success 201 {object} object{msg=string,post=models.Post}
// @Failure 400 {object} models.ValidationErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, err := s.parsePostForm(c)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:    middleware.UserIDFrom(c),
		Title:     form.Title,
		Content:   form.Content,
		Published: form.Published,
		Topics:    form.Topics,
		Image:     form.image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"msg": "Post created successfully!", "post": post})
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Replace a post's content
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{msg=string,post=models.Post}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	form, err := s.parsePostForm(c)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:    middleware.UserIDFrom(c),
		PostID:    id,
		Title:     form.Title,
		Content:   form.Content,
		Published: form.Published,
		Topics:    form.Topics,
		Image:     form.image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"msg": "Post updated successfully!", "post": post})
}

// SetPublished handles PATCH /api/posts/:id/publish
// @Summary Publish or unpublish a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{msg=string,post=models.Post}
// @Router /posts/{id}/publish [patch]
func (s *Server) SetPublished(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Published *bool `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.Published == nil {
		check := validation.NewChecker(validation.LocationBody)
		check.Add("published", nil, "Published must be a boolean.")
		return respondError(c, check.Err())
	}

	post, err := s.postService.SetPublished(c.UserContext(), middleware.UserIDFrom(c), id, *req.Published)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"msg": "Post updated successfully!", "post": post})
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post with its comments and likes
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), middleware.UserIDFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// TogglePostLike handles PATCH /api/posts/:id/like
// @Summary Like or unlike a post
// @Tags likes
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Router /posts/{id}/like [patch]
func (s *Server) TogglePostLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	_, err = s.likeService.Toggle(c.UserContext(), service.ToggleLikeInput{
		Kind:   models.LikeKindPost,
		PostID: id,
		UserID: middleware.UserIDFrom(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
