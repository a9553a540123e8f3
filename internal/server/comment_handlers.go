package server

import (
	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content" form:"content"`
}

// GetComments handles GET /api/posts/:id/comments
// @Summary List a post's comments
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Param page query int false "Page number"
// @Success 200 {object} service.CommentPage
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.commentService.ListComments(c.UserContext(), middleware.ViewerFrom(c), postID, c.Query("page"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 201 {object} object{msg=string,comment=models.Comment}
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  middleware.UserIDFrom(c),
		PostID:  postID,
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"msg": "Comment created successfully!", "comment": comment})
}

// UpdateComment handles PUT /api/posts/:id/comments/:commentId
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{msg=string}
// @Router /posts/{id}/comments/{commentId} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	_, err = s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    middleware.UserIDFrom(c),
		PostID:    postID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"msg": "Comment updated successfully!"})
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
// @Summary Delete a comment
// @Description The comment's author and the post's author may delete it
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}

	err = s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    middleware.UserIDFrom(c),
		PostID:    postID,
		CommentID: commentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleCommentLike handles PATCH /api/posts/:id/comments/:commentId/like
// @Summary Like or unlike a comment
// @Tags likes
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentId path int true "Comment ID"
// @Success 204
// @Router /posts/{id}/comments/{commentId}/like [patch]
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}

	_, err = s.likeService.Toggle(c.UserContext(), service.ToggleLikeInput{
		Kind:      models.LikeKindComment,
		PostID:    postID,
		CommentID: commentID,
		UserID:    middleware.UserIDFrom(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
