package server

import (
	"github.com/BodiAli/blog-api/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id
// @Summary Get a user's public profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{user=models.User}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetProfile(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// GetMyPosts handles GET /api/users/posts
// @Summary List the caller's posts, drafts included
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Success 200 {object} service.PostPage
// @Router /users/posts [get]
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListUserPosts(c.UserContext(), middleware.ViewerFrom(c), c.Query("page"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// GetTopics handles GET /api/topics
// @Summary List topics by name
// @Tags topics
// @Produce json
// @Success 200 {object} object{topics=[]models.Topic}
// @Router /topics [get]
func (s *Server) GetTopics(c *fiber.Ctx) error {
	topics, err := s.topicRepo.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"topics": topics})
}
