package server

import (
	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signUpRequest struct {
	FirstName       string `json:"firstName" form:"firstName"`
	LastName        string `json:"lastName" form:"lastName"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

type logInRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// authResponse carries a credential ready to be sent back as an Authorization header.
type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// SignUp handles POST /api/auth/sign-up
// @Summary User sign-up
// @Description Register a new user; accepts JSON or multipart with an optional userImage
// @Tags auth
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} authResponse
// @Failure 400 {object} models.ValidationErrorResponse
// @Router /auth/sign-up [post]
func (s *Server) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	image, err := readImage(c, "userImage", s.maxImageBytes())
	if err != nil {
		return respondError(c, err)
	}

	res, err := s.authService.SignUp(c.UserContext(), service.SignUpInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Image:           image,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(authResponse{Token: middleware.BearerPrefix + res.Token, User: res.User})
}

// LogIn handles POST /api/auth/log-in
// @Summary User log-in
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} authResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/log-in [post]
func (s *Server) LogIn(c *fiber.Ctx) error {
	var req logInRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	res, err := s.authService.LogIn(c.UserContext(), service.LogInInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(authResponse{Token: middleware.BearerPrefix + res.Token, User: res.User})
}

// ValidateToken handles GET /api/auth/validate
// @Summary Check a credential
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{msg=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/validate [get]
func (s *Server) ValidateToken(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.UserContext(), middleware.UserIDFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"msg": "Token is valid", "user": user})
}

// LogOut handles POST /api/auth/log-out
// @Summary Revoke the presented credential
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/log-out [post]
func (s *Server) LogOut(c *fiber.Ctx) error {
	if err := s.identity.Revoke(c.UserContext(), c.Get(fiber.HeaderAuthorization)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
