package service

import (
	"context"
	"errors"

	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/repository"
	"github.com/BodiAli/blog-api/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxNameLength     = 255
	minPasswordLength = 5
	bcryptCost        = 10

	errIncorrectLogin = "Incorrect email or password"
)

// TokenIssuer signs credentials for a user.
type TokenIssuer interface {
	Issue(userID uint) (string, error)
}

// SignUpInput is a registration request.
type SignUpInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Image           *ImageUpload
}

// LogInInput is a credentials check.
type LogInInput struct {
	Email    string
	Password string
}

// AuthResult is a freshly issued credential and the user it names.
type AuthResult struct {
	Token string
	User  *models.User
}

// AuthService registers users and exchanges passwords for credentials.
type AuthService struct {
	users         repository.UserRepository
	images        ImageStore
	tokens        TokenIssuer
	maxImageBytes int64
}

// NewAuthService creates an AuthService. maxImageBytes caps profile images.
func NewAuthService(users repository.UserRepository, images ImageStore, tokens TokenIssuer, maxImageBytes int64) *AuthService {
	return &AuthService{users: users, images: images, tokens: tokens, maxImageBytes: maxImageBytes}
}

// SignUp validates the request, stores the optional profile image, creates
// the user and issues a credential.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	check := validation.NewChecker(validation.LocationBody)
	first := check.Field("firstName", "First Name", in.FirstName).NotEmpty().MaxLen(maxNameLength)
	last := check.Field("lastName", "Last Name", in.LastName).NotEmpty().MaxLen(maxNameLength)
	email := check.Field("email", "Email", in.Email).NotEmpty().MaxLen(maxNameLength).Email()
	password := check.Field("password", "Password", in.Password).NotEmpty().MinLen(minPasswordLength)
	if in.ConfirmPassword != "" {
		check.Field("confirmPassword", "Password confirmation", in.ConfirmPassword).
			Check(in.ConfirmPassword == in.Password, "Password and password confirmation do not match.")
	}
	if in.Image != nil {
		validation.CheckImage(check, "userImage", int64(len(in.Image.Data)), s.maxImageBytes, in.Image.Data)
	}
	if email.Valid() {
		taken, err := s.users.EmailTaken(ctx, email.Value())
		if err != nil {
			return nil, err
		}
		email.Check(!taken, "A user with this email already exists.")
	}
	if err := check.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password.Value()), bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		FirstName: first.Value(),
		LastName:  last.Value(),
		Email:     email.Value(),
		Password:  string(hash),
	}
	if in.Image != nil {
		img, err := s.images.Upload(ctx, in.Image.Data)
		if err != nil {
			return nil, err
		}
		user.ProfileImgURL, user.ProfileImgID = img.URL, img.AssetID
	}

	if err := s.users.Create(ctx, user); err != nil {
		discardImage(ctx, s.images, user.ProfileImgID)
		if models.IsCode(err, models.CodeConflict) {
			dup := validation.NewChecker(validation.LocationBody)
			dup.Add("email", in.Email, "A user with this email already exists.")
			return nil, dup.Err()
		}
		return nil, err
	}

	return s.issue(user)
}

// LogIn checks the password and issues a credential. Unknown emails and wrong
// passwords fail the same way.
func (s *AuthService) LogIn(ctx context.Context, in LogInInput) (*AuthResult, error) {
	check := validation.NewChecker(validation.LocationBody)
	email := check.Field("email", "Email", in.Email).NotEmpty().MaxLen(maxNameLength).Email()
	password := check.Field("password", "Password", in.Password).NotEmpty().MinLen(minPasswordLength)
	if err := check.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email.Value())
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError(errIncorrectLogin)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password.Value())); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, models.NewUnauthorizedError(errIncorrectLogin)
		}
		return nil, models.NewInternalError(err)
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
