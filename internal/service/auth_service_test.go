package service

import (
	"context"
	"errors"
	"testing"

	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fieldErrors(t *testing.T, err error) []models.FieldError {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, models.CodeValidation, appErr.Code)
	return appErr.Fields
}

func TestSignUp_CreatesUserAndIssuesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.SignUp(ctx, SignUpInput{
		FirstName:       " Ada ",
		LastName:        "Lovelace",
		Email:           "Ada@Example.com",
		Password:        "engines",
		ConfirmPassword: "engines",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", res.User.FirstName)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, "token-for-1", res.Token)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(res.User.Password), []byte("engines")))
	assert.Empty(t, f.images.uploaded)
}

func TestSignUp_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.SignUp(context.Background(), SignUpInput{
		FirstName:       "",
		LastName:        "L",
		Email:           "not-an-email",
		Password:        "abc",
		ConfirmPassword: "abd",
	})
	fields := fieldErrors(t, err)

	paths := make([]string, 0, len(fields))
	for _, fe := range fields {
		paths = append(paths, fe.Path)
		assert.Equal(t, "body", fe.Location)
	}
	assert.ElementsMatch(t, []string{"firstName", "email", "password", "confirmPassword"}, paths)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	existing := testutil.CreateUser(t, f.db, "taken")

	_, err := f.auth.SignUp(context.Background(), SignUpInput{
		FirstName: "B",
		LastName:  "C",
		Email:     existing.Email,
		Password:  "password",
	})
	fields := fieldErrors(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "email", fields[0].Path)
	assert.Equal(t, "A user with this email already exists.", fields[0].Msg)
}

func TestSignUp_WithImage(t *testing.T) {
	f := newFixture(t)
	res, err := f.auth.SignUp(context.Background(), SignUpInput{
		FirstName: "Img",
		LastName:  "User",
		Email:     "img@example.com",
		Password:  "password",
		Image:     &ImageUpload{Field: "userImage", Data: testutil.TinyPNG(t, 4, 4)},
	})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/asset-1.webp", res.User.ProfileImgURL)
	assert.Equal(t, []string{"asset-1"}, f.images.uploaded)
}

func TestSignUp_RejectsNonImage(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.SignUp(context.Background(), SignUpInput{
		FirstName: "Img",
		LastName:  "User",
		Email:     "img@example.com",
		Password:  "password",
		Image:     &ImageUpload{Field: "userImage", Data: []byte("plain text")},
	})
	fields := fieldErrors(t, err)
	assert.Equal(t, "userImage", fields[0].Path)
	assert.Empty(t, f.images.uploaded, "nothing is stored when validation fails")
}

func TestLogIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.db, "login")

	res, err := f.auth.LogIn(ctx, LogInInput{Email: u.Email, Password: testutil.Password})
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)

	_, err = f.auth.LogIn(ctx, LogInInput{Email: u.Email, Password: "wrong-pass"})
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
	assert.EqualError(t, err, "Incorrect email or password")

	_, err = f.auth.LogIn(ctx, LogInInput{Email: "nobody@example.com", Password: "whatever"})
	assert.EqualError(t, err, "Incorrect email or password")

	_, err = f.auth.LogIn(ctx, LogInInput{Email: "", Password: ""})
	assert.Len(t, fieldErrors(t, err), 2)
}

func TestLogIn_IssuerFailure(t *testing.T) {
	f := newFixture(t)
	u := testutil.CreateUser(t, f.db, "issuer")
	f.auth.tokens = tokenIssuerStub{err: errors.New("no key")}

	_, err := f.auth.LogIn(context.Background(), LogInInput{Email: u.Email, Password: testutil.Password})
	assert.True(t, models.IsCode(err, models.CodeInternal))
}

func TestUserService_GetProfile(t *testing.T) {
	f := newFixture(t)
	u := testutil.CreateUser(t, f.db, "profile")

	got, err := f.users.GetProfile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "profile", got.FirstName)
	assert.Empty(t, got.Password)
	assert.Empty(t, got.Email)

	_, err = f.users.GetProfile(context.Background(), 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
