// Package middleware provides request logging, tracing, metrics and identity resolution.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/BodiAli/blog-api/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenIssuer   = "blog-api"
	tokenAudience = "blog-client"

	// BearerPrefix precedes the token in the Authorization header and in issued credentials.
	BearerPrefix = "Bearer "

	viewerLocal = "viewer"
	userIDLocal = "userID"
)

// UserLookup reports whether a user still exists.
type UserLookup interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// IdentityResolver issues, verifies and revokes bearer credentials and turns
// an Authorization header into a models.Viewer.
type IdentityResolver struct {
	secret []byte
	ttl    time.Duration
	users  UserLookup
	redis  *redis.Client
	now    func() time.Time
}

// NewIdentityResolver creates a resolver. redisClient may be nil, in which case
// revocation is disabled.
func NewIdentityResolver(secret string, ttl time.Duration, users UserLookup, redisClient *redis.Client) *IdentityResolver {
	return &IdentityResolver{
		secret: []byte(secret),
		ttl:    ttl,
		users:  users,
		redis:  redisClient,
		now:    time.Now,
	}
}

// Issue signs a credential naming userID as its subject.
func (r *IdentityResolver) Issue(userID uint) (string, error) {
	now := r.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// Resolve maps an Authorization header value to a Viewer. An empty header is
// anonymous; any present but unusable credential is an UNAUTHORIZED error.
func (r *IdentityResolver) Resolve(ctx context.Context, header string) (models.Viewer, error) {
	if strings.TrimSpace(header) == "" {
		return models.AnonymousViewer(), nil
	}

	tokenString, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok || strings.TrimSpace(tokenString) == "" {
		return models.AnonymousViewer(), models.NewUnauthorizedError("Invalid authorization header format")
	}

	claims, err := r.parse(tokenString)
	if err != nil {
		return models.AnonymousViewer(), err
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return models.AnonymousViewer(), models.NewUnauthorizedError("Invalid user ID in token")
	}

	if r.isRevoked(ctx, claims.ID) {
		return models.AnonymousViewer(), models.NewUnauthorizedError("Token has been revoked")
	}

	exists, err := r.users.Exists(ctx, uint(userID))
	if err != nil {
		return models.AnonymousViewer(), err
	}
	if !exists {
		return models.AnonymousViewer(), models.NewUnauthorizedError("User no longer exists")
	}

	return models.IdentifiedViewer(uint(userID)), nil
}

// Revoke blacklists the credential's jti until it would have expired anyway.
func (r *IdentityResolver) Revoke(ctx context.Context, header string) error {
	tokenString, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok {
		return models.NewUnauthorizedError("Invalid authorization header format")
	}
	claims, err := r.parse(tokenString)
	if err != nil {
		return err
	}
	if r.redis == nil || claims.ID == "" {
		Logger.WarnContext(ctx, "token revocation skipped: redis unavailable")
		return nil
	}

	ttl := claims.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.redis.Set(ctx, blacklistKey(claims.ID), "1", ttl).Err(); err != nil {
		return models.NewUnavailableError(err)
	}
	return nil
}

func (r *IdentityResolver) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.NewUnauthorizedError("Token has expired")
		}
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	return claims, nil
}

func (r *IdentityResolver) isRevoked(ctx context.Context, jti string) bool {
	if r.redis == nil || jti == "" {
		return false
	}
	n, err := r.redis.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		Logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
		return false
	}
	return n > 0
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

// Required rejects requests that do not resolve to an identified viewer.
func (r *IdentityResolver) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer, err := r.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return writeAuthError(c, err)
		}
		if viewer.IsAnonymous() {
			return writeAuthError(c, models.NewUnauthorizedError("Authorization required"))
		}
		setViewer(c, viewer)
		return c.Next()
	}
}

// Optional resolves the viewer when credentials are present. Unusable
// credentials degrade to an anonymous viewer instead of failing the request.
func (r *IdentityResolver) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer, err := r.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			Logger.DebugContext(c.UserContext(), "ignoring unusable credentials", slog.String("error", err.Error()))
			viewer = models.AnonymousViewer()
		}
		setViewer(c, viewer)
		return c.Next()
	}
}

func setViewer(c *fiber.Ctx, viewer models.Viewer) {
	c.Locals(viewerLocal, viewer)
	if id, ok := viewer.UserID(); ok {
		c.Locals(userIDLocal, id)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, id))
	}
}

// ViewerFrom returns the viewer resolved for this request, anonymous if none.
func ViewerFrom(c *fiber.Ctx) models.Viewer {
	if v, ok := c.Locals(viewerLocal).(models.Viewer); ok {
		return v
	}
	return models.AnonymousViewer()
}

// UserIDFrom returns the identified user id. Only valid behind Required().
func UserIDFrom(c *fiber.Ctx) uint {
	id, _ := c.Locals(userIDLocal).(uint)
	return id
}

func writeAuthError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeUnauthorized {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Error: appErr.Message, Code: appErr.Code})
	}
	if errors.As(err, &appErr) && appErr.Code == models.CodeUnavailable {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{Error: appErr.Message, Code: appErr.Code})
	}
	Logger.ErrorContext(c.UserContext(), "identity resolution failed", slog.String("error", err.Error()))
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Internal server error", Code: models.CodeInternal})
}
