// Package repository provides gorm-backed data access for the blog.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/BodiAli/blog-api/internal/database"
	"github.com/BodiAli/blog-api/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// withTimeout bounds one data-store round trip (or one transaction).
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, database.QueryTimeout())
}

// translateError maps storage errors onto the AppError taxonomy. resource names
// the entity used in the not-found message.
func translateError(err error, resource string) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), pgconn.Timeout(err):
		return models.NewUnavailableError(err)
	case isUniqueViolation(err):
		return models.NewConflictError(resource+" already exists", err)
	default:
		return models.NewInternalError(err)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
