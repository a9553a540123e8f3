// Package server contains the HTTP handlers for the blog API.
package server

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/service"
	"github.com/BodiAli/blog-api/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

var statusByCode = map[string]int{
	models.CodeValidation:   fiber.StatusBadRequest,
	models.CodeUnauthorized: fiber.StatusUnauthorized,
	models.CodeForbidden:    fiber.StatusForbidden,
	models.CodeNotFound:     fiber.StatusNotFound,
	models.CodeConflict:     fiber.StatusConflict,
	models.CodeUnavailable:  fiber.StatusServiceUnavailable,
	models.CodeInternal:     fiber.StatusInternalServerError,
}

// respondError writes err with the status its code maps to. Field-level
// validation failures use the {errors: [...]} shape, everything else {error, code}.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}
	status, ok := statusByCode[appErr.Code]
	if !ok {
		status = fiber.StatusInternalServerError
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("code", appErr.Code),
			slog.String("error", err.Error()),
		)
	}

	if len(appErr.Fields) > 0 {
		return c.Status(status).JSON(models.ValidationErrorResponse{Errors: appErr.Fields})
	}
	return c.Status(status).JSON(models.ErrorResponse{Error: appErr.Message, Code: appErr.Code})
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		check := validation.NewChecker(validation.LocationParams)
		check.Add(param, c.Params(param), "Invalid "+humanizeParam(param)+".")
		_ = respondError(c, check.Err())
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// isMultipart reports whether the request carries a multipart form.
func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// readImage returns the uploaded file under field, or nil when none was sent.
// At most maxBytes+1 bytes are read so oversized files still fail validation.
func readImage(c *fiber.Ctx, field string, maxBytes int64) (*service.ImageUpload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}

	f, err := files[0].Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &service.ImageUpload{Field: field, Data: data}, nil
}

// formList collects a repeated multipart field, accepting both "name" and
// "name[]" keys.
func formList(c *fiber.Ctx, name string) []string {
	if !isMultipart(c) {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	var values []string
	values = append(values, form.Value[name]...)
	values = append(values, form.Value[name+"[]"]...)
	return values
}

func invalidBody(c *fiber.Ctx) error {
	return respondError(c, models.NewValidationError("Invalid request body"))
}
