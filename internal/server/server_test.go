package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BodiAli/blog-api/internal/config"
	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/storage"
	"github.com/BodiAli/blog-api/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// MockImageStore is a mock of service.ImageStore.
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Upload(ctx context.Context, data []byte) (storage.UploadedImage, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(storage.UploadedImage), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, assetID string) error {
	return m.Called(ctx, assetID).Error(0)
}

type testServer struct {
	*Server
	images *MockImageStore
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		JWTSecret:            testSecret,
		JWTTTLHours:          1,
		Env:                  "test",
		PostsPageSize:        7,
		ImageMaxUploadSizeMB: 3,
		ImageBaseURL:         "/uploads",
		ImageUploadDir:       t.TempDir(),
		AllowedOrigins:       "http://localhost:5173",
	}
}

func newTestServer(t *testing.T, rdb *redis.Client) *testServer {
	t.Helper()
	images := &MockImageStore{}
	srv, err := NewServerWithDeps(testConfig(t), testutil.NewDB(t), rdb, images)
	require.NoError(t, err)
	t.Cleanup(func() { images.AssertExpectations(t) })
	return &testServer{Server: srv, images: images}
}

func (s *testServer) tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := s.identity.Issue(u.ID)
	require.NoError(t, err)
	return middleware.BearerPrefix + token
}

// do sends a request with an optional JSON body and returns status and decoded body.
func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) doMultipart(t *testing.T, method, path, token string, fields map[string][]string, fileField string, file []byte) (int, map[string]any) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, "upload.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (int, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestNewServerWithDeps_RequiresDB(t *testing.T) {
	_, err := NewServerWithDeps(testConfig(t), nil, nil, nil)
	assert.Error(t, err)
}

func TestHealthChecks(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", body["status"])

	status, body = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status, "missing redis does not fail readiness")
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodGet, "/health/live", "", nil)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"commentId", "comment ID"},
		{"postCommentId", "post comment ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func TestRespondError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", models.NewValidationError("bad"), http.StatusBadRequest},
		{"unauthorized", models.NewUnauthorizedError("who"), http.StatusUnauthorized},
		{"forbidden", models.NewForbiddenError("no"), http.StatusForbidden},
		{"not found", models.NewNotFoundError("Post"), http.StatusNotFound},
		{"conflict", models.NewConflictError("dup", nil), http.StatusConflict},
		{"unavailable", models.NewUnavailableError(context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return respondError(c, tt.err) })
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)

			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
			assert.NotContains(t, body.Error, "boom", "internal details are not leaked")
		})
	}
}

func TestRespondError_FieldErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, models.NewFieldValidationError([]models.FieldError{
			{Type: "field", Value: "", Msg: "Title can not be empty.", Path: "title", Location: "body"},
		}))
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body models.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "title", body.Errors[0].Path)
}

func TestInvalidRouteID(t *testing.T) {
	s := newTestServer(t, nil)
	status, body := s.do(t, http.MethodGet, "/api/posts/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	errs := body["errors"].([]any)
	assert.Equal(t, "Invalid ID.", errs[0].(map[string]any)["msg"])
}

func TestSetupMiddleware_SecurityHeaders(t *testing.T) {
	s := newTestServer(t, nil)
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestSetupMiddleware_ErrorResponsesIncludeCORSHeaders(t *testing.T) {
	s := newTestServer(t, nil)
	origin := "http://localhost:5173"

	req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
	req.Header.Set("Origin", origin)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/posts/1/like", nil)
	preflight.Header.Set("Origin", origin)
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	preflightResp, err := s.App().Test(preflight, -1)
	require.NoError(t, err)
	defer func() { _ = preflightResp.Body.Close() }()
	assert.Equal(t, fiber.StatusNoContent, preflightResp.StatusCode)
	assert.Contains(t, preflightResp.Header.Get("Access-Control-Allow-Methods"), http.MethodPatch)

	other := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	other.Header.Set("Origin", "http://evil.example")
	otherResp, err := s.App().Test(other, -1)
	require.NoError(t, err)
	defer func() { _ = otherResp.Body.Close() }()
	assert.Empty(t, otherResp.Header.Get("Access-Control-Allow-Origin"))
}
