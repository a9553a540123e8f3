// Package storage holds the image store used for post and profile images.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir = "/tmp/blog-api/uploads"
	DefaultBaseURL   = "/uploads"
	MaxDimension     = 2048
	WebPQuality      = 75
)

// UploadedImage is where a stored image can be fetched and how to delete it.
type UploadedImage struct {
	URL     string
	AssetID string
}

// LocalImageStore keeps images on local disk, re-encoded as WebP and capped at
// MaxDimension on the longest side.
type LocalImageStore struct {
	dir     string
	baseURL string
}

// NewLocalImageStore creates a store writing under dir and serving from baseURL.
func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultUploadDir
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &LocalImageStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Dir is the directory images are written to.
func (s *LocalImageStore) Dir() string {
	return s.dir
}

// Upload decodes data, normalises it to WebP and writes it under a new asset id.
func (s *LocalImageStore) Upload(ctx context.Context, data []byte) (UploadedImage, error) {
	img, err := s.encode(data)
	if err != nil {
		observability.ImageUploads.WithLabelValues("rejected").Inc()
		return UploadedImage{}, err
	}
	if err := ctx.Err(); err != nil {
		observability.ImageUploads.WithLabelValues("error").Inc()
		return UploadedImage{}, models.NewUnavailableError(err)
	}

	assetID := uuid.NewString()
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		observability.ImageUploads.WithLabelValues("error").Inc()
		return UploadedImage{}, models.NewUnavailableError(fmt.Errorf("create upload dir: %w", err))
	}
	if err := os.WriteFile(s.path(assetID), img, 0o600); err != nil {
		observability.ImageUploads.WithLabelValues("error").Inc()
		return UploadedImage{}, models.NewUnavailableError(fmt.Errorf("write image: %w", err))
	}

	observability.ImageUploads.WithLabelValues("stored").Inc()
	return UploadedImage{URL: s.URL(assetID), AssetID: assetID}, nil
}

// Delete removes an asset. Deleting an asset that is already gone succeeds.
func (s *LocalImageStore) Delete(ctx context.Context, assetID string) error {
	if _, err := uuid.Parse(assetID); err != nil {
		return models.NewValidationError("Invalid image asset id")
	}
	if err := os.Remove(s.path(assetID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		middleware.Logger.WarnContext(ctx, "image delete failed", slog.String("asset_id", assetID), slog.String("error", err.Error()))
		return models.NewUnavailableError(err)
	}
	return nil
}

// URL is the public location of an asset.
func (s *LocalImageStore) URL(assetID string) string {
	return fmt.Sprintf("%s/%s.webp", s.baseURL, assetID)
}

func (s *LocalImageStore) path(assetID string) string {
	return filepath.Join(s.dir, assetID+".webp")
}

func (s *LocalImageStore) encode(data []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewValidationError("File uploaded is not of type image.")
	}

	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, resizeToFit(decoded, MaxDimension), &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("encode webp: %w", err))
	}
	return buf.Bytes(), nil
}

func resizeToFit(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return src
	}

	scale := float64(maxSide) / float64(max(w, h))
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
