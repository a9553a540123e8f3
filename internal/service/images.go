package service

import (
	"context"
	"log/slog"

	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/storage"
)

// ImageStore hosts uploaded images.
type ImageStore interface {
	Upload(ctx context.Context, data []byte) (storage.UploadedImage, error)
	Delete(ctx context.Context, assetID string) error
}

// ImageUpload is a file received with a request.
type ImageUpload struct {
	Field string
	Data  []byte
}

// discardImage deletes an asset whose owning write failed or was superseded.
// Failures only leave an unreferenced file behind, so they are logged.
func discardImage(ctx context.Context, images ImageStore, assetID string) {
	if assetID == "" || images == nil {
		return
	}
	if err := images.Delete(ctx, assetID); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to delete image asset",
			slog.String("asset_id", assetID),
			slog.String("error", err.Error()),
		)
	}
}
