package storage

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/testutil"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalImageStore_UploadAndDelete(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalImageStore(dir, "http://cdn.test/uploads/")
	ctx := context.Background()

	up, err := store.Upload(ctx, testutil.TinyPNG(t, 4, 3))
	require.NoError(t, err)
	assert.NotEmpty(t, up.AssetID)
	assert.Equal(t, "http://cdn.test/uploads/"+up.AssetID+".webp", up.URL)

	raw, err := os.ReadFile(filepath.Join(dir, up.AssetID+".webp"))
	require.NoError(t, err)
	cfg, err := webp.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Width)
	assert.Equal(t, 3, cfg.Height)

	require.NoError(t, store.Delete(ctx, up.AssetID))
	_, err = os.Stat(filepath.Join(dir, up.AssetID+".webp"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, up.AssetID), "deleting twice is fine")
}

func TestLocalImageStore_RejectsNonImage(t *testing.T) {
	store := NewLocalImageStore(t.TempDir(), "")
	_, err := store.Upload(context.Background(), []byte("not an image"))
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestLocalImageStore_DeleteRejectsPathLikeIDs(t *testing.T) {
	store := NewLocalImageStore(t.TempDir(), "")
	err := store.Delete(context.Background(), "../../etc/passwd")
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestLocalImageStore_CancelledContext(t *testing.T) {
	store := NewLocalImageStore(t.TempDir(), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Upload(ctx, testutil.TinyPNG(t, 2, 2))
	assert.True(t, models.IsCode(err, models.CodeUnavailable))
}

func TestResizeToFit(t *testing.T) {
	big := image.NewRGBA(image.Rect(0, 0, 4096, 1024))
	out := resizeToFit(big, MaxDimension)
	assert.Equal(t, 2048, out.Bounds().Dx())
	assert.Equal(t, 512, out.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, small, resizeToFit(small, MaxDimension))
}
