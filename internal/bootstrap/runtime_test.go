package bootstrap

import (
	"context"
	"testing"

	"github.com/BodiAli/blog-api/internal/models"
	"github.com/BodiAli/blog-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIfEmpty(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	require.NoError(t, seedIfEmpty(ctx, db))
	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Positive(t, users)

	// A populated database is left alone.
	require.NoError(t, seedIfEmpty(ctx, db))
	var again int64
	require.NoError(t, db.Model(&models.User{}).Count(&again).Error)
	assert.Equal(t, users, again)
}
