package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestRecordLikeToggle(t *testing.T) {
	liked := testutil.ToFloat64(LikeToggles.WithLabelValues("post", "liked"))
	unliked := testutil.ToFloat64(LikeToggles.WithLabelValues("comment", "unliked"))
	failed := testutil.ToFloat64(LikeToggles.WithLabelValues("post", "error"))

	RecordLikeToggle("post", true, nil)
	RecordLikeToggle("comment", false, nil)
	RecordLikeToggle("post", true, errors.New("down"))

	assert.Equal(t, liked+1, testutil.ToFloat64(LikeToggles.WithLabelValues("post", "liked")))
	assert.Equal(t, unliked+1, testutil.ToFloat64(LikeToggles.WithLabelValues("comment", "unliked")))
	assert.Equal(t, failed+1, testutil.ToFloat64(LikeToggles.WithLabelValues("post", "error")))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	span, ctx := StartSpan(context.Background(), "test.span", attribute.String("k", "v"))
	assert.NotNil(t, ctx)
	assert.Empty(t, span.TraceID())
	span.Finish(errors.New("recorded"))
}
