package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"

	"catalog-lookup-workers/internal/common/logger"
)

func TestObservabilityRecords(t *testing.T) {
	o := New("catalog-lookup-test", logger.NewTestLogger(t))
	t.Cleanup(o.Shutdown)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "search-products", "completed")
		o.RecordJobDuration(ctx, "search-products", 12*time.Millisecond, "completed")
	})
}

func TestNoopObservability(t *testing.T) {
	o := NewNoop()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "resolve-item-specs", "failed")
		o.RecordJobDuration(ctx, "resolve-item-specs", time.Millisecond, "failed")
		o.Shutdown()
	})
}

func TestSpans(t *testing.T) {
	o := NewNoop()

	spanCtx, span := o.StartSpan(context.Background(), "search-categories",
		attribute.String("strategy", "combined"))
	assert.NotNil(t, spanCtx)

	assert.NotPanics(t, func() { EndSpan(span, errors.New("boom")) })

	_, span = o.StartSpan(context.Background(), "search-categories")
	assert.NotPanics(t, func() { EndSpan(span, nil) })
}
