package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-lookup-workers/internal/common/logger"
)

func countingLoader(store *TemplateStore) *int32 {
	var calls int32
	load := store.load
	store.load = func(path string) (*TemplateDocument, error) {
		atomic.AddInt32(&calls, 1)
		return load(path)
	}
	return &calls
}

func TestTemplateStoreCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specs.xlsx")
	writeWorkbook(t, path, sampleSheets("Red"))

	store := NewTemplateStore(path, true, logger.NewTestLogger(t))
	t.Cleanup(func() { _ = store.Close() })
	calls := countingLoader(store)

	ctx := context.Background()
	first, err := store.Document(ctx)
	require.NoError(t, err)
	second, err := store.Document(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))

	store.Invalidate()
	_, err = store.Document(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestTemplateStoreWithoutCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specs.xlsx")
	writeWorkbook(t, path, sampleSheets("Red"))

	store := NewTemplateStore(path, false, logger.NewNoOpLogger())
	t.Cleanup(func() { _ = store.Close() })
	calls := countingLoader(store)

	for i := 0; i < 3; i++ {
		_, err := store.Document(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestTemplateStoreReloadsAfterRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specs.xlsx")
	writeWorkbook(t, path, sampleSheets("Red"))

	store := NewTemplateStore(path, true, logger.NewNoOpLogger())
	t.Cleanup(func() { _ = store.Close() })

	resolver := NewResolver(store)
	ctx := context.Background()

	specs, err := resolver.Resolve(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, []string{"Red", "Blue"}, specs[0].AllowedValueNames)

	writeWorkbook(t, path, sampleSheets("Green"))

	assert.Eventually(t, func() bool {
		specs, err := resolver.Resolve(ctx, "A1")
		if err != nil || len(specs) != 1 {
			return false
		}
		names := specs[0].AllowedValueNames
		return len(names) == 2 && names[0] == "Green"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestTemplateStoreLoadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.xlsx")

	store := NewTemplateStore(path, true, logger.NewNoOpLogger())
	t.Cleanup(func() { _ = store.Close() })

	_, err := store.Document(context.Background())
	assert.ErrorIs(t, err, ErrReferenceLoad)

	writeWorkbook(t, path, sampleSheets("Red"))
	assert.Eventually(t, func() bool {
		doc, err := store.Document(context.Background())
		return err == nil && len(doc.Rows) == 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestTemplateStoreCancelledContext(t *testing.T) {
	store := NewTemplateStore(filepath.Join(t.TempDir(), "specs.xlsx"), false, logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Document(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTemplateStoreConcurrentReaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specs.xlsx")
	writeWorkbook(t, path, sampleSheets("Red"))

	store := NewTemplateStore(path, true, logger.NewNoOpLogger())
	t.Cleanup(func() { _ = store.Close() })
	calls := countingLoader(store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := store.Document(context.Background())
			assert.NoError(t, err)
			assert.Len(t, doc.Rows, 2)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}
