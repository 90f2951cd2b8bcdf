// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"catalog-lookup-workers/internal/catalog"
	"catalog-lookup-workers/internal/common/camunda"
	"catalog-lookup-workers/internal/common/config"
	"catalog-lookup-workers/internal/common/logger"
	"catalog-lookup-workers/internal/models"

	resolveitemspecs "catalog-lookup-workers/internal/workers/lookup/resolve-item-specs"
	searchcategories "catalog-lookup-workers/internal/workers/lookup/search-categories"
	searchproducts "catalog-lookup-workers/internal/workers/lookup/search-products"
)

// ==========================
// Fixtures
// ==========================

const productsCSV = "\ufeffGarden Hose,P100\nPaint Stripper,P200\nFaucet Connector,P300\nCordless Drill,P400\n,P999\n"

const categoriesCSV = `Outdoor > Garden Hoses,GH01
Outdoor > Garden Hose Reels,GH02
Decorating > Paint Strippers,PS01
Plumbing > Faucet Connectors,FC01
`

func writeReferenceData(t *testing.T) config.ReferenceConfig {
	t.Helper()
	dir := t.TempDir()
	ref := config.ReferenceConfig{
		Source:         catalog.SourceFile,
		ProductsPath:   filepath.Join(dir, "products.csv"),
		CategoriesPath: filepath.Join(dir, "categories.csv"),
		SpecsPath:      filepath.Join(dir, "item_specs.xlsx"),
		CacheTemplates: true,
	}
	require.NoError(t, os.WriteFile(ref.ProductsPath, []byte(productsCSV), 0o644))
	require.NoError(t, os.WriteFile(ref.CategoriesPath, []byte(categoriesCSV), 0o644))

	f := excelize.NewFile()
	defer f.Close()
	sheets := map[string][][]interface{}{
		catalog.TemplateSheet: {
			{catalog.ColDisplayName, catalog.ColCategory, catalog.ColRequirementLevel,
				catalog.ColDataType, catalog.ColDescription, catalog.ColAllowedValues},
			{"Hose Length", "GH01|^|GH02", "Required", "Decimal", "Length in metres", ""},
			{"Hose Material", "GH01", "Optional", "String", "Outer material", "See sheet for MATERIAL Allowed Values"},
			{"Thread Size", "FC01", "Required", "String", "", ""},
		},
		catalog.AllowedValuesSheet: {
			{catalog.ColGroupID, catalog.ColValueName},
			{"MATERIAL_HOSE", "PVC"},
			{"MATERIAL_HOSE", "Rubber"},
			{"THREAD", "3/4 inch"},
		},
	}
	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i := range rows {
			cellRef, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cellRef, &rows[i]))
		}
	}
	require.NoError(t, f.SaveAs(ref.SpecsPath))
	return ref
}

type lookupStack struct {
	products   *searchproducts.Handler
	categories *searchcategories.Handler
	specs      *resolveitemspecs.Handler
}

func newLookupStack(t *testing.T, ref config.ReferenceConfig, rdb *redis.Client) lookupStack {
	t.Helper()
	log := logger.NewTestLogger(t)

	dataset, err := catalog.LoadDataset(context.Background(), ref, nil, log)
	require.NoError(t, err)

	store := catalog.NewTemplateStore(ref.SpecsPath, ref.CacheTemplates, log)
	t.Cleanup(func() { store.Close() })

	return lookupStack{
		products:   searchproducts.NewHandler(searchproducts.DefaultConfig(), dataset, rdb, log),
		categories: searchcategories.NewHandler(searchcategories.DefaultConfig(), dataset, rdb, log),
		specs:      resolveitemspecs.NewHandler(resolveitemspecs.DefaultConfig(), store, log),
	}
}

// ==========================
// Lookup Flow
// ==========================

func TestLookupFlow(t *testing.T) {
	ref := writeReferenceData(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	stack := newLookupStack(t, ref, rdb)
	ctx := context.Background()

	// 1. free-text product search, synonym expanded
	products, err := stack.products.Execute(ctx, &searchproducts.Input{Query: "hose pipe"})
	require.NoError(t, err)
	require.NotEmpty(t, products.Results)
	assert.Equal(t, "P100", products.Results[0].Code)
	assert.Equal(t, 4, products.Count, "blank product row is skipped at load")

	// 2. category search for the chosen product type
	selected := products.Results[0].Label
	categories, err := stack.categories.Execute(ctx, &searchcategories.Input{SelectedName: selected})
	require.NoError(t, err)
	assert.True(t, categories.ExactMatch)
	require.Len(t, categories.Results, 2)
	codes := []string{categories.Results[0].Code, categories.Results[1].Code}
	assert.ElementsMatch(t, []string{"GH01", "GH02"}, codes)

	// 3. item specs for the chosen category
	specs, err := stack.specs.Execute(ctx, &resolveitemspecs.Input{CategoryCode: "GH01"})
	require.NoError(t, err)
	require.Equal(t, 2, specs.Count)
	assert.Equal(t, "Hose Length", specs.Specs[0].DisplayName)
	assert.Empty(t, specs.Specs[0].AllowedValueNames)
	assert.Equal(t, "Hose Material", specs.Specs[1].DisplayName)
	assert.Equal(t, []string{"PVC", "Rubber"}, specs.Specs[1].AllowedValueNames)

	// repeated searches are served from the result cache
	again, err := stack.products.Execute(ctx, &searchproducts.Input{Query: "hose pipe"})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, products.Results, again.Results)
}

func TestLookupFlowWithoutCache(t *testing.T) {
	ref := writeReferenceData(t)
	stack := newLookupStack(t, ref, nil)
	ctx := context.Background()

	first, err := stack.categories.Execute(ctx, &searchcategories.Input{SelectedName: "tap connector", Strategy: "token"})
	require.NoError(t, err)
	second, err := stack.categories.Execute(ctx, &searchcategories.Input{SelectedName: "tap connector", Strategy: "token"})
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.False(t, second.Cached)
	assert.Equal(t, first.Results, second.Results)
}

func TestSpecsReloadAfterWorkbookChange(t *testing.T) {
	ref := writeReferenceData(t)
	stack := newLookupStack(t, ref, nil)
	ctx := context.Background()

	before, err := stack.specs.Execute(ctx, &resolveitemspecs.Input{CategoryCode: "PS01"})
	require.NoError(t, err)
	assert.Equal(t, 0, before.Count)

	f, err := excelize.OpenFile(ref.SpecsPath)
	require.NoError(t, err)
	row := []interface{}{"Volume", "PS01", "Required", "Decimal", "Litres", ""}
	require.NoError(t, f.SetSheetRow(catalog.TemplateSheet, "A5", &row))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	assert.Eventually(t, func() bool {
		after, err := stack.specs.Execute(ctx, &resolveitemspecs.Input{CategoryCode: "PS01"})
		return err == nil && after.Count == 1
	}, 5*time.Second, 50*time.Millisecond)
}

// ==========================
// Live Gateway
// ==========================

// TestZeebeGateway runs only when E2E_ZEEBE_ADDRESS points at a gateway.
func TestZeebeGateway(t *testing.T) {
	addr := os.Getenv("E2E_ZEEBE_ADDRESS")
	if addr == "" {
		t.Skip("E2E_ZEEBE_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         addr,
		UsePlaintextConnection: true,
		RetryConfig:            &camunda.RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second},
	}, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, camunda.HealthCheck(ctx, client))
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkHandler_SearchProducts(b *testing.B) {
	dataset := catalog.NewDataset([]models.ProductEntry{
		{ProductType: "Garden Hose", ProductCode: "P100"},
		{ProductType: "Paint Stripper", ProductCode: "P200"},
		{ProductType: "Faucet Connector", ProductCode: "P300"},
		{ProductType: "Cordless Drill", ProductCode: "P400"},
	}, nil)
	handler := searchproducts.NewHandler(searchproducts.DefaultConfig(), dataset, nil, logger.NewNoOpLogger())
	input := &searchproducts.Input{Query: "garden hose"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = handler.Execute(context.Background(), input)
	}
}
