package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-lookup-workers/internal/common/config"
	"catalog-lookup-workers/internal/common/fuzzy"
	"catalog-lookup-workers/internal/common/logger"
	"catalog-lookup-workers/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProductsCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "products.csv",
		"\ufeffGarden Hose,P1\n"+
			" ,P9\n"+
			"Orphan\n"+
			"\"Paint Stripper, Gel \", P2 \n"+
			"Faucet Connector,P3,extra\n")

	products, report, err := LoadProductsCSV(path)
	require.NoError(t, err)

	assert.Equal(t, []models.ProductEntry{
		{ProductType: "Garden Hose", ProductCode: "P1"},
		{ProductType: "Paint Stripper, Gel", ProductCode: "P2"},
		{ProductType: "Faucet Connector", ProductCode: "P3"},
	}, products)
	assert.Equal(t, LoadReport{Source: path, Rows: 3, Skipped: 2}, report)
}

func TestLoadCategoriesCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "categories.csv",
		"Tools > Garden > Hoses,C1\n"+
			"Tools > Paint > Removers,C2\n")

	categories, report, err := LoadCategoriesCSV(path)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
	assert.Equal(t, "C2", categories[1].Code)
	assert.Equal(t, 0, report.Skipped)
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, _, err := LoadProductsCSV(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, ErrReferenceLoad)

	_, _, err = LoadCategoriesCSV(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, ErrReferenceLoad)
}

func TestLoadDatasetFromFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := config.ReferenceConfig{
		Source:         SourceFile,
		ProductsPath:   writeFile(t, dir, "products.csv", "Garden Hose,P1\nPaint Stripper,P2\n,P3\n"),
		CategoriesPath: writeFile(t, dir, "categories.csv", "Tools > Garden > Hoses,C1\n"),
	}

	ds, err := LoadDataset(context.Background(), cfg, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.ProductCount())
	assert.Equal(t, 1, ds.CategoryCount())

	results := ds.MatchProducts("hose", 1, fuzzy.Partial)
	require.Len(t, results, 1)
	assert.Equal(t, "P1", results[0].Code)
}

func TestLoadDatasetErrors(t *testing.T) {
	dir := t.TempDir()
	products := writeFile(t, dir, "products.csv", "Garden Hose,P1\n")

	tests := []struct {
		name              string
		cfg               config.ReferenceConfig
		wantProductsErr   bool
		wantCategoriesErr bool
	}{
		{
			name:              "missing categories file",
			cfg:               config.ReferenceConfig{Source: SourceFile, ProductsPath: products, CategoriesPath: filepath.Join(dir, "absent.csv")},
			wantCategoriesErr: true,
		},
		{
			name:              "postgres without connection",
			cfg:               config.ReferenceConfig{Source: SourcePostgres},
			wantProductsErr:   true,
			wantCategoriesErr: true,
		},
		{
			name:              "unsupported source",
			cfg:               config.ReferenceConfig{Source: "s3"},
			wantProductsErr:   true,
			wantCategoriesErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := LoadDataset(context.Background(), tt.cfg, nil, logger.NewNoOpLogger())
			assert.ErrorIs(t, err, ErrReferenceLoad)
			require.NotNil(t, ds)

			if tt.wantProductsErr {
				assert.ErrorIs(t, ds.ProductsErr(), ErrReferenceLoad)
			} else {
				assert.NoError(t, ds.ProductsErr())
			}
			if tt.wantCategoriesErr {
				assert.ErrorIs(t, ds.CategoriesErr(), ErrReferenceLoad)
			} else {
				assert.NoError(t, ds.CategoriesErr())
			}
		})
	}
}

func TestLoadDatasetKeepsHealthyTable(t *testing.T) {
	dir := t.TempDir()
	cfg := config.ReferenceConfig{
		Source:         SourceFile,
		ProductsPath:   filepath.Join(dir, "absent.csv"),
		CategoriesPath: writeFile(t, dir, "categories.csv", "Tools > Garden > Hoses,C1\n"),
	}

	ds, err := LoadDataset(context.Background(), cfg, nil, logger.NewTestLogger(t))
	assert.ErrorIs(t, err, ErrReferenceLoad)
	assert.ErrorIs(t, ds.ProductsErr(), ErrReferenceLoad)
	assert.NoError(t, ds.CategoriesErr())
	assert.Equal(t, 0, ds.ProductCount())

	ranking := ds.RankCategories("hoses", 5, fuzzy.Combined)
	require.Len(t, ranking.Results, 1)
	assert.Equal(t, "C1", ranking.Results[0].Code)
}

func TestLoadDatasetSampleData(t *testing.T) {
	cfg := config.ReferenceConfig{
		Source:         SourceFile,
		ProductsPath:   filepath.Join("..", "..", "data", "products.csv"),
		CategoriesPath: filepath.Join("..", "..", "data", "categories.csv"),
	}

	ds, err := LoadDataset(context.Background(), cfg, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Positive(t, ds.ProductCount())
	assert.Positive(t, ds.CategoryCount())
}
