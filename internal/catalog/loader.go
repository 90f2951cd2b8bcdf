// internal/catalog/loader.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"catalog-lookup-workers/internal/common/config"
	"catalog-lookup-workers/internal/common/logger"
	"catalog-lookup-workers/internal/common/metrics"
	"catalog-lookup-workers/internal/models"
)

const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

const utf8BOM = "\ufeff"

// LoadProductsCSV reads a headerless (product_type, product_code) CSV file.
// Rows with a blank product type or fewer than two columns are skipped.
func LoadProductsCSV(path string) ([]models.ProductEntry, LoadReport, error) {
	pairs, report, err := readPairs(path)
	if err != nil {
		return nil, report, loadErr("product catalog "+path, err)
	}
	products := make([]models.ProductEntry, 0, len(pairs))
	for _, p := range pairs {
		products = append(products, models.ProductEntry{ProductType: p[0], ProductCode: p[1]})
	}
	return products, report, nil
}

// LoadCategoriesCSV reads a headerless (category_path, code) CSV file.
func LoadCategoriesCSV(path string) ([]models.CategoryEntry, LoadReport, error) {
	pairs, report, err := readPairs(path)
	if err != nil {
		return nil, report, loadErr("category tree "+path, err)
	}
	categories := make([]models.CategoryEntry, 0, len(pairs))
	for _, p := range pairs {
		categories = append(categories, models.CategoryEntry{CategoryPath: p[0], Code: p[1]})
	}
	return categories, report, nil
}

func readPairs(path string) ([][2]string, LoadReport, error) {
	report := LoadReport{Source: path}

	f, err := os.Open(path)
	if err != nil {
		return nil, report, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var pairs [][2]string
	first := true
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("parse %s: %w", path, err)
		}
		if first && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], utf8BOM)
			first = false
		}

		pair, ok := normalizePair(record)
		if !ok {
			report.Skipped++
			continue
		}
		pairs = append(pairs, pair)
	}
	report.Rows = len(pairs)
	return pairs, report, nil
}

func normalizePair(record []string) ([2]string, bool) {
	if len(record) < 2 {
		return [2]string{}, false
	}
	label := strings.TrimSpace(record[0])
	if label == "" {
		return [2]string{}, false
	}
	return [2]string{label, strings.TrimSpace(record[1])}, true
}

// LoadDataset builds the Dataset from the configured reference source. db is
// only used when the source is postgres.
//
// Products and categories load independently. The returned Dataset is never
// nil: a table that failed is left empty and carries its error, and the
// joined table errors are returned so the caller can report them.
func LoadDataset(ctx context.Context, cfg config.ReferenceConfig, db *sql.DB, log logger.Logger) (*Dataset, error) {
	var (
		products      []models.ProductEntry
		categories    []models.CategoryEntry
		productsErr   error
		categoriesErr error
		reports       [2]LoadReport
	)

	switch cfg.Source {
	case "", SourceFile:
		products, reports[0], productsErr = LoadProductsCSV(cfg.ProductsPath)
		categories, reports[1], categoriesErr = LoadCategoriesCSV(cfg.CategoriesPath)
	case SourcePostgres:
		if db == nil {
			productsErr = loadErr("product catalog", errNoDatabase)
			categoriesErr = loadErr("category tree", errNoDatabase)
			break
		}
		src := NewPostgresSource(db)
		products, reports[0], productsErr = src.Products(ctx)
		categories, reports[1], categoriesErr = src.Categories(ctx)
	default:
		unsupported := fmt.Errorf("unsupported source %q", cfg.Source)
		productsErr = loadErr("product catalog", unsupported)
		categoriesErr = loadErr("category tree", unsupported)
	}

	for i, err := range []error{productsErr, categoriesErr} {
		if err != nil {
			log.WithError(err).Error("reference table unavailable", map[string]interface{}{
				"dataset": datasetNames[i],
			})
			continue
		}
		r := reports[i]
		fields := map[string]interface{}{
			"dataset": datasetNames[i],
			"source":  r.Source,
			"rows":    r.Rows,
			"skipped": r.Skipped,
		}
		if r.Skipped > 0 {
			log.Warn("reference rows skipped", fields)
		} else {
			log.Info("reference table loaded", fields)
		}
	}

	metrics.ReferenceRows.WithLabelValues(datasetNames[0]).Set(float64(len(products)))
	metrics.ReferenceRows.WithLabelValues(datasetNames[1]).Set(float64(len(categories)))

	ds := NewDataset(products, categories)
	ds.productsErr = productsErr
	ds.categoriesErr = categoriesErr
	return ds, errors.Join(productsErr, categoriesErr)
}

var (
	errNoDatabase = errors.New("postgres source selected without a database connection")
	datasetNames  = [2]string{"products", "categories"}
)
