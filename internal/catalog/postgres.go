// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"catalog-lookup-workers/internal/models"
)

const (
	productsQuery   = `SELECT product_type, product_code FROM product_catalog ORDER BY id`
	categoriesQuery = `SELECT category_path, code FROM category_tree ORDER BY id`
)

// PostgresSource reads the reference tables from PostgreSQL instead of CSV files.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Products(ctx context.Context) ([]models.ProductEntry, LoadReport, error) {
	pairs, report, err := s.queryPairs(ctx, "product_catalog", productsQuery)
	if err != nil {
		return nil, report, loadErr("product catalog table", err)
	}
	products := make([]models.ProductEntry, 0, len(pairs))
	for _, p := range pairs {
		products = append(products, models.ProductEntry{ProductType: p[0], ProductCode: p[1]})
	}
	return products, report, nil
}

func (s *PostgresSource) Categories(ctx context.Context) ([]models.CategoryEntry, LoadReport, error) {
	pairs, report, err := s.queryPairs(ctx, "category_tree", categoriesQuery)
	if err != nil {
		return nil, report, loadErr("category tree table", err)
	}
	categories := make([]models.CategoryEntry, 0, len(pairs))
	for _, p := range pairs {
		categories = append(categories, models.CategoryEntry{CategoryPath: p[0], Code: p[1]})
	}
	return categories, report, nil
}

func (s *PostgresSource) queryPairs(ctx context.Context, table, query string) ([][2]string, LoadReport, error) {
	report := LoadReport{Source: "postgres:" + table}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, report, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var label, code sql.NullString
		if err := rows.Scan(&label, &code); err != nil {
			return nil, report, fmt.Errorf("scan %s: %w", table, err)
		}
		pair, ok := normalizePair([]string{label.String, code.String})
		if !ok {
			report.Skipped++
			continue
		}
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, report, fmt.Errorf("iterate %s: %w", table, err)
	}

	report.Rows = len(pairs)
	return pairs, report, nil
}
