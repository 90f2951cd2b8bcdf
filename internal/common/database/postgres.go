package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-lookup-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient holds the connection pool used when the product catalog and
// category tree are served from Postgres instead of CSV files.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// GetDB returns the pool, or nil for a nil PostgresClient.
func (c *PostgresClient) GetDB() *sql.DB {
	if c == nil {
		return nil
	}
	return c.DB
}
