package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"auth-be/internal/database/migrations"
)

// ConnectOptions bounds the startup ping loop
type ConnectOptions struct {
	MaxRetries  uint64
	BaseBackoff time.Duration
}

// DefaultConnectOptions retries the first ping for roughly 15 seconds
var DefaultConnectOptions = ConnectOptions{
	MaxRetries:  5,
	BaseBackoff: 500 * time.Millisecond,
}

// NewConnection opens a PostgreSQL connection pool and waits until the
// database answers a ping. A database still starting up is retried with
// exponential backoff.
func NewConnection(ctx context.Context, databaseURL string, opts ConnectOptions, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ping(ctx, db, opts, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("connected to database")
	return db, nil
}

func ping(ctx context.Context, db *sql.DB, opts ConnectOptions, logger *slog.Logger) error {
	backoff := retry.WithMaxRetries(opts.MaxRetries, retry.NewExponential(opts.BaseBackoff))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// RunMigrations applies the embedded goose migrations
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database migrations completed")
	return nil
}
