// Package db opens the PostgreSQL connection and applies the embedded schema
// migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"codesage/api/internal/db/migrations"
	"codesage/api/internal/logging"
)

const defaultRetryBase = time.Second

type Options struct {
	// Attempts is the total number of connection attempts, including the
	// first one. Values below 1 are treated as 1.
	Attempts  int
	RetryBase time.Duration
	Logger    logging.Logger
}

// Open creates a pgx-backed *sql.DB and waits until the server answers a
// ping, backing off exponentially between attempts.
func Open(ctx context.Context, dsn string, opts Options) (*sql.DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := waitReady(ctx, conn, opts); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func waitReady(ctx context.Context, conn *sql.DB, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = logging.Nop{}
	}
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}
	base := opts.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := conn.PingContext(ctx); err != nil {
			log.Warn(ctx, "database not reachable", "attempt", attempt, "max_attempts", attempts, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("db connect failed after %d attempts: %w", attempt, err)
	}
	log.Info(ctx, "database connected", "attempts", attempt)
	return nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}
