package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"musiclist/internal/config"
	"musiclist/internal/logging"
	"musiclist/internal/migrations"
	"musiclist/internal/store"
	"musiclist/internal/store/memory"
)

// backend is the persistence layer shared by every service.
type backend interface {
	store.Transactor
	Ping(ctx context.Context) error
}

// openBackend selects the store named by cfg.Storage. Postgres schemas are
// migrated before the store is returned.
func openBackend(ctx context.Context, cfg *config.Config) (backend, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logging.Info("using in-memory storage; data is lost on exit")
		return memory.New(), func() {}, nil
	}

	db, err := openDatabase(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Init(cfg.Database.Driver, cfg.Database.URL, false); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store.New(db), func() { _ = db.Close() }, nil
}

// openDatabase establishes a database connection and retries until the instance responds.
func openDatabase(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	const (
		pingTimeout    = 5 * time.Second
		maxWait        = 30 * time.Second
		initialBackoff = 500 * time.Millisecond
		maxBackoff     = 5 * time.Second
	)

	deadline := time.Now().Add(maxWait)
	backoff := initialBackoff
	var lastErr error

	for {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()

		if lastErr == nil {
			return db, nil
		}
		if ctx.Err() != nil || time.Now().After(deadline) {
			break
		}

		logging.WithContext(ctx).Warn().Err(lastErr).Dur("retry_in", backoff).Msg("database not ready")
		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("ping database: %w", lastErr)
}
