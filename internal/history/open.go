package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	// URL selects Postgres when set; empty falls back to sqlite.
	URL string
	// Path is the sqlite file location.
	Path string
	// DialTimeout bounds the Postgres connection attempt.
	DialTimeout time.Duration
}

// Open picks the backend from cfg and returns a ready store with the schema
// in place.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL != "" {
		return OpenPostgres(ctx, cfg.URL, cfg.DialTimeout, logger)
	}
	return OpenSQLite(ctx, cfg.Path, logger)
}

// OpenSQLite opens (or creates) the sqlite history file in WAL mode. A
// single connection avoids SQLITE_BUSY under the single-process server.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (Store, error) {
	if path == "" {
		path = "markup-history.db"
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir history dir: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqlStore{db: db, log: logger}
	if err := st.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("history store ready", "driver", "sqlite", "path", path)
	return st, nil
}

// OpenPostgres connects a pgx pool and wraps it for database/sql.
func OpenPostgres(ctx context.Context, url string, dialTimeout time.Duration, logger *slog.Logger) (Store, error) {
	pc, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse history db url: %w", err)
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "pdf-markup"

	if dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to history db", "error", err)
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	st := &sqlStore{db: db, log: logger, bindDollar: true}
	if err := st.init(ctx); err != nil {
		_ = db.Close()
		pool.Close()
		return nil, err
	}
	logger.Info("history store ready", "driver", "postgres")
	return st, nil
}
