package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

// Pool is an alias for pgxpool.Pool
type Pool = pgxpool.Pool

// One operator drives the store, so a handful of connections is plenty.
const maxPostgresConns = 4

// NewPool creates a PostgreSQL connection pool that is pinged on start and closed on stop
func NewPool(lc fx.Lifecycle, logger *zap.Logger, databaseURL string) (*pgxpool.Pool, error) {
	logger.Info("initializing postgres connection pool", zap.String("url", maskPassword(databaseURL)))

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("[DATABASE] failed to parse database URL: %w", err)
	}
	config.MaxConns = maxPostgresConns

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("[DATABASE] failed to create connection pool: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				logger.Error("postgres ping failed", zap.Error(err))
				return fmt.Errorf("[DATABASE CONNECTION FAILED] cannot reach %s. Check that the server is running and DATABASE_URL is correct: %w", maskPassword(databaseURL), err)
			}
			logger.Info("postgres connection established")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			pool.Close()
			logger.Info("postgres connection pool closed")
			return nil
		},
	})

	return pool, nil
}

// OpenSQLite opens (creating if needed) the SQLite database file at path.
// The handle is closed when the fx application stops.
func OpenSQLite(lc fx.Lifecycle, logger *zap.Logger, path string) (*sql.DB, error) {
	conn, err := OpenSQLiteFile(path)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := conn.PingContext(ctx); err != nil {
				logger.Error("sqlite ping failed", zap.Error(err), zap.String("path", path))
				return fmt.Errorf("[DATABASE] cannot open %s: %w", path, err)
			}
			logger.Info("sqlite database opened", zap.String("path", path))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := conn.Close(); err != nil {
				logger.Error("failed to close sqlite database", zap.Error(err))
				return err
			}
			logger.Info("sqlite database closed")
			return nil
		},
	})

	return conn, nil
}

// OpenSQLiteFile opens the SQLite file without lifecycle management
func OpenSQLiteFile(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("[DATABASE] failed to create directory for %s: %w", path, err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("[DATABASE] failed to open sqlite database: %w", err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY between our own statements.
	conn.SetMaxOpenConns(1)

	return conn, nil
}

// maskPassword masks the password in a database URL for logging
func maskPassword(raw string) string {
	if len(raw) == 0 {
		return "<empty>"
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	return u.Scheme + "://" + u.User.Username() + ":***@" + u.Host + u.RequestURI()
}
