// Package store persists documents, process jobs, and emitted records. It
// speaks plain database/sql so the same queries run against the embedded
// sqlite file in single-host deployments and postgres in shared ones.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/scanwell/consult-intake/internal/common"
)

// Dialect names the SQL flavor behind a DB handle.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB wraps the sql handle with the dialect needed to rebind placeholders.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects using the DSN's scheme to pick the driver, pings within the
// dial timeout, and applies the schema.
func Open(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*DB, error) {
	driver, dialect := driverFor(cfg.DSN)
	logger.Info("connecting to database", "driver", driver)

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, common.NewAppError("DB_OPEN", "failed to open database", err)
	}

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, common.NewAppError("DB_PING", "database is unreachable", err)
	}

	d := &DB{DB: db, Dialect: dialect}
	if err := d.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("successfully connected to database")
	return d, nil
}

func driverFor(dsn string) (driver string, dialect Dialect) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx", DialectPostgres
	}
	return "sqlite", DialectSQLite
}

// rebind rewrites ? placeholders to $1..$n for postgres. Queries in this
// package are written with ? and rebound on the way out.
func (d *DB) rebind(query string) string {
	if d.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close releases the connection pool.
func (d *DB) Close(logger *slog.Logger) {
	logger.Info("closing database connections")
	if err := d.DB.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}
