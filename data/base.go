// Package data provides access to the Lute reading database.
package data

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/luteorg/lute-api/config"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

//go:embed schema.sql
var schemaSQL string

// Driver names registered by the imported database packages.
const (
	DriverSQLite = "sqlite3"
	DriverLibsql = "libsql"
)

// Executor is an interface that both *sql.DB and *sql.Tx implement.
// This allows query methods to work with either a direct connection or a transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Database is a pooled connection to the reading database.
// It is safe for concurrent use; handlers share a single instance.
type Database struct {
	Client *sql.DB
	Driver string
}

// Open connects to the database described by cfg and makes sure the reading
// schema exists. A remote libsql database is used when cfg.DBURL is set,
// otherwise a local SQLite file at cfg.DBPath.
func Open(ctx context.Context, cfg config.Config) (*Database, error) {
	if cfg.DBURL != "" {
		dsn := cfg.DBURL
		if cfg.DBToken != "" {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "authToken=" + cfg.DBToken
		}
		return OpenDSN(ctx, DriverLibsql, dsn)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, err
		}
	}
	return OpenDSN(ctx, DriverSQLite, "file:"+cfg.DBPath+"?_foreign_keys=on&_busy_timeout=5000")
}

// OpenDSN connects with an explicit driver and data source name.
func OpenDSN(ctx context.Context, driver, dsn string) (*Database, error) {
	client, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// An in-memory SQLite database lives and dies with its connection.
	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		client.SetMaxOpenConns(1)
	}

	if err := client.PingContext(ctx); err != nil {
		client.Close()
		return nil, err
	}

	db := &Database{Client: client, Driver: driver}
	if err := db.ensureSchema(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

func (db *Database) ensureSchema(ctx context.Context) error {
	_, err := db.Client.ExecContext(ctx, schemaSQL)
	return err
}

// Close closes the connection pool. Call on shutdown.
func (db *Database) Close() error {
	if db == nil || db.Client == nil {
		return nil
	}
	return db.Client.Close()
}

// Ping checks that the database is reachable.
func (db *Database) Ping(ctx context.Context) error {
	if db == nil || db.Client == nil {
		return errors.New("database not initialized")
	}
	return db.Client.PingContext(ctx)
}

// QueryMaps executes a query and returns each row as a map keyed by column name.
// Text comes back as string, integers as int64, reals as float64 and NULL as nil,
// whatever the declared type of the column.
func QueryMaps(ctx context.Context, exec Executor, query string, args ...any) ([]map[string]any, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, LockErr(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []map[string]any{}

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalize(values[i])
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, LockErr(err)
	}

	return results, nil
}

// TimeLayout is the textual form used for timestamps stored by Lute.
const TimeLayout = "2006-01-02 15:04:05"

// normalize irons out driver differences in scanned values.
func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(TimeLayout)
	default:
		return v
	}
}

// QueryInt runs a single-value integer query such as SELECT COUNT(*).
// NULL results scan as zero.
func QueryInt(ctx context.Context, exec Executor, query string, args ...any) (int64, error) {
	var n sql.NullInt64
	if err := exec.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, LockErr(err)
	}
	return n.Int64, nil
}

// WithTx runs fn inside a transaction, committing on success and rolling back
// if fn returns an error.
func (db *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.Client.BeginTx(ctx, nil)
	if err != nil {
		return LockErr(err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return LockErr(tx.Commit())
}
