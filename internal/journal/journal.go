// Package journal keeps a history of program runs in a SQL database. SQLite,
// MySQL and PostgreSQL are supported through their database/sql drivers.
package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type Status string

const (
	StatusOK           Status = "ok"
	StatusStaticError  Status = "static_error"
	StatusRuntimeError Status = "runtime_error"
)

// Entry is one recorded run.
type Entry struct {
	ID           int64
	Name         string
	SourceSHA256 string
	StartedAt    time.Time
	Duration     time.Duration
	Status       Status
	Output       string
	Errors       []string
}

type Journal struct {
	db     *sql.DB
	driver string
}

var driverAliases = map[string]string{
	"sqlite":     "sqlite3",
	"sqlite3":    "sqlite3",
	"mysql":      "mysql",
	"postgres":   "postgres",
	"postgresql": "postgres",
	"pq":         "postgres",
}

var schemas = map[string]string{
	"sqlite3": `CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	source_sha256 TEXT NOT NULL,
	started_at TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	status TEXT NOT NULL,
	output TEXT NOT NULL,
	errors TEXT NOT NULL
)`,
	"mysql": `CREATE TABLE IF NOT EXISTS runs (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	source_sha256 CHAR(64) NOT NULL,
	started_at VARCHAR(40) NOT NULL,
	duration_ms BIGINT NOT NULL,
	status VARCHAR(20) NOT NULL,
	output MEDIUMTEXT NOT NULL,
	errors MEDIUMTEXT NOT NULL
)`,
	"postgres": `CREATE TABLE IF NOT EXISTS runs (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	source_sha256 TEXT NOT NULL,
	started_at TEXT NOT NULL,
	duration_ms BIGINT NOT NULL,
	status TEXT NOT NULL,
	output TEXT NOT NULL,
	errors TEXT NOT NULL
)`,
}

// Open connects to the database and makes sure the runs table exists.
func Open(ctx context.Context, driver, dsn string) (*Journal, error) {
	name, ok := driverAliases[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("unsupported journal driver %q", driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if name == "sqlite3" {
		// every pooled connection to :memory: would see its own database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemas[name]); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	slog.Info("journal opened", slog.String("driver", name))
	return &Journal{db: db, driver: name}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record stores e and returns the id assigned to it.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	const insert = `INSERT INTO runs (name, source_sha256, started_at, duration_ms, status, output, errors)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	errs, err := json.Marshal(e.Errors)
	if err != nil {
		return 0, fmt.Errorf("encode errors: %w", err)
	}
	args := []any{
		e.Name,
		e.SourceSHA256,
		e.StartedAt.UTC().Format(time.RFC3339Nano),
		e.Duration.Milliseconds(),
		string(e.Status),
		e.Output,
		string(errs),
	}

	// lib/pq does not implement LastInsertId
	if j.driver == "postgres" {
		var id int64
		err := j.db.QueryRowContext(ctx, j.rebind(insert)+" RETURNING id", args...).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("record run: %w", err)
		}
		return id, nil
	}

	res, err := j.db.ExecContext(ctx, j.rebind(insert), args...)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, j.rebind(`SELECT id, name, source_sha256, started_at, duration_ms, status, output, errors
FROM runs ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			startedAt  string
			durationMs int64
			status     string
			errs       string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.SourceSHA256, &startedAt, &durationMs, &status, &e.Output, &errs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if e.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.Status = Status(status)
		if err := json.Unmarshal([]byte(errs), &e.Errors); err != nil {
			return nil, fmt.Errorf("decode errors of run %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// rebind rewrites ? placeholders into the $n form PostgreSQL expects.
func (j *Journal) rebind(query string) string {
	if j.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Checksum is the hex SHA-256 of a program's source.
func Checksum(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
