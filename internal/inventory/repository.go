package inventory

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schemaDDL string

// ErrDuplicate is returned when an insert violates a UNIQUE constraint.
var ErrDuplicate = errors.New("duplicate row")

// ErrMissingReference is returned when an insert names a user or song that
// does not exist.
var ErrMissingReference = errors.New("referenced row does not exist")

// Repository handles catalog, account and engagement storage
type Repository struct {
	db *sql.DB
}

// pragmas are applied to every pooled connection by the driver.
var pragmas = []string{
	"foreign_keys(1)",
	// Wait up to 5s for write lock instead of failing immediately
	"busy_timeout(5000)",
	// WAL mode allows concurrent reads during writes
	"journal_mode(WAL)",
}

// NewRepository opens the database at dbPath and applies the schema.
func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite supports one writer at a time; constrain the pool accordingly
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func dsn(path string) string {
	var b strings.Builder
	b.WriteString(path)
	for i, p := range pragmas {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString("_pragma=")
		b.WriteString(p)
	}
	return b.String()
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks database connectivity (for readiness probes)
func (r *Repository) Ping() error {
	return r.db.Ping()
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY conflict.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY failure.
func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// placeholders returns "?, ?, ?" for n values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (r *Repository) querySongs(ctx context.Context, query string, args ...any) ([]*Song, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	songs := []*Song{}
	for rows.Next() {
		s, err := scanSongRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating songs: %w", err)
	}

	return songs, nil
}
