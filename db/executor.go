// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ErrQueryFailed marks every error coming out of the store. The driver error
// stays wrapped so callers can still classify constraint violations.
var ErrQueryFailed = errors.New("query failed")

// Postgres error codes the handlers care about
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Executor runs one parameterized statement per call on its own connection.
type Executor struct {
	db *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// DB returns the underlying pool
func (e *Executor) DB() *sql.DB {
	return e.db
}

// Query runs a statement that returns rows (SELECT or ... RETURNING) and
// materializes the full result set.
func (e *Executor) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalize(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return result, nil
}

// QueryOne is Query for statements expected to yield at most one row.
// Returns nil, nil when there are no rows.
func (e *Executor) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := e.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Exec runs a statement without a result set
func (e *Executor) Exec(ctx context.Context, query string, args ...any) error {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return nil
}

// Ping checks the store is reachable within timeout
func (e *Executor) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return nil
}

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsForeignKeyViolation reports whether err came from a missing referenced row
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

func hasCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

// normalize converts driver values into the shapes Row accessors expect.
// Times come back in UTC no matter what location the driver attached.
func normalize(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC()
	case []byte:
		// lib/pq hands NUMERIC and a few other types over as bytes
		return string(val)
	default:
		return val
	}
}
