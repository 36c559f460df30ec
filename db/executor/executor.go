// Package executor defines the minimal query capability the persistence
// layer is written against, a classified error taxonomy, and a resilient
// wrapper that adds per attempt timeouts and retries on top of any
// implementation.
package executor

import (
	"context"
	"fmt"
	"time"
)

// Executor runs one SQL statement with positional parameters and returns the
// fully materialized result. Implementations adapt a concrete driver or a
// remote store. They classify their own failures but never retry; retry
// policy belongs to Resilient.
type Executor interface {
	Execute(ctx context.Context, query string, params ...any) (*Result, error)
}

// Result is a complete query outcome.
type Result struct {
	Columns []string
	Rows    []Row

	// RowCount is the number of affected rows for writes. For reads it
	// equals len(Rows).
	RowCount int64
}

// Row maps column names to driver values. The accessors normalize the value
// types the supported backends produce (SQLite integers, Postgres native
// types, JSON numbers from remote stores), so store code never switches on
// the driver in use.
type Row map[string]any

// Text returns the named column as a string. NULL and absent columns are
// the empty string.
func (r Row) Text(column string) string {
	switch v := r[column].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// Int returns the named column as an int64. NULL and absent columns are 0.
func (r Row) Int(column string) int64 {
	switch v := r[column].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int16:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Bool returns the named column as a bool. Stores without a boolean type
// encode flags as integers, so any non zero number is true.
func (r Row) Bool(column string) bool {
	switch v := r[column].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case int32:
		return v != 0
	case int16:
		return v != 0
	case float64:
		return v != 0
	}
	return false
}

// Time returns the named column as a UTC time. Text columns must hold
// RFC3339; native driver time values pass through.
func (r Row) Time(column string) (time.Time, error) {
	switch v := r[column].(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("column %s: %w", column, err)
		}
		return t.UTC(), nil
	case []byte:
		t, err := time.Parse(time.RFC3339, string(v))
		if err != nil {
			return time.Time{}, fmt.Errorf("column %s: %w", column, err)
		}
		return t.UTC(), nil
	case nil:
		return time.Time{}, fmt.Errorf("column %s: no time value", column)
	}
	return time.Time{}, fmt.Errorf("column %s: unsupported time representation %T", column, r[column])
}
