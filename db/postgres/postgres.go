// Package postgres implements the executor interface on top of a
// jackc/pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dundas/lightauth/db"
	"github.com/dundas/lightauth/db/executor"
)

// Db executes statements against a PostgreSQL database through a
// *pgxpool.Pool.
type Db struct {
	pool *pgxpool.Pool
}

var _ executor.Executor = (*Db)(nil)

// New creates a new executor with the provided pool.
// Note: The lifecycle of the provided pool (*pgxpool.Pool) is managed
// externally. It is the responsibility of the caller to close it.
func New(pool *pgxpool.Pool) (*Db, error) {
	if pool == nil {
		return nil, fmt.Errorf("provided pool cannot be nil")
	}
	return &Db{pool: pool}, nil
}

// Execute runs a single statement and collects every result row.
// Statements use ? placeholders; they are rewritten to the $N form pgx
// expects before execution.
func (d *Db) Execute(ctx context.Context, query string, params ...any) (*executor.Result, error) {
	rows, err := d.pool.Query(ctx, rewritePlaceholders(query), normalizeArgs(params)...)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	defer rows.Close()

	res := &executor.Result{}
	for _, fd := range rows.FieldDescriptions() {
		res.Columns = append(res.Columns, fd.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, mapError(ctx, err)
		}
		row := make(executor.Row, len(res.Columns))
		for i, name := range res.Columns {
			row[name] = canonicalize(values[i])
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(ctx, err)
	}

	if len(res.Rows) > 0 {
		res.RowCount = int64(len(res.Rows))
	} else {
		res.RowCount = rows.CommandTag().RowsAffected()
	}
	return res, nil
}

// rewritePlaceholders converts ? placeholders to $1, $2, ... form.
// Question marks inside single or double quoted regions are left alone.
func rewritePlaceholders(query string) string {
	if !strings.ContainsRune(query, '?') {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	var inSingle, inDouble bool
	n := 0
	for _, r := range query {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case r == '?' && !inSingle && !inDouble:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizeArgs converts times to RFC3339 UTC text so timestamp values
// bind against the TEXT columns the schema uses.
func normalizeArgs(params []any) []any {
	args := make([]any, len(params))
	for i, p := range params {
		if t, ok := p.(time.Time); ok {
			args[i] = db.TimeFormat(t)
			continue
		}
		args[i] = p
	}
	return args
}

// canonicalize widens driver-specific scalar types to the forms Row
// accessors understand.
func canonicalize(v any) any {
	switch n := v.(type) {
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float32:
		return float64(n)
	}
	return v
}

// mapError translates pgx errors into executor error kinds.
// Uniqueness violations additionally wrap db.ErrConstraintUnique so stores
// can detect them with errors.Is.
func mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return executor.Classify(ctx.Err())
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return executor.NewError(executor.KindQueryRejected, "unique constraint violated",
				fmt.Errorf("%w: %w", db.ErrConstraintUnique, err))
		case pgErr.Code == "57014":
			return executor.NewError(executor.KindTimeout, "statement canceled", err)
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "53300":
			return executor.NewError(executor.KindNetwork, "connection failure", err)
		}
		return executor.NewError(executor.KindQueryRejected, "statement rejected", err)
	}
	return executor.Classify(err)
}
