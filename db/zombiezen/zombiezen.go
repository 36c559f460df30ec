// Package zombiezen implements the executor interface on top of a
// zombiezen.com/go/sqlite connection pool.
package zombiezen

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/dundas/lightauth/db"
	"github.com/dundas/lightauth/db/executor"
)

// Db executes statements against a SQLite database through a *sqlitex.Pool.
type Db struct {
	pool *sqlitex.Pool
}

var _ executor.Executor = (*Db)(nil)

// New creates a new executor with the provided pool.
// Note: The lifecycle of the provided pool (*sqlitex.Pool) is managed
// externally. It is the responsibility of the caller to close it.
func New(pool *sqlitex.Pool) (*Db, error) {
	if pool == nil {
		return nil, fmt.Errorf("provided pool cannot be nil")
	}
	return &Db{pool: pool}, nil
}

// Execute runs a single statement and collects every result row.
func (d *Db) Execute(ctx context.Context, query string, params ...any) (*executor.Result, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, executor.Classify(err)
	}
	defer d.pool.Put(conn)

	res := &executor.Result{}
	execErr := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: normalizeArgs(params),
		ResultFunc: func(stmt *sqlite.Stmt) error {
			if res.Columns == nil {
				res.Columns = make([]string, stmt.ColumnCount())
				for i := range res.Columns {
					res.Columns[i] = stmt.ColumnName(i)
				}
			}
			row := make(executor.Row, len(res.Columns))
			for i, name := range res.Columns {
				row[name] = columnValue(stmt, i)
			}
			res.Rows = append(res.Rows, row)
			return nil
		},
	})
	if execErr != nil {
		if ctx.Err() != nil {
			return nil, executor.Classify(ctx.Err())
		}
		return nil, mapError(execErr)
	}

	if len(res.Rows) > 0 {
		res.RowCount = int64(len(res.Rows))
	} else {
		res.RowCount = int64(conn.Changes())
	}
	return res, nil
}

// normalizeArgs converts values the binder does not handle uniformly.
// Booleans become 0/1 integers and times become RFC3339 UTC text, so both
// SQLite drivers store identical representations.
func normalizeArgs(params []any) []any {
	args := make([]any, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case bool:
			if v {
				args[i] = int64(1)
			} else {
				args[i] = int64(0)
			}
		case time.Time:
			args[i] = db.TimeFormat(v)
		default:
			args[i] = p
		}
	}
	return args
}

func columnValue(stmt *sqlite.Stmt, i int) any {
	switch stmt.ColumnType(i) {
	case sqlite.TypeInteger:
		return stmt.ColumnInt64(i)
	case sqlite.TypeFloat:
		return stmt.ColumnFloat(i)
	case sqlite.TypeText:
		return stmt.ColumnText(i)
	case sqlite.TypeBlob:
		buf := make([]byte, stmt.ColumnLen(i))
		stmt.ColumnBytes(i, buf)
		return buf
	}
	return nil
}

// mapError translates SQLite result codes into executor error kinds.
// Uniqueness violations additionally wrap db.ErrConstraintUnique so stores
// can detect them with errors.Is.
func mapError(err error) error {
	switch sqlite.ErrCode(err) {
	case sqlite.ResultConstraintUnique, sqlite.ResultConstraintPrimaryKey:
		return executor.NewError(executor.KindQueryRejected, "unique constraint violated",
			fmt.Errorf("%w: %w", db.ErrConstraintUnique, err))
	case sqlite.ResultBusy, sqlite.ResultLocked:
		return executor.NewError(executor.KindNetwork, "database is locked", err)
	case sqlite.ResultInterrupt:
		return executor.NewError(executor.KindTimeout, "statement interrupted", err)
	}
	return executor.NewError(executor.KindQueryRejected, "statement rejected", err)
}
