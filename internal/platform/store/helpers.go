package store

import (
	"context"

	perr "churnops/internal/platform/errors"
)

// ExecOne runs a write that must touch exactly one row
// zero rows is NotFound, more than one is Conflict
func ExecOne(ctx context.Context, q RowQuerier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	switch n := tag.RowsAffected(); {
	case n == 0:
		return perr.NotFoundf("no row affected")
	case n > 1:
		return perr.Conflictf("%d rows affected, want 1", n)
	}
	return nil
}

// Scalar reads the first column of the only row
// an empty result is NotFound and still matches IsNoRows
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	err := q.QueryRow(ctx, sql, args...).Scan(&v)
	if IsNoRows(err) {
		return v, perr.Wrap(err, perr.ErrorCodeNotFound, "no rows")
	}
	return v, err
}

// One maps the single row of a result; perr.ErrNotFound when there is none
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var zero T
	xs, err := collect(ctx, q, scan, 2, sql, args...)
	switch {
	case err != nil:
		return zero, err
	case len(xs) == 0:
		return zero, perr.ErrNotFound
	case len(xs) > 1:
		return zero, perr.Conflictf("expected one row, got more")
	}
	return xs[0], nil
}

// Many maps every row with scan
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	return collect(ctx, q, scan, -1, sql, args...)
}

// collect scans at most limit rows, all of them when limit < 0
func collect[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), limit int, sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for (limit < 0 || len(out) < limit) && rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
