package store

import (
	"context"
	"errors"
	"time"

	"churnops/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgConn is what the pool and a pgx.Tx have in common
type pgConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgAdapter is the postgres TxRunner; every statement goes through a traced
// querier, inside or outside a transaction
type pgAdapter struct {
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter { return &pgAdapter{p: p} }

func (a *pgAdapter) on(c pgConn) tracedQuerier {
	return tracedQuerier{c: c, tracer: a.p.Tracer, slowUS: int64(a.p.SlowMs) * 1000}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	return a.p.Pool.Ping(ctx)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return a.on(a.p.Pool).Exec(ctx, sql, args...)
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return a.on(a.p.Pool).Query(ctx, sql, args...)
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return a.on(a.p.Pool).QueryRow(ctx, sql, args...)
}

// Tx commits when fn returns nil and rolls back otherwise
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(a.on(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (a *pgAdapter) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if a == nil || a.p == nil {
		return
	}
	trace(ctx, a.p.Tracer, int64(a.p.SlowMs)*1000, sql, args, start, err)
}

type tracedQuerier struct {
	c      pgConn
	tracer pg.QueryTracer
	slowUS int64
}

func (q tracedQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := q.c.Exec(ctx, sql, args...)
	trace(ctx, q.tracer, q.slowUS, sql, args, start, err)
	return pgTag{ct}, err
}

// Query is timed to the first row, not to Close
func (q tracedQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := q.c.Query(ctx, sql, args...)
	trace(ctx, q.tracer, q.slowUS, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgRows{rs}, nil
}

// QueryRow reports once Scan has run, so ErrNoRows shows up in the event
func (q tracedQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := q.c.QueryRow(ctx, sql, args...)
	return scanHook{r: r, done: func(err error) {
		trace(ctx, q.tracer, q.slowUS, sql, args, start, err)
	}}
}

func trace(ctx context.Context, t pg.QueryTracer, slowUS int64, sql string, args []any, start time.Time, err error) {
	if t == nil {
		return
	}
	us := time.Since(start).Microseconds()
	t.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: us,
		Err:       err,
		Slow:      slowUS >= 0 && us >= slowUS,
	})
}

type scanHook struct {
	r    pgx.Row
	done func(error)
}

func (h scanHook) Scan(dst ...any) error {
	err := h.r.Scan(dst...)
	h.done(err)
	return err
}

type pgRows struct{ pgx.Rows }

func (r pgRows) Columns() []string {
	fds := r.FieldDescriptions()
	names := make([]string, 0, len(fds))
	for _, fd := range fds {
		names = append(names, fd.Name)
	}
	return names
}

type pgTag struct{ pgconn.CommandTag }

func (t pgTag) String() string      { return t.CommandTag.String() }
func (t pgTag) RowsAffected() int64 { return t.CommandTag.RowsAffected() }
