package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"churnops/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type recTracer struct{ got []pg.QueryEvent }

func (r *recTracer) OnQuery(_ context.Context, ev pg.QueryEvent) { r.got = append(r.got, ev) }

func TestTraceSlowFlag(t *testing.T) {
	cases := []struct {
		name   string
		slowUS int64
		start  time.Time
		want   bool
	}{
		{"zero threshold is always slow", 0, time.Now(), true},
		{"under threshold", int64(time.Hour / time.Microsecond), time.Now(), false},
		{"negative disables", -1, time.Now().Add(-time.Second), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rt := &recTracer{}
			trace(context.Background(), rt, tc.slowUS, "SELECT 1", nil, tc.start, nil)
			if len(rt.got) != 1 || rt.got[0].Slow != tc.want {
				t.Fatalf("events = %+v", rt.got)
			}
		})
	}
}

func TestAdapterEmitCarriesError(t *testing.T) {
	rt := &recTracer{}
	a := &pgAdapter{p: &pg.PG{Tracer: rt, SlowMs: 1000}}
	boom := errors.New("boom")
	a.emit(context.Background(), "UPDATE x SET y = $1", []any{1}, time.Now(), boom)
	if len(rt.got) != 1 || !errors.Is(rt.got[0].Err, boom) || rt.got[0].SQL != "UPDATE x SET y = $1" {
		t.Fatalf("events = %+v", rt.got)
	}

	var nilAdapter *pgAdapter
	nilAdapter.emit(context.Background(), "x", nil, time.Now(), nil)
	trace(context.Background(), nil, 0, "x", nil, time.Now(), nil)
}

type noRow struct{}

func (noRow) Scan(...any) error { return pgx.ErrNoRows }

type fakeConn struct{ execs int }

func (f *fakeConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	f.execs++
	return pgconn.NewCommandTag("UPDATE 2"), nil
}

func (f *fakeConn) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("no query")
}

func (f *fakeConn) QueryRow(context.Context, string, ...any) pgx.Row { return noRow{} }

func TestTracedQuerier(t *testing.T) {
	rt := &recTracer{}
	c := &fakeConn{}
	q := tracedQuerier{c: c, tracer: rt, slowUS: -1}

	ct, err := q.Exec(context.Background(), "UPDATE t SET a = 1")
	if err != nil || ct.RowsAffected() != 2 || c.execs != 1 {
		t.Fatalf("exec = %v, %v", ct, err)
	}

	row := q.QueryRow(context.Background(), "SELECT a FROM t")
	if len(rt.got) != 1 {
		t.Fatalf("QueryRow traced before Scan: %+v", rt.got)
	}
	var a int
	if err := row.Scan(&a); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("scan err = %v", err)
	}
	if len(rt.got) != 2 || !errors.Is(rt.got[1].Err, pgx.ErrNoRows) {
		t.Fatalf("events = %+v", rt.got)
	}

	if _, err := q.Query(context.Background(), "SELECT 1"); err == nil || len(rt.got) != 3 {
		t.Fatalf("query err = %v, events = %d", err, len(rt.got))
	}
}
