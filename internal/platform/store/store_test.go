package store

import (
	"context"
	"errors"
	"testing"

	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/store/lite"
)

func memLite(t *testing.T) TxRunner {
	t.Helper()
	db, err := lite.Open(context.Background(), lite.Config{Path: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	l := NewLite(db)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := l.Exec(context.Background(), `CREATE TABLE item (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)`); err != nil {
		t.Fatal(err)
	}
	return l
}

type item struct {
	ID   int64
	Name string
}

func scanItem(r Row) (item, error) {
	var it item
	err := r.Scan(&it.ID, &it.Name)
	return it, err
}

func TestLiteHelpers(t *testing.T) {
	ctx := context.Background()
	l := memLite(t)

	for _, n := range []string{"a", "b", "c"} {
		if err := ExecOne(ctx, l, `INSERT INTO item (name) VALUES ($1)`, n); err != nil {
			t.Fatal(err)
		}
	}

	n, err := Scalar[int64](ctx, l, `SELECT count(*) FROM item`)
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}

	it, err := One(ctx, l, scanItem, `SELECT id, name FROM item WHERE name = $1`, "b")
	if err != nil || it.Name != "b" {
		t.Fatalf("one = %+v, %v", it, err)
	}

	_, err = One(ctx, l, scanItem, `SELECT id, name FROM item WHERE name = $1`, "zz")
	if !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("missing row err = %v", err)
	}

	_, err = One(ctx, l, scanItem, `SELECT id, name FROM item`)
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("multiple rows err = %v", err)
	}

	_, err = Scalar[int64](ctx, l, `SELECT id FROM item WHERE name = $1`, "nope")
	if !IsNoRows(err) || !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("scalar no rows err = %v", err)
	}

	all, err := Many(ctx, l, scanItem, `SELECT id, name FROM item ORDER BY id`)
	if err != nil || len(all) != 3 || all[2].Name != "c" {
		t.Fatalf("many = %+v, %v", all, err)
	}

	if err := ExecOne(ctx, l, `DELETE FROM item WHERE name = $1`, "nope"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("zero rows err = %v", err)
	}
}

func TestLiteUniqueMapsToDuplicateKey(t *testing.T) {
	ctx := context.Background()
	l := memLite(t)
	if _, err := l.Exec(ctx, `INSERT INTO item (name) VALUES ($1)`, "x"); err != nil {
		t.Fatal(err)
	}
	_, err := l.Exec(ctx, `INSERT INTO item (name) VALUES ($1)`, "x")
	if !perr.IsDuplicateKey(err) {
		t.Fatalf("err = %v, want duplicate key", err)
	}
	if got := perr.CodeOf(perr.FromDB(err, "insert item")); got != perr.ErrorCodeDuplicateKey {
		t.Fatalf("code = %v", got)
	}
}

func TestLiteTxRollback(t *testing.T) {
	ctx := context.Background()
	l := memLite(t)
	boom := errors.New("boom")
	err := l.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, `INSERT INTO item (name) VALUES ($1)`, "tx"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	n, _ := Scalar[int64](ctx, l, `SELECT count(*) FROM item`)
	if n != 0 {
		t.Fatalf("rollback left %d rows", n)
	}

	err = l.Tx(ctx, func(q RowQuerier) error {
		rows, err := q.Query(ctx, `SELECT id FROM item`)
		if err != nil {
			return err
		}
		rows.Close()
		_, err = q.Exec(ctx, `INSERT INTO item (name) VALUES ($1)`, "kept")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	var name string
	if err := l.QueryRow(ctx, `SELECT name FROM item`).Scan(&name); err != nil || name != "kept" {
		t.Fatalf("name = %q, %v", name, err)
	}
}

func TestIsNoRows(t *testing.T) {
	ctx := context.Background()
	l := memLite(t)
	var name string
	err := l.QueryRow(ctx, `SELECT name FROM item WHERE id = $1`, 42).Scan(&name)
	if !IsNoRows(err) {
		t.Fatalf("err = %v", err)
	}
	if IsNoRows(errors.New("other")) {
		t.Fatal("false positive")
	}
}

func TestOpenLiteAndGuard(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{Lite: LiteConfig{Enabled: true, Path: ":memory:"}})
	if err != nil {
		t.Fatal(err)
	}
	if s.SQL() == nil || s.SQL() != s.Lite {
		t.Fatal("SQL should fall back to sqlite")
	}
	if err := s.Guard(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
}

type pingFail struct{ TxRunner }

func (pingFail) Ping(context.Context) error { return errors.New("down") }

func TestGuardJoinsErrors(t *testing.T) {
	s := &Store{PG: pingFail{}}
	err := s.Guard(context.Background())
	if err == nil || err.Error() != "pg: down" {
		t.Fatalf("err = %v", err)
	}
	var nilStore *Store
	if nilStore.Guard(context.Background()) == nil {
		t.Fatal("nil store should not guard ok")
	}
	if nilStore.SQL() != nil || nilStore.Close(context.Background()) != nil {
		t.Fatal("nil store helpers")
	}
}

func TestPingRetry(t *testing.T) {
	backoffStart, backoffCeiling = 0, 0
	t.Cleanup(func() { backoffStart, backoffCeiling = 150e6, 2e9 })

	calls := 0
	err := pingRetry(context.Background(), 3, 0, func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("calls = %d, err = %v", calls, err)
	}

	err = pingRetry(context.Background(), 2, 0, func(context.Context) error { return errors.New("never") })
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
}
