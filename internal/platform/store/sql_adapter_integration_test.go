//go:build integration_pg

package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"marketfeed/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func openTestPG(t *testing.T) *pgAdapter {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s := &Store{Log: zerolog.New(io.Discard)}
	txr, err := openPG(ctx, Config{PG: PGConfig{URL: testkit.StartPostgres(t), MaxConns: 2, LogSQL: true}}, s)
	if err != nil {
		t.Fatalf("openPG: %v", err)
	}
	a := txr.(*pgAdapter)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestSQLAdapterIntegration(t *testing.T) {
	a := openTestPG(t)
	ctx := context.Background()

	if _, err := a.Exec(ctx, `CREATE TABLE adapter_t (id SERIAL PRIMARY KEY, val INT NOT NULL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ExecOne(ctx, a, `INSERT INTO adapter_t (val) VALUES ($1)`, 10); err != nil {
		t.Fatalf("insert: %v", err)
	}

	errRollback := errors.New("rollback")
	err := a.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, `INSERT INTO adapter_t (val) VALUES (20)`); err != nil {
			return err
		}
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		t.Fatalf("tx err = %v", err)
	}

	if err := a.Tx(ctx, func(q RowQuerier) error {
		_, err := q.Exec(ctx, `INSERT INTO adapter_t (val) VALUES (30)`)
		return err
	}); err != nil {
		t.Fatalf("tx commit: %v", err)
	}

	vals, err := Many(ctx, a, func(r Row) (int, error) {
		var v int
		return v, r.Scan(&v)
	}, `SELECT val FROM adapter_t ORDER BY id`)
	if err != nil {
		t.Fatalf("many: %v", err)
	}
	if len(vals) != 2 || vals[0] != 10 || vals[1] != 30 {
		t.Fatalf("vals = %v", vals)
	}

	if err := a.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
