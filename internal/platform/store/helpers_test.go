package store

import (
	"context"
	"errors"
	"testing"

	perr "marketfeed/internal/platform/errors"
)

// fakeRows iterates a fixed set of int rows
type fakeRows struct {
	vals []int
	i    int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.vals) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	*(dest[0].(*int)) = r.vals[r.i-1]
	return nil
}
func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     {}

type fakeTag int64

func (t fakeTag) String() string      { return "UPDATE" }
func (t fakeTag) RowsAffected() int64 { return int64(t) }

type fakeRow struct{ v int }

func (r fakeRow) Scan(dest ...any) error { *(dest[0].(*int)) = r.v; return nil }

type fakeQuerier struct {
	affected int64
	rows     []int
	queryErr error
}

func (f *fakeQuerier) Exec(context.Context, string, ...any) (CommandTag, error) {
	return fakeTag(f.affected), nil
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{vals: f.rows}, nil
}

func (f *fakeQuerier) QueryRow(context.Context, string, ...any) Row {
	if len(f.rows) == 0 {
		return fakeRow{}
	}
	return fakeRow{v: f.rows[0]}
}

func scanInt(r Row) (int, error) {
	var v int
	return v, r.Scan(&v)
}

func TestExecOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if err := ExecOne(ctx, &fakeQuerier{affected: 1}, "UPDATE"); err != nil {
		t.Fatalf("one row: %v", err)
	}
	if err := ExecOne(ctx, &fakeQuerier{affected: 0}, "UPDATE"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("zero rows: %v", err)
	}
	if err := ExecOne(ctx, &fakeQuerier{affected: 3}, "UPDATE"); err == nil {
		t.Fatal("three rows should error")
	}
}

func TestScalar(t *testing.T) {
	t.Parallel()
	v, err := Scalar[int](context.Background(), &fakeQuerier{rows: []int{42}}, "SELECT 42")
	if err != nil || v != 42 {
		t.Fatalf("Scalar = %d, %v", v, err)
	}
}

func TestOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	v, err := One(ctx, &fakeQuerier{rows: []int{7}}, scanInt, "q")
	if err != nil || v != 7 {
		t.Fatalf("One = %d, %v", v, err)
	}
	if _, err := One(ctx, &fakeQuerier{}, scanInt, "q"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("empty = %v", err)
	}
	if _, err := One(ctx, &fakeQuerier{rows: []int{1, 2}}, scanInt, "q"); err == nil {
		t.Fatal("two rows should error")
	}
	boom := errors.New("boom")
	if _, err := One(ctx, &fakeQuerier{queryErr: boom}, scanInt, "q"); !errors.Is(err, boom) {
		t.Fatalf("query err = %v", err)
	}
}

func TestMany(t *testing.T) {
	t.Parallel()
	got, err := Many(context.Background(), &fakeQuerier{rows: []int{3, 1, 2}}, scanInt, "q")
	if err != nil {
		t.Fatalf("Many: %v", err)
	}
	if len(got) != 3 || got[0] != 3 || got[2] != 2 {
		t.Fatalf("Many = %v", got)
	}
}
