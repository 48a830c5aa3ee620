package repokit

import (
	"context"
	"errors"
	"testing"

	"marketfeed/internal/platform/testkit"
)

type fakeTx struct {
	Queryer
	calls int
}

func (f *fakeTx) Tx(_ context.Context, fn func(Queryer) error) error {
	f.calls++
	return fn(f)
}

type repo struct{ q Queryer }

func TestWithTxBindsTxQueryer(t *testing.T) {
	t.Parallel()
	tx := &fakeTx{}
	var bound Queryer
	err := WithTx(context.Background(), tx, BindFunc[repo](func(q Queryer) repo { return repo{q: q} }), func(r repo) error {
		bound = r.q
		return nil
	})
	if err != nil || tx.calls != 1 || bound != tx {
		t.Fatalf("err=%v calls=%d bound=%v", err, tx.calls, bound)
	}
}

func TestMustBind(t *testing.T) {
	t.Parallel()
	b := BindFunc[repo](func(q Queryer) repo { return repo{q: q} })
	testkit.MustPanic(t, func() { MustBind[repo](b, nil) })
	tx := &fakeTx{}
	if got := MustBind[repo](b, tx); got.q != tx {
		t.Fatal("bind lost queryer")
	}
}

type guardFunc func(context.Context) error

func (g guardFunc) Guard(ctx context.Context) error { return g(ctx) }

func TestMustGuard(t *testing.T) {
	t.Parallel()
	testkit.MustNotPanic(t, func() {
		MustGuard(context.Background(), guardFunc(func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			return nil
		}))
	})
	testkit.MustPanic(t, func() {
		MustGuard(context.Background(), guardFunc(func(context.Context) error { return errors.New("pg down") }))
	})
}
