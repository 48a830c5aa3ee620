package guardrails

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis keeps one key with SET NX and token delete semantics
type fakeRedis struct {
	mu  sync.Mutex
	val map[string]string
	err error
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.val[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.val[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewCmd(ctx)
	if !strings.Contains(script, `redis.call("del"`) {
		cmd.SetErr(errors.New("unexpected script"))
		return cmd
	}
	if f.val[keys[0]] == args[0] {
		delete(f.val, keys[0])
		cmd.SetVal(int64(1))
		return cmd
	}
	cmd.SetVal(int64(0))
	return cmd
}

func TestRedisLease(t *testing.T) {
	t.Parallel()
	rd := &fakeRedis{val: map[string]string{}}
	lease := RedisLease(rd, "sweep", "test", time.Minute)
	ctx := context.Background()

	ran := false
	err := lease(ctx, func(ctx context.Context) error {
		// a second holder is turned away while the first runs
		if err := lease(ctx, func(context.Context) error { return nil }); !errors.Is(err, ErrLeaseHeld) {
			t.Errorf("nested claim = %v", err)
		}
		ran = true
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("lease = %v ran=%v", err, ran)
	}
	if len(rd.val) != 0 {
		t.Fatalf("lease not released: %v", rd.val)
	}

	// a foreign token is never deleted
	rd.val["sweep"] = "other-replica"
	if err := lease(ctx, func(context.Context) error { return nil }); !errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("held = %v", err)
	}
	if rd.val["sweep"] != "other-replica" {
		t.Fatal("foreign lease removed")
	}

	rd.err = errors.New("conn reset")
	if err := lease(ctx, func(context.Context) error { return nil }); err == nil || errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("redis down = %v", err)
	}
}

func TestForItem(t *testing.T) {
	t.Parallel()
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, c1 := ForItem(parent, time.Hour)
	defer c1()
	dl, ok := ctx.Deadline()
	if !ok || time.Until(dl) > 50*time.Millisecond {
		t.Fatalf("parent deadline extended: %v", dl)
	}

	ctx, c2 := ForItem(context.Background(), 0)
	defer c2()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("zero budget should not add a deadline")
	}
	if Remaining(context.Background()) != 0 {
		t.Fatal("remaining without deadline")
	}
}
