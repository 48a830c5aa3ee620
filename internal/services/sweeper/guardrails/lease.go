// Package guardrails keeps sweep runs from overlapping across replicas
package guardrails

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLeaseHeld signals another replica is sweeping already
var ErrLeaseHeld = errors.New("sweeper: lease already held")

// Lease runs do while holding a named lock, or returns ErrLeaseHeld
type Lease func(ctx context.Context, do func(context.Context) error) error

// Schema holds the job_leases table used by PGLease
//
//go:embed schema.sql
var Schema string

// Migrate applies the lease schema
func Migrate(ctx context.Context, q store.RowQuerier) error {
	_, err := q.Exec(ctx, Schema)
	return perr.FromPostgres(err, "apply job_leases schema")
}

const releaseTimeout = 5 * time.Second

// locker is the slice of *redis.Client the redis lease needs
type locker interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

var _ locker = (*redis.Client)(nil)

// only the holder's token may delete the key
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`

// RedisLease claims key with SET NX PX ttl and releases it by token compare-and-delete.
// A crashed holder's claim lapses after ttl
func RedisLease(c locker, key, owner string, ttl time.Duration) Lease {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	owner = fmt.Sprintf("%s:%d", owner, os.Getpid())

	return func(ctx context.Context, do func(context.Context) error) error {
		token := owner + ":" + uuid.NewString()
		ok, err := c.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "acquire lease %s", key)
		}
		if !ok {
			return ErrLeaseHeld
		}
		defer func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			defer cancel()
			_ = c.Eval(rctx, releaseScript, []string{key}, token).Err()
		}()
		return do(ctx)
	}
}

// PGLease claims the job_leases row for name when it is free or expired
func PGLease(db store.TxRunner, name, owner string, ttl time.Duration) Lease {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	owner = fmt.Sprintf("%s:%d", owner, os.Getpid())
	toInterval := func(d time.Duration) string { return fmt.Sprintf("%d seconds", int64(d/time.Second)) }

	return func(ctx context.Context, do func(context.Context) error) error {
		var claimed bool
		err := db.Tx(ctx, func(q store.RowQuerier) error {
			ok, err := store.One(store.WithStatement(ctx, "claim lease"), q, scanBool, `
				INSERT INTO job_leases (name, owner, claimed_at, expires_at)
				VALUES ($1, $2, now(), now() + ($3)::interval)
				ON CONFLICT (name) DO UPDATE
				   SET owner = EXCLUDED.owner, claimed_at = EXCLUDED.claimed_at, expires_at = EXCLUDED.expires_at
				 WHERE job_leases.expires_at <= now()
				RETURNING true
			`, name, owner, toInterval(ttl))
			if err != nil {
				if perr.IsCode(err, perr.ErrorCodeNotFound) {
					return nil // held by someone else
				}
				return perr.FromPostgres(err, "claim lease")
			}
			claimed = ok
			return nil
		})
		if err != nil {
			return err
		}
		if !claimed {
			return ErrLeaseHeld
		}
		defer func() {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			defer cancel()
			_, _ = db.Exec(store.WithStatement(rctx, "release lease"), `DELETE FROM job_leases WHERE name = $1 AND owner = $2`, name, owner)
		}()
		return do(ctx)
	}
}

func scanBool(r store.Row) (bool, error) {
	var b bool
	err := r.Scan(&b)
	return b, err
}
