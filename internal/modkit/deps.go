// Package modkit provides module wiring and core deps
package modkit

import (
	"context"

	"marketfeed/internal/modkit/repokit"
	"marketfeed/internal/platform/config"
	"marketfeed/internal/platform/logger"
	"marketfeed/internal/platform/store"

	"github.com/redis/go-redis/v9"
)

// Publisher sends a JSON event to a topic; bus.Publisher is the production one
type Publisher interface {
	Publish(ctx context.Context, topic string, v any) error
}

// Deps holds core dependencies passed to modules
// optional backends are nil when disabled
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
	RDS *redis.Client
	Bus Publisher
}
