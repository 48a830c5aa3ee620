// Package bus publishes JSON messages to NATS subjects
package bus

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/metrics"

	"github.com/nats-io/nats.go"
)

// Conn is the slice of *nats.Conn the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

// Publisher sends JSON payloads under a subject prefix
type Publisher struct {
	conn   Conn
	prefix string
}

// NewPublisher returns a publisher; topics are appended to prefix with a dot
func NewPublisher(conn Conn, prefix string) *Publisher {
	return &Publisher{conn: conn, prefix: strings.TrimSuffix(prefix, ".")}
}

// Subject composes the full subject for topic
func (p *Publisher) Subject(topic string) string {
	if p.prefix == "" {
		return topic
	}
	return p.prefix + "." + topic
}

// Publish marshals v and publishes it. NATS core publish is fire and forget,
// so ctx only guards against publishing after cancellation
func (p *Publisher) Publish(ctx context.Context, topic string, v any) (err error) {
	if err := ctx.Err(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "publish cancelled")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "marshal event")
	}
	subject := p.Subject(topic)
	defer func(start time.Time) { metrics.ObserveNetworkRequest("nats", "publish", topic, start, err) }(time.Now())

	if err := p.conn.Publish(subject, data); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "publish %s", subject)
	}
	return nil
}
