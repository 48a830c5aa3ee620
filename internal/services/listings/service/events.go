package service

import (
	"context"

	"marketfeed/internal/modkit"
	perr "marketfeed/internal/platform/errors"
	"marketfeed/internal/platform/metrics"
	"marketfeed/internal/platform/store"
	"marketfeed/internal/services/listings/domain"

	"github.com/google/uuid"
)

// emit fans e out to every sink. Sink failures are logged and counted only
func (s *Svc) emit(ctx context.Context, typ domain.EventType, l domain.Listing, actorID string) {
	if len(s.sinks) == 0 {
		return
	}
	e := domain.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		ListingID: l.ID,
		SellerID:  l.SellerID,
		ActorID:   actorID,
		Status:    l.Status,
		At:        s.now(),
		ExpiresAt: l.ExpiresAt,
	}
	for _, sink := range s.sinks {
		ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.EventTimeout)
		err := sink.Emit(ectx, e)
		cancel()
		if err != nil {
			metrics.EventsDroppedTotal.WithLabelValues(sink.Name()).Inc()
			s.log.Warn().Err(err).
				Str("sink", sink.Name()).
				Str("event", string(e.Type)).
				Str("listing_id", e.ListingID).
				Msg("event dropped")
		}
	}
}

// NATSSink publishes events on the bus, one subject per event type
type NATSSink struct{ pub modkit.Publisher }

// NewNATSSink returns nil for a nil publisher so callers can pass it straight to WithSinks
func NewNATSSink(pub modkit.Publisher) domain.EventSink {
	if pub == nil {
		return nil
	}
	return NATSSink{pub: pub}
}

func (NATSSink) Name() string { return "nats" }

func (n NATSSink) Emit(ctx context.Context, e domain.Event) error {
	return n.pub.Publish(ctx, string(e.Type), e)
}

// ClickhouseSink appends events to the listing_events table
type ClickhouseSink struct{ ch store.Clickhouse }

// NewClickhouseSink returns nil for a nil client
func NewClickhouseSink(ch store.Clickhouse) domain.EventSink {
	if ch == nil {
		return nil
	}
	return ClickhouseSink{ch: ch}
}

func (ClickhouseSink) Name() string { return "clickhouse" }

func (c ClickhouseSink) Emit(ctx context.Context, e domain.Event) error {
	row := []any{e.ID, string(e.Type), e.ListingID, e.SellerID, e.ActorID, string(e.Status), e.At, e.ExpiresAt}
	if err := c.ch.Insert(ctx, "listing_events", [][]any{row}); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "insert listing event %s", e.ID)
	}
	return nil
}
