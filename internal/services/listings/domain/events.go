package domain

import "time"

// EventType names a lifecycle event
type EventType string

// Lifecycle events published after successful writes
const (
	EventCreated  EventType = "listing.created"
	EventArchived EventType = "listing.archived"
	EventRelisted EventType = "listing.relisted"
	EventDeleted  EventType = "listing.deleted"
	EventExpired  EventType = "listing.expired"
)

// EventFor maps a transition to the event it emits
func EventFor(t Transition) EventType {
	switch t {
	case TransitionRelist:
		return EventRelisted
	case TransitionDelete:
		return EventDeleted
	case TransitionExpire:
		return EventExpired
	}
	return EventArchived
}

// Event is the outbound notification of a lifecycle change
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ListingID string    `json:"listing_id"`
	SellerID  string    `json:"seller_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Status    Status    `json:"status"`
	At        time.Time `json:"at"`
	ExpiresAt time.Time `json:"expires_at"`
}
