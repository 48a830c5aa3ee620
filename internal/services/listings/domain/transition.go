package domain

import "time"

// Transition names a lifecycle move
type Transition string

// Lifecycle transitions. Expire is system initiated and never accepted from clients
const (
	TransitionArchive Transition = "archive"
	TransitionRelist  Transition = "relist"
	TransitionDelete  Transition = "delete"
	TransitionExpire  Transition = "expire"
)

// Bulkable reports whether clients may request t in a bulk operation
func (t Transition) Bulkable() bool {
	switch t {
	case TransitionArchive, TransitionRelist, TransitionDelete:
		return true
	}
	return false
}

// Target is the status a successful transition lands in
func (t Transition) Target() Status {
	switch t {
	case TransitionRelist:
		return StatusActive
	case TransitionDelete:
		return StatusDeleted
	default:
		return StatusArchived
	}
}

// Allowed reports whether t may start from status from.
// Deleted is terminal; archive and expire need Active; relist needs Archived
func (t Transition) Allowed(from Status) bool {
	switch t {
	case TransitionArchive, TransitionExpire:
		return from == StatusActive
	case TransitionRelist:
		return from == StatusArchived
	case TransitionDelete:
		return from == StatusActive || from == StatusArchived
	}
	return false
}

// PastTense is used in bulk summaries
func (t Transition) PastTense() string {
	switch t {
	case TransitionArchive:
		return "archived"
	case TransitionRelist:
		return "relisted"
	case TransitionDelete:
		return "deleted"
	case TransitionExpire:
		return "expired"
	}
	return string(t)
}

// StatusChange is the conditional write the store applies.
// The row is only touched when id matches, status equals From and,
// when ExpiredBefore is set, expires_at < ExpiredBefore
type StatusChange struct {
	ID            string
	From          Status
	To            Status
	At            time.Time
	ArchivedAt    *time.Time
	ListedAt      *time.Time
	ExpiresAt     *time.Time
	ExpiredBefore *time.Time
}

// Change builds the write for t applied to l at now with the given retention
func Change(t Transition, l Listing, now time.Time, retention time.Duration) StatusChange {
	c := StatusChange{ID: l.ID, From: l.Status, To: t.Target(), At: now}
	switch t {
	case TransitionArchive:
		c.ArchivedAt = &now
	case TransitionExpire:
		c.ArchivedAt = &now
		c.ExpiredBefore = &now
	case TransitionRelist:
		exp := now.Add(retention)
		c.ListedAt, c.ExpiresAt = &now, &exp
	}
	return c
}

// ApplyTo mirrors the write on an in-memory listing
func (c StatusChange) ApplyTo(l *Listing) {
	l.Status = c.To
	l.UpdatedAt = c.At
	l.ArchivedAt = nil
	if c.ArchivedAt != nil {
		at := *c.ArchivedAt
		l.ArchivedAt = &at
	}
	if c.ListedAt != nil {
		l.ListedAt = *c.ListedAt
	}
	if c.ExpiresAt != nil {
		l.ExpiresAt = *c.ExpiresAt
	}
}

// Matches reports whether the conditional predicate holds for l
func (c StatusChange) Matches(l Listing) bool {
	if l.ID != c.ID || l.Status != c.From {
		return false
	}
	if c.ExpiredBefore != nil && !l.ExpiresAt.Before(*c.ExpiredBefore) {
		return false
	}
	return true
}
