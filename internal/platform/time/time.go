// Package time contains time related helpers
package time

import "time"

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Deref returns the zero time for nil
func Deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// Clock supplies the current instant; services take one so tests can pin time
type Clock interface {
	Now() time.Time
}

// System is the wall clock in UTC
type System struct{}

// Now returns time.Now in UTC
func (System) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now calls f
func (f ClockFunc) Now() time.Time { return f() }

// Fixed returns a Clock that always reports t
func Fixed(t time.Time) Clock { return ClockFunc(func() time.Time { return t }) }
