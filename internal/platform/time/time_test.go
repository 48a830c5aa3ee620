package time

import (
	"testing"
	"time"
)

func TestPtrDeref(t *testing.T) {
	t.Parallel()
	if Ptr(time.Time{}) != nil {
		t.Fatal("zero time should be nil")
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := Deref(Ptr(now)); !got.Equal(now) {
		t.Fatalf("Deref = %v", got)
	}
	if !Deref(nil).IsZero() {
		t.Fatal("Deref(nil) should be zero")
	}
}

func TestClocks(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if !Fixed(at).Now().Equal(at) {
		t.Fatal("Fixed clock drifted")
	}
	if (System{}).Now().Location() != time.UTC {
		t.Fatal("System clock should report UTC")
	}
}
