package testkit

import (
	"sync"
	"testing"
	"time"
)

func TestMustPanic(t *testing.T) {
	t.Parallel()
	MustPanic(t, func() {
		var m map[string]int
		m["listing"] = 1
	})
}

func TestMustNotPanic(t *testing.T) {
	t.Parallel()
	MustNotPanic(t, func() {
		_ = NewClock(time.Time{}).Now()
	})
}

func TestMustContain(t *testing.T) {
	t.Parallel()
	MustContain(t, "archived 2 of 3 listings; 1 failed: not owned by you (1)", "1 failed")
}

func TestClockAdvance(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 5, 10, 3, 0, 0, 0, time.FixedZone("CDT", -5*3600))
	c := NewClock(start)
	if c.Now().Location() != time.UTC || !c.Now().Equal(start) {
		t.Fatalf("start = %v", c.Now())
	}
	if got := c.Advance(7 * 24 * time.Hour); !got.Equal(start.Add(7*24*time.Hour)) || !c.Now().Equal(got) {
		t.Fatalf("advance = %v now = %v", got, c.Now())
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Minute)
		}()
	}
	wg.Wait()
	if want := start.Add(7*24*time.Hour + 8*time.Minute); !c.Now().Equal(want) {
		t.Fatalf("concurrent advance = %v, want %v", c.Now(), want)
	}
}
