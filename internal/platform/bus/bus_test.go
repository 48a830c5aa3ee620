package bus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	perr "marketfeed/internal/platform/errors"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func TestPublish(t *testing.T) {
	t.Parallel()
	fc := &fakeConn{}
	p := NewPublisher(fc, "marketfeed.listings.")

	if err := p.Publish(context.Background(), "listing.archived", map[string]string{"id": "abc"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if fc.subject != "marketfeed.listings.listing.archived" {
		t.Fatalf("subject = %q", fc.subject)
	}
	var got map[string]string
	if err := json.Unmarshal(fc.data, &got); err != nil || got["id"] != "abc" {
		t.Fatalf("payload = %s (%v)", fc.data, err)
	}
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	p := NewPublisher(&fakeConn{err: errors.New("no responders")}, "")
	err := p.Publish(context.Background(), "x", 1)
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("conn error = %v", err)
	}

	err = p.Publish(context.Background(), "x", make(chan int))
	if !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("marshal error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, "x", 1); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("cancelled = %v", err)
	}
	if p.Subject("y") != "y" {
		t.Fatal("empty prefix should pass topic through")
	}
}
