package modkit

import (
	"net/http"
	"testing"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	type ports struct{ N int }
	tag := func(next http.Handler) http.Handler { return next }

	b := Build(
		WithName("listings"),
		WithPrefix("/listings"),
		WithMiddlewares(tag, tag),
		WithPorts(ports{N: 3}),
		WithPrefix("/items"),
	)
	if b.Name != "listings" || b.Prefix != "/items" {
		t.Fatalf("built = %+v", b)
	}
	if len(b.Mw) != 2 {
		t.Fatalf("mw = %d", len(b.Mw))
	}
	if p, ok := b.Ports.(ports); !ok || p.N != 3 {
		t.Fatalf("ports = %#v", b.Ports)
	}
}

func TestBuildZero(t *testing.T) {
	t.Parallel()
	b := Build()
	if b.Name != "" || b.Mw != nil || b.Ports != nil {
		t.Fatalf("zero build = %+v", b)
	}
}
