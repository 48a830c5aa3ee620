package module

import (
	"strings"
	"testing"

	phttp "marketfeed/internal/platform/net/http"
	"marketfeed/internal/platform/testkit"
)

type Runner interface{ Run() int }

type runnerImpl struct{ v int }

func (r runnerImpl) Run() int { return r.v }

type fakeModule struct {
	name  string
	ports any
}

func (m fakeModule) Name() string             { return m.name }
func (m fakeModule) Ports() any               { return m.ports }
func (m fakeModule) MountRoutes(phttp.Router) {}

func TestPortsOf(t *testing.T) {
	t.Parallel()

	type bundle struct {
		Runner Runner
		Other  int
	}
	type hidden struct{ runner Runner }

	cases := []struct {
		name  string
		ports any
		want  int
		ok    bool
	}{
		{"nil", nil, 0, false},
		{"direct", runnerImpl{v: 1}, 1, true},
		{"struct field", bundle{Runner: runnerImpl{v: 2}}, 2, true},
		{"pointer struct", &bundle{Runner: runnerImpl{v: 3}}, 3, true},
		{"nil pointer", (*bundle)(nil), 0, false},
		{"unexported field", hidden{runner: runnerImpl{v: 4}}, 0, false},
		{"scalar", 5, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			got, ok := PortsOf[Runner](fakeModule{name: c.name, ports: c.ports})
			if ok != c.ok {
				t.Fatalf("ok = %v, want %v", ok, c.ok)
			}
			if ok && got.Run() != c.want {
				t.Fatalf("Run = %d, want %d", got.Run(), c.want)
			}
		})
	}
}

func TestMustPortsOfPanicsWithName(t *testing.T) {
	t.Parallel()
	defer func() {
		r := recover()
		msg, _ := r.(string)
		if !strings.Contains(msg, "sweeper") {
			t.Fatalf("panic = %v", r)
		}
	}()
	MustPortsOf[Runner](fakeModule{name: "sweeper"})
}

func TestRegistry(t *testing.T) {
	testkit.Serial(t)
	Reset()
	t.Cleanup(Reset)

	Register("listings", runnerImpl{v: 9})
	got, ok := PortsAs[runnerImpl]("listings")
	if !ok || got.v != 9 {
		t.Fatalf("PortsAs = %v %v", got, ok)
	}
	if _, ok := PortsAs[string]("listings"); ok {
		t.Fatal("wrong type should miss")
	}
	if _, ok := PortsAs[runnerImpl]("missing"); ok {
		t.Fatal("missing name should miss")
	}
}
