package version

import "testing"

func TestInfoDefaults(t *testing.T) {
	t.Parallel()
	got := Info("marketfeed-api")
	if got.Service != "marketfeed-api" || got.Version != "dev" || got.Commit != "none" {
		t.Fatalf("info = %+v", got)
	}
}
