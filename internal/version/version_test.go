package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.Commit == "" {
		t.Error("Commit should not be empty")
	}
	if info.BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "v1.0.0", Commit: "abc123", BuildTime: "2024-01-01T00:00:00Z", GoVersion: "go1.24"}
	s := info.String()
	for _, part := range []string{"v1.0.0", "abc123", "2024-01-01T00:00:00Z", "go1.24"} {
		if !strings.Contains(s, part) {
			t.Errorf("%q does not contain %q", s, part)
		}
	}
}
