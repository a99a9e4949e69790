package buildinfo

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	defer func() { Version, Commit, Date = oldV, oldC, oldD }()

	Version, Commit, Date = "v1.0.0", "abc123", "2024-01-01"
	want := Info{Version: "v1.0.0", Commit: "abc123", Date: "2024-01-01"}
	if got := Get(); got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestTemplate(t *testing.T) {
	tmpl := Template()
	for _, want := range []string{"{{.Name}} version " + Version, "commit: " + Commit, "built: " + Date} {
		if !strings.Contains(tmpl, want) {
			t.Errorf("Template() = %q, missing %q", tmpl, want)
		}
	}
}
