package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/seqrender/seqrender/pkg/observability"
	"github.com/seqrender/seqrender/pkg/pipeline"
	"github.com/seqrender/seqrender/pkg/render"
)

type echoRenderer struct {
	mu     sync.Mutex
	themes []string
}

func (e *echoRenderer) seen() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.themes...)
}

// Render echoes the source as the label of a foreignObject so the
// normalized output shows that the body reached the render stage.
func (e *echoRenderer) Render(_ context.Context, req render.Request) (string, error) {
	e.mu.Lock()
	e.themes = append(e.themes, req.Theme)
	e.mu.Unlock()
	if req.Contents == "broken" {
		return "<svg><g>", nil
	}
	return `<svg width="30" height="20"><g><foreignObject>` + req.Contents + `</foreignObject></g></svg>`, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *echoRenderer) {
	t.Helper()
	r := &echoRenderer{}
	conv := pipeline.NewConverter(pipeline.Options{Theme: "simple"}, r, stubRasterizer{}, nil)
	srv := httptest.NewServer(newServer(conv, log.New(io.Discard)).routes())
	t.Cleanup(srv.Close)
	return srv, r
}

func TestServeHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Build.Version == "" {
		t.Errorf("health = %+v", body)
	}
	if resp.Header.Get(headerRequestID) == "" {
		t.Error("missing request id header")
	}
}

func TestServeRender(t *testing.T) {
	srv, r := newTestServer(t)

	tests := []struct {
		name        string
		query       string
		body        string
		wantStatus  int
		wantType    string
		wantContent string
		wantTheme   string
	}{
		{"svg default theme", "", "Hello", http.StatusOK, "image/svg+xml", `<tspan x="0" y="14.5"`, "simple"},
		{"svg theme override", "?theme=hand", "Hi", http.StatusOK, "image/svg+xml", ">Hi</tspan>", "hand"},
		{"png", "?format=png", "Hello", http.StatusOK, "image/png", "PNG", "simple"},
		{"theme with spaces", "?theme=my%20theme", "Hi", http.StatusOK, "image/svg+xml", ">Hi</tspan>", "my theme"},
		{"bad theme", "?theme=%FF", "x", http.StatusBadRequest, "application/json", `"code":"INVALID_INPUT"`, ""},
		{"bad format", "?format=gif", "x", http.StatusBadRequest, "application/json", "unsupported format", ""},
		{"malformed svg", "", "broken", http.StatusUnprocessableEntity, "application/json", `"code":"PARSE"`, "simple"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(r.seen())
			resp, err := http.Post(srv.URL+"/render"+tt.query, "text/plain", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			data, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.wantStatus, data)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.wantType {
				t.Errorf("content type = %q, want %q", got, tt.wantType)
			}
			if !strings.Contains(string(data), tt.wantContent) {
				t.Errorf("body = %s, want it to contain %s", data, tt.wantContent)
			}
			themes := r.seen()
			if tt.wantTheme != "" {
				if len(themes) != before+1 || themes[len(themes)-1] != tt.wantTheme {
					t.Errorf("render themes = %v, want last %q", themes, tt.wantTheme)
				}
			} else if len(themes) != before {
				t.Error("invalid requests must not reach the renderer")
			}
		})
	}
}

func TestServeMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/render")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /render status = %d, want 405", resp.StatusCode)
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	statuses chan int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.statuses <- status
}

func TestServeHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{statuses: make(chan int, 1)}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	select {
	case status := <-hooks.statuses:
		if status != http.StatusOK {
			t.Errorf("hook status = %d", status)
		}
	case <-time.After(time.Second):
		t.Fatal("OnResponse not called")
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(io.EOF); got != http.StatusInternalServerError {
		t.Errorf("statusFor(uncoded) = %d", got)
	}
}
