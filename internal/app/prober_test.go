package app

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/restprobe/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		AppName:                "restprobe",
		LogLevel:               "error",
		ChecksFile:             filepath.Join(dir, "checks.yaml"),
		PublishersFile:         filepath.Join(dir, "missing-publishers.yaml"),
		ProbeInterval:          time.Hour,
		RequestTimeout:         5 * time.Second,
		UserAgent:              "restprobe-test",
		StorageType:            "none",
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			if ua := r.Header.Get("User-Agent"); ua != "restprobe-test" {
				http.Error(w, "bad agent "+ua, http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, "ok")
		case "/items":
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, "duplicate")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProberRunOnce(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeFile(t, dir, "checks.yaml", fmt.Sprintf(`
checks:
  - id: health
    url: %[1]s/health
  - id: items
    method: post
    url: %[1]s/items
    expect: [201, 200]
    data:
      name: widget
  - id: skipped
    url: %[1]s/nowhere
    enabled: false
`, srv.URL))

	p, err := NewProber(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewProber: %v", err)
	}
	defer p.Close()

	report, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(report.Results) != 2 || report.Requests != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].CheckID != "items" || failed[0].StatusCode != http.StatusConflict {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	if got := p.Client().MethodErrors()[srv.URL+"/items"]; got != http.MethodPost {
		t.Fatalf("method error = %q", got)
	}
}

func TestProberVerboseTrace(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeFile(t, dir, "other.yaml", fmt.Sprintf("checks:\n  - id: health\n    url: %s/health\n", srv.URL))

	var trace bytes.Buffer
	p, err := NewProber(context.Background(), cfg, nil,
		WithChecksFile(filepath.Join(dir, "other.yaml")),
		WithVerbose(true),
		WithTraceWriter(&trace),
	)
	if err != nil {
		t.Fatalf("NewProber: %v", err)
	}
	defer p.Close()

	if _, err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !strings.Contains(trace.String(), "Response Status OK for "+srv.URL+"/health") {
		t.Fatalf("trace missing OK line:\n%s", trace.String())
	}
}

func TestProberRequiresPublishersWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.PublishersRequired = true
	writeFile(t, dir, "checks.yaml", "checks:\n  - id: a\n    url: https://example.com\n")

	if _, err := NewProber(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error when publishers are required but missing")
	}
}

func TestProberRejectsBadChecksFile(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeFile(t, dir, "checks.yaml", "checks:\n  - url: https://example.com\n")

	if _, err := NewProber(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected validation error for check without id")
	}
}

func TestProberRunStopsOnCancel(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeFile(t, dir, "checks.yaml", fmt.Sprintf("checks:\n  - id: health\n    url: %s/health\n", srv.URL))

	p, err := NewProber(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewProber: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestNewProberNilConfig(t *testing.T) {
	if _, err := NewProber(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
