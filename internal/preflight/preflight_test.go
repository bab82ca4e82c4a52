package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediaflow/internal/capability"
	"mediaflow/internal/config"
	"mediaflow/internal/content"
	"mediaflow/internal/store"
	"mediaflow/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckStateLock(t *testing.T) {
	dir := t.TempDir()
	if result := CheckStateLock(dir); !result.Passed {
		t.Fatalf("expected free lock, got %s", result.Detail)
	}

	lock, err := store.AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Release()
	result := CheckStateLock(dir)
	if result.Passed {
		t.Fatal("expected held lock to fail the check")
	}
	if len(Blocking([]Result{result})) != 1 {
		t.Fatal("held lock should block a run")
	}
}

func llmServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		})
	}))
}

func TestCheckLLM_OK(t *testing.T) {
	srv := llmServer(t, http.StatusOK, `{"ok":true}`)
	defer srv.Close()

	result := CheckLLM(context.Background(), "Vision LLM", config.LLM{APIKey: "key", BaseURL: srv.URL})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckLLM_MissingKey(t *testing.T) {
	result := CheckLLM(context.Background(), "Vision LLM", config.LLM{})
	if result.Passed || result.Detail != "API key missing" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckLLM_RateLimited(t *testing.T) {
	srv := llmServer(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	result := CheckLLM(context.Background(), "Vision LLM", config.LLM{APIKey: "key", BaseURL: srv.URL})
	if result.Passed || !strings.Contains(result.Detail, "rate limited") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunAllSkipsLLMWhenDetectorDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	results := RunAll(context.Background(), cfg)
	for _, r := range results {
		if r.Name == "Vision LLM" {
			t.Fatal("LLM check should be skipped when detector is none")
		}
	}
	if failed := Blocking(results); len(failed) != 0 {
		t.Fatalf("unexpected blocking failures: %+v", failed)
	}
}

func TestRunAllChecksLLMWhenConfigured(t *testing.T) {
	srv := llmServer(t, http.StatusOK, `{"ok":true}`)
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithLLM(srv.URL))
	results := RunAll(context.Background(), cfg)
	var found bool
	for _, r := range results {
		if r.Name == "Vision LLM" {
			found = true
			if !r.Passed {
				t.Fatalf("LLM check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected LLM check")
	}
	if len(Blocking(results)) == 0 {
		t.Fatal("missing directories should block")
	}
}

func TestCheckCapabilitiesIsAdvisory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	analyst := content.New(cfg, nil, nil)
	registry, err := capability.NewRegistry(analyst)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	results := CheckCapabilities(context.Background(), registry)
	if len(results) != 1 || results[0].Passed || !results[0].Advisory {
		t.Fatalf("unexpected results %+v", results)
	}
	if len(Blocking(results)) != 0 {
		t.Fatal("capability health should not block")
	}
}
