package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func guardServer(t *testing.T) (*httptest.Server, *GuardConfig) {
	t.Helper()
	cfg := &GuardConfig{
		TemplateFormat:    "[<Module>][<Type>] <Description>",
		CustomRules:       "1. <Module>: [Backend], [Frontend]. 2. <Type>: [Feat], [Fix].",
		CIIntervalMinutes: 60,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(cfg)
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(cfg); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"status": "updated", "config": cfg})
		}
	})
	mux.HandleFunc("/api/v1/ci/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CIStatus{LastRun: "2024-06-01 10:00:00", Status: "Success", Details: "12 passed"})
	})
	mux.HandleFunc("/api/v1/ci/run", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "Triggered"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, cfg
}

func TestGuardConfigRoundTrip(t *testing.T) {
	srv, _ := guardServer(t)
	client := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	got, err := client.FetchGuardConfig(ctx)
	if err != nil {
		t.Fatalf("fetch config: %v", err)
	}
	if got.TemplateFormat != "[<Module>][<Type>] <Description>" || got.CIIntervalMinutes != 60 {
		t.Fatalf("unexpected config: %+v", got)
	}

	got.GithubRepoURL = "https://github.com/acme/app.git"
	got.CIIntervalMinutes = 15
	updated, err := client.UpdateGuardConfig(ctx, got)
	if err != nil {
		t.Fatalf("update config: %v", err)
	}
	if updated.GithubRepoURL != "https://github.com/acme/app.git" || updated.CIIntervalMinutes != 15 {
		t.Fatalf("update not echoed back: %+v", updated)
	}

	again, err := client.FetchGuardConfig(ctx)
	if err != nil {
		t.Fatalf("refetch config: %v", err)
	}
	if again != updated {
		t.Fatalf("server state drifted: %+v != %+v", again, updated)
	}
}

func TestFetchCIStatus(t *testing.T) {
	srv, _ := guardServer(t)

	status, err := NewClient(srv.URL, time.Second).FetchCIStatus(context.Background())
	if err != nil {
		t.Fatalf("fetch status: %v", err)
	}
	if status.Status != "Success" || status.LastRun == "" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestTriggerCI(t *testing.T) {
	srv, _ := guardServer(t)

	if err := NewClient(srv.URL, time.Second).TriggerCI(context.Background()); err != nil {
		t.Fatalf("trigger: %v", err)
	}
}
