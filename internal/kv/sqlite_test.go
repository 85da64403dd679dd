package kv

import (
	"path/filepath"
	"testing"
)

func TestSQLiteRoundTrip(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.sqlite"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get("missing"); err != nil || ok {
		t.Fatalf("expected miss for absent key, ok=%v err=%v", ok, err)
	}

	if err := store.Set("a", "one"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set("a", "two"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, ok, err := store.Get("a")
	if err != nil || !ok {
		t.Fatalf("get after set: ok=%v err=%v", ok, err)
	}
	if got != "two" {
		t.Fatalf("expected last write to win, got %q", got)
	}

	if err := store.Delete("a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get("a"); ok {
		t.Fatalf("expected key gone after delete")
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.sqlite")

	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := store.Set("session:abc", `[{"role":"user"}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Get("session:abc")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if got != `[{"role":"user"}]` {
		t.Fatalf("unexpected value after reopen: %q", got)
	}
}
