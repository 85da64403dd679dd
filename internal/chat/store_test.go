package chat

import (
	"reflect"
	"testing"

	"medguide/internal/kv"
)

func TestTranscriptRoundTrip(t *testing.T) {
	s := NewSessionStore(kv.NewMemory(), DefaultKeys())

	in := []Message{
		{ID: "m1", Role: RoleAssistant, Text: "welcome"},
		{ID: "m2", Role: RoleUser, Text: "question"},
		{ID: "m3", Role: RoleAssistant, Text: "answer", Cases: []ReferenceCase{
			{ID: 1, Question: "q", Answer: "a", Department: "cardiology"},
		}},
	}
	if err := s.SaveTranscript("sess-1", in); err != nil {
		t.Fatalf("save transcript: %v", err)
	}

	out := s.LoadTranscript("sess-1")
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestLoadTranscriptAbsentReturnsEmpty(t *testing.T) {
	s := NewSessionStore(kv.NewMemory(), DefaultKeys())
	if got := s.LoadTranscript("nope"); len(got) != 0 {
		t.Fatalf("expected empty transcript, got %+v", got)
	}
}

func TestLoadMalformedDataReturnsEmpty(t *testing.T) {
	mem := kv.NewMemory()
	keys := DefaultKeys()
	s := NewSessionStore(mem, keys)

	if err := mem.Set(keys.TranscriptPrefix+"bad", `{not json`); err != nil {
		t.Fatalf("seed malformed transcript: %v", err)
	}
	if err := mem.Set(keys.History, `42`); err != nil {
		t.Fatalf("seed malformed history: %v", err)
	}

	if got := s.LoadTranscript("bad"); got != nil {
		t.Fatalf("malformed transcript should read as empty, got %+v", got)
	}
	if got := s.LoadHistory(); got != nil {
		t.Fatalf("malformed history should read as empty, got %+v", got)
	}
}

func TestDeleteTranscriptRemovesKey(t *testing.T) {
	s := NewSessionStore(kv.NewMemory(), DefaultKeys())

	if err := s.SaveTranscript("gone", []Message{{ID: "m", Role: RoleUser, Text: "x"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.DeleteTranscript("gone"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := s.LoadTranscript("gone"); len(got) != 0 {
		t.Fatalf("transcript survived delete: %+v", got)
	}
}

func TestHistoryRoundTripKeepsOrder(t *testing.T) {
	s := NewSessionStore(kv.NewMemory(), DefaultKeys())

	in := []HistoryEntry{
		{ID: "newest", Title: "What should ..."},
		{ID: "older", Title: "Hi"},
	}
	if err := s.SaveHistory(in); err != nil {
		t.Fatalf("save history: %v", err)
	}
	out := s.LoadHistory()
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("history order not preserved:\n in=%+v\nout=%+v", in, out)
	}
}

func TestSessionKeysDoNotCollide(t *testing.T) {
	mem := kv.NewMemory()
	s := NewSessionStore(mem, DefaultKeys())

	a := []Message{{ID: "a", Role: RoleUser, Text: "session a"}}
	b := []Message{{ID: "b", Role: RoleUser, Text: "session b"}}
	if err := s.SaveTranscript("a", a); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := s.SaveTranscript("b", b); err != nil {
		t.Fatalf("save b: %v", err)
	}

	if got := s.LoadTranscript("a"); got[0].Text != "session a" {
		t.Fatalf("transcript a clobbered: %+v", got)
	}
	if got := s.LoadTranscript("b"); got[0].Text != "session b" {
		t.Fatalf("transcript b clobbered: %+v", got)
	}
}
