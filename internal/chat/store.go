package chat

import (
	"encoding/json"
	"fmt"

	"medguide/internal/kv"
)

// Keys names the storage slots used by SessionStore: one fixed key for
// the history index and one derived key per session transcript. Key
// strings must stay stable across restarts; changing them orphans
// previously saved sessions.
type Keys struct {
	History          string
	TranscriptPrefix string
}

func DefaultKeys() Keys {
	return Keys{
		History:          "chat:history",
		TranscriptPrefix: "chat:session:",
	}
}

// SessionStore persists transcripts and the history index as JSON in a
// key-value store. Reads degrade to empty on absent or malformed data;
// a corrupt value must never crash the caller.
type SessionStore struct {
	store kv.Store
	keys  Keys
}

func NewSessionStore(store kv.Store, keys Keys) *SessionStore {
	if keys.History == "" || keys.TranscriptPrefix == "" {
		keys = DefaultKeys()
	}
	return &SessionStore{store: store, keys: keys}
}

func (s *SessionStore) transcriptKey(sessionID string) string {
	return s.keys.TranscriptPrefix + sessionID
}

func (s *SessionStore) SaveTranscript(sessionID string, messages []Message) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := s.store.Set(s.transcriptKey(sessionID), string(raw)); err != nil {
		return fmt.Errorf("save transcript %s: %w", sessionID, err)
	}
	return nil
}

func (s *SessionStore) LoadTranscript(sessionID string) []Message {
	raw, ok, err := s.store.Get(s.transcriptKey(sessionID))
	if err != nil || !ok {
		return nil
	}
	var messages []Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil
	}
	return messages
}

func (s *SessionStore) DeleteTranscript(sessionID string) error {
	if err := s.store.Delete(s.transcriptKey(sessionID)); err != nil {
		return fmt.Errorf("delete transcript %s: %w", sessionID, err)
	}
	return nil
}

func (s *SessionStore) SaveHistory(entries []HistoryEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode history index: %w", err)
	}
	if err := s.store.Set(s.keys.History, string(raw)); err != nil {
		return fmt.Errorf("save history index: %w", err)
	}
	return nil
}

func (s *SessionStore) LoadHistory() []HistoryEntry {
	raw, ok, err := s.store.Get(s.keys.History)
	if err != nil || !ok {
		return nil
	}
	var entries []HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	return entries
}
