// Package chat owns the conversation state of the assistant client: the
// active session's message log, the persisted history index, and the
// state machine that guards sends against overlapping requests.
package chat

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a session transcript. A message is immutable
// once created except for the single in-place replacement of a loading
// placeholder when its answer (or failure) arrives.
type Message struct {
	ID      string          `json:"id"`
	Role    string          `json:"role"`
	Text    string          `json:"text"`
	Loading bool            `json:"loading,omitempty"`
	Cases   []ReferenceCase `json:"cases,omitempty"`
}

// ReferenceCase is a retrieved question/answer pair attached to an
// assistant response. IDs are assigned as 1-based positions in the
// returned order and are never persisted independently of their message.
type ReferenceCase struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Department string `json:"department,omitempty"`
}

// Answer is a normalized response from the answering service.
type Answer struct {
	Text  string
	Cases []ReferenceCase
}

// HistoryEntry summarizes one session for the switcher list. The title
// is derived from the session's first user message.
type HistoryEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
