package chat

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultWelcome seeds every fresh session as its first assistant turn.
	DefaultWelcome = "Hello! I'm your medical assistant. Describe your symptoms or ask a health question, and I'll answer along with similar cases from the archive."

	// FailureText replaces a pending placeholder when the answering
	// service cannot be reached. Every failure kind reads the same.
	FailureText = "Sorry, I couldn't reach the assistant service. Please try again."

	titleRuneLimit = 12
)

var (
	ErrBusy  = errors.New("a question is already in flight")
	ErrEmpty = errors.New("empty question")
)

// Request identifies one outstanding ask. Resolve only applies a result
// whose request still matches the controller's current sequence and
// session, so answers that arrive after a switch, delete, or new-session
// transition are discarded instead of mutating an unrelated log.
type Request struct {
	SessionID     string
	Seq           int
	PlaceholderID string
	Question      string
}

// Controller is the single source of truth for the active session. All
// methods are meant to be called from one goroutine (the UI event loop);
// network work happens outside and re-enters through Resolve.
type Controller struct {
	store   *SessionStore
	welcome string

	sessionID string
	messages  []Message
	history   []HistoryEntry

	sending bool
	typing  bool
	seq     int

	storeErr error
}

func NewController(store *SessionStore, welcome string) *Controller {
	if welcome == "" {
		welcome = DefaultWelcome
	}
	c := &Controller{store: store, welcome: welcome}
	c.history = store.LoadHistory()
	c.StartNew()
	return c
}

// StartNew resets the log to a freshly seeded session. Any outstanding
// request is abandoned; its late result will fail the Resolve guard.
func (c *Controller) StartNew() {
	c.seq++
	c.sessionID = uuid.NewString()
	c.messages = []Message{{
		ID:   uuid.NewString(),
		Role: RoleAssistant,
		Text: c.welcome,
	}}
	c.sending = false
	c.typing = false
}

// Load replaces the active session with a persisted transcript. An
// absent or empty transcript is a silent no-op: the current session
// stays active and no state changes.
func (c *Controller) Load(sessionID string) bool {
	messages := c.store.LoadTranscript(sessionID)
	if len(messages) == 0 {
		return false
	}
	c.seq++
	c.sessionID = sessionID
	c.messages = messages
	c.sending = false
	c.typing = false
	c.touchHistory(sessionID)
	return true
}

// Delete removes a session's history entry and transcript. Deleting the
// active session falls back to the most recent remaining entry, or to a
// fresh seeded session when none remain.
func (c *Controller) Delete(sessionID string) {
	kept := c.history[:0]
	for _, e := range c.history {
		if e.ID != sessionID {
			kept = append(kept, e)
		}
	}
	c.history = kept
	c.saveHistory()
	if err := c.store.DeleteTranscript(sessionID); err != nil {
		c.storeErr = err
	}

	if sessionID != c.sessionID {
		return
	}
	if len(c.history) > 0 && c.Load(c.history[0].ID) {
		return
	}
	c.StartNew()
}

// Send appends the user's question together with its loading placeholder
// in one state update, so the log never shows a question without a
// pending answer slot. At most one request may be outstanding: while
// sending or while the reveal animation plays, further sends are
// rejected without mutating anything.
func (c *Controller) Send(text string) (Request, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Request{}, ErrEmpty
	}
	if c.sending || c.typing {
		return Request{}, ErrBusy
	}

	placeholderID := uuid.NewString()
	c.messages = append(c.messages,
		Message{ID: uuid.NewString(), Role: RoleUser, Text: text},
		Message{ID: placeholderID, Role: RoleAssistant, Loading: true},
	)
	c.sending = true
	c.seq++

	c.saveTranscript()
	c.syncHistory()

	return Request{
		SessionID:     c.sessionID,
		Seq:           c.seq,
		PlaceholderID: placeholderID,
		Question:      text,
	}, nil
}

// Resolve replaces the request's placeholder in place. On success the
// controller enters the typing state until the view reports the reveal
// animation finished; on failure the fixed failure text is shown and the
// controller returns straight to idle. Results for stale requests are
// dropped. The returned bool reports whether the result was applied.
func (c *Controller) Resolve(req Request, ans Answer, err error) bool {
	if !c.sending || req.SessionID != c.sessionID || req.Seq != c.seq {
		return false
	}

	idx := c.indexOf(req.PlaceholderID)
	if idx < 0 {
		c.sending = false
		return false
	}

	if err != nil {
		c.messages[idx] = Message{ID: req.PlaceholderID, Role: RoleAssistant, Text: FailureText}
		c.sending = false
	} else {
		c.messages[idx] = Message{ID: req.PlaceholderID, Role: RoleAssistant, Text: ans.Text, Cases: ans.Cases}
		c.sending = false
		c.typing = true
	}
	c.saveTranscript()
	return true
}

// FinishReveal is the view's signal that the reveal animation completed.
func (c *Controller) FinishReveal() {
	c.typing = false
}

func (c *Controller) ActiveID() string { return c.sessionID }
func (c *Controller) Sending() bool    { return c.sending }
func (c *Controller) Typing() bool     { return c.typing }
func (c *Controller) Busy() bool       { return c.sending || c.typing }

// LastStoreError returns and clears the most recent persistence failure.
// Persistence is best effort: in-memory state stays authoritative and
// the UI surfaces the error in its status line.
func (c *Controller) LastStoreError() error {
	err := c.storeErr
	c.storeErr = nil
	return err
}

func (c *Controller) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Controller) History() []HistoryEntry {
	out := make([]HistoryEntry, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Controller) indexOf(messageID string) int {
	for i, m := range c.messages {
		if m.ID == messageID {
			return i
		}
	}
	return -1
}

func (c *Controller) saveTranscript() {
	if err := c.store.SaveTranscript(c.sessionID, c.messages); err != nil {
		c.storeErr = err
	}
}

func (c *Controller) saveHistory() {
	if err := c.store.SaveHistory(c.history); err != nil {
		c.storeErr = err
	}
}

// syncHistory keeps the index consistent with the active log: one entry
// per session with at least one user message, titled after the first
// user message, most recently active first.
func (c *Controller) syncHistory() {
	title := ""
	for _, m := range c.messages {
		if m.Role == RoleUser {
			title = deriveTitle(m.Text)
			break
		}
	}
	if title == "" {
		return
	}

	entry := HistoryEntry{ID: c.sessionID, Title: title}
	kept := make([]HistoryEntry, 0, len(c.history)+1)
	kept = append(kept, entry)
	for _, e := range c.history {
		if e.ID != c.sessionID {
			kept = append(kept, e)
		}
	}
	c.history = kept
	c.saveHistory()
}

// touchHistory moves a session to the front of the index on activation.
func (c *Controller) touchHistory(sessionID string) {
	idx := -1
	for i, e := range c.history {
		if e.ID == sessionID {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return
	}
	entry := c.history[idx]
	c.history = append(c.history[:idx], c.history[idx+1:]...)
	c.history = append([]HistoryEntry{entry}, c.history...)
	c.saveHistory()
}

func deriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleRuneLimit {
		return text
	}
	return string(runes[:titleRuneLimit]) + "..."
}
