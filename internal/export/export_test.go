package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"medguide/internal/chat"
)

func TestBuildTranscriptMarkdown(t *testing.T) {
	msgs := []chat.Message{
		{ID: "m1", Role: chat.RoleAssistant, Text: "welcome"},
		{ID: "m2", Role: chat.RoleUser, Text: "what about my blood pressure?"},
		{ID: "m3", Role: chat.RoleAssistant, Text: "keep salt under 6g a day", Cases: []chat.ReferenceCase{
			{ID: 1, Question: "can I take dangshen?", Answer: "yes, in moderation", Department: "cardiology"},
		}},
	}

	md := BuildTranscriptMarkdown(msgs)

	wantOrder := []string{
		"## Assistant", "welcome",
		"## You", "what about my blood pressure?",
		"## Assistant", "keep salt under 6g a day",
		"### Reference cases", "1. **can I take dangshen?** _(cardiology)_", "yes, in moderation",
	}
	pos := 0
	for _, want := range wantOrder {
		idx := strings.Index(md[pos:], want)
		if idx < 0 {
			t.Fatalf("missing or out of order: %q\nin:\n%s", want, md)
		}
		pos += idx
	}
}

func TestBuildTranscriptMarkdownSkipsPlaceholders(t *testing.T) {
	msgs := []chat.Message{
		{ID: "m1", Role: chat.RoleUser, Text: "still waiting"},
		{ID: "m2", Role: chat.RoleAssistant, Loading: true},
	}
	md := BuildTranscriptMarkdown(msgs)
	if strings.Count(md, "##") != 1 {
		t.Fatalf("expected only the user turn, got:\n%s", md)
	}
}

func TestExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}

	path, err := e.Export("sess/1", "What should ...", []chat.Message{
		{ID: "m", Role: chat.RoleUser, Text: "hello"},
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("export landed outside override dir: %s", path)
	}
	if filepath.Base(path) != "sess_1.md" {
		t.Fatalf("unsafe file name: %s", filepath.Base(path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	content := string(raw)
	if !strings.Contains(content, "# Consultation sess/1") {
		t.Fatalf("missing header:\n%s", content)
	}
	if !strings.Contains(content, "Topic: What should ...") {
		t.Fatalf("missing topic line:\n%s", content)
	}
}

func TestBuildSessionMarkdownTimestamp(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	md := BuildSessionMarkdown("abc", "", "## You\n\nhi\n", now)
	if !strings.Contains(md, "Exported: 2024-06-01T12:00:00Z") {
		t.Fatalf("missing timestamp:\n%s", md)
	}
	if strings.Contains(md, "Topic:") {
		t.Fatalf("empty title should omit the topic line:\n%s", md)
	}
}
