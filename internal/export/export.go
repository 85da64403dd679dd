// Package export writes a session transcript as a markdown document so
// a consultation can be archived or shared outside the client.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"medguide/internal/chat"
)

type Exporter struct {
	overrideDir string
	cwd         string
}

func New(overrideDir string) (*Exporter, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve cwd: %w", err)
	}
	return &Exporter{overrideDir: strings.TrimSpace(overrideDir), cwd: cwd}, nil
}

func (e *Exporter) Export(sessionID, title string, messages []chat.Message) (string, error) {
	path := e.outputPath(sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	body := BuildTranscriptMarkdown(messages)
	md := BuildSessionMarkdown(sessionID, title, body, time.Now().UTC())
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// BuildTranscriptMarkdown renders the conversational turns. Unresolved
// placeholders are dropped: an export taken mid-request shows the
// question without a fabricated answer.
func BuildTranscriptMarkdown(messages []chat.Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Loading {
			continue
		}
		content := strings.TrimSpace(m.Text)
		if content == "" {
			continue
		}

		switch m.Role {
		case chat.RoleUser:
			b.WriteString("## You\n\n")
			b.WriteString(content + "\n\n")
		case chat.RoleAssistant:
			b.WriteString("## Assistant\n\n")
			b.WriteString(content + "\n\n")
			writeReferenceCases(&b, m.Cases)
		}
	}
	return strings.TrimSpace(b.String()) + "\n"
}

func writeReferenceCases(b *strings.Builder, cases []chat.ReferenceCase) {
	if len(cases) == 0 {
		return
	}
	b.WriteString("### Reference cases\n\n")
	for _, c := range cases {
		header := fmt.Sprintf("%d. **%s**", c.ID, strings.TrimSpace(c.Question))
		if c.Department != "" {
			header += " _(" + c.Department + ")_"
		}
		b.WriteString(header + "\n\n")
		b.WriteString("   " + strings.TrimSpace(c.Answer) + "\n\n")
	}
}

func BuildSessionMarkdown(sessionID, title, transcript string, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Consultation " + sessionID + "\n\n")
	if strings.TrimSpace(title) != "" {
		b.WriteString("Topic: " + strings.TrimSpace(title) + "\n\n")
	}
	b.WriteString("Exported: " + now.Format(time.RFC3339) + "\n\n")
	b.WriteString(transcript)
	if !strings.HasSuffix(transcript, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

func (e *Exporter) outputPath(sessionID string) string {
	dir := e.overrideDir
	if dir == "" {
		dir = filepath.Join(e.cwd, "docs", "chats")
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(e.cwd, dir)
	}
	return filepath.Join(dir, safeFileName(sessionID)+".md")
}

func safeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "session"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(s)
}
