package ccsessions

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Session represents a fully parsed session file
type Session struct {
	SessionID string
	FilePath  string
	FileSize  int64
	FileMtime time.Time
	Lines     []Line
}

// rawEntry represents a raw JSONL line
type rawEntry struct {
	Type      string          `json:"type"`
	Summary   string          `json:"summary,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// contentBlock is one element of a block-array message content
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ideTagRe matches IDE context wrappers Claude Code injects into user
// messages. They are not user-authored content.
var ideTagRe = regexp.MustCompile(`(?s)<ide_[^>]*>.*?</ide_[^>]*>`)

// ParseFile parses a Claude Code session JSONL file. Every line is decoded
// independently; a line that fails structural parsing is retained as an
// Unparseable record rather than aborting the parse, so a corrupt trailing
// line never hides the preceding data.
func ParseFile(path string) (session *Session, err error) {
	file, ferr := os.Open(path)
	if ferr != nil {
		return nil, fmt.Errorf("failed to open file: %w", ferr)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	sessionID := filepath.Base(path)
	sessionID = sessionID[:len(sessionID)-len(filepath.Ext(sessionID))]

	session = &Session{
		SessionID: sessionID,
		FilePath:  path,
		FileSize:  info.Size(),
		FileMtime: info.ModTime(),
		Lines:     make([]Line, 0),
	}

	// Configure scanner with larger buffer for long lines (10MB max)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		raw := make([]byte, len(scanner.Bytes()))
		copy(raw, scanner.Bytes())
		// Blank lines are kept (as Unparseable) so rewrites reproduce the
		// file exactly.
		session.Lines = append(session.Lines, Line{Raw: raw, Record: decodeLine(raw)})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return session, nil
}

// decodeLine turns one raw line into a Record. It never fails: anything
// that does not decode becomes Unparseable.
func decodeLine(raw []byte) Record {
	var entry rawEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Unparseable{}
	}

	switch entry.Type {
	case "user", "assistant":
		text, toolKind := extractText(entry.Message)
		if text != "" {
			return Turn{Role: Role(entry.Type), Text: text, Timestamp: entry.Timestamp}
		}
		if toolKind != "" {
			return ToolEvent{Kind: toolKind}
		}
		return Meta{Kind: entry.Type}
	case "summary":
		return Meta{Kind: "summary", Summary: entry.Summary}
	default:
		return Meta{Kind: entry.Type}
	}
}

// extractText pulls the human-readable text out of a message payload. It
// handles both the block-array format and the older plain-string format.
// toolKind reports the kind of the first tool block when the entry carries
// tool scaffolding instead of text.
func extractText(message json.RawMessage) (text, toolKind string) {
	if len(message) == 0 {
		return "", ""
	}

	// Try array format first (newer format with tool_use/tool_result)
	var blockMsg struct {
		Content []contentBlock `json:"content"`
	}
	if err := json.Unmarshal(message, &blockMsg); err == nil && blockMsg.Content != nil {
		var parts []string
		for _, block := range blockMsg.Content {
			switch block.Type {
			case "text":
				if t := CleanText(block.Text); t != "" {
					parts = append(parts, t)
				}
			case "tool_use", "tool_result":
				if toolKind == "" {
					toolKind = block.Type
				}
			}
		}
		return strings.Join(parts, "\n"), toolKind
	}

	// Fall back to string format (older format)
	var strMsg struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(message, &strMsg); err == nil {
		return CleanText(strMsg.Content), ""
	}

	return "", ""
}

// CleanText strips IDE context wrappers and surrounding whitespace.
func CleanText(s string) string {
	return strings.TrimSpace(ideTagRe.ReplaceAllString(s, ""))
}

// MessageCount returns the number of conversational turns. Tool events,
// structural entries and unparseable lines do not count.
func (s *Session) MessageCount() int {
	n := 0
	for _, line := range s.Lines {
		if _, ok := line.Record.(Turn); ok {
			n++
		}
	}
	return n
}

// FirstUserText returns the trimmed text of the first user turn. ok is
// false when the session has no user turn.
func (s *Session) FirstUserText() (text string, ok bool) {
	for _, line := range s.Lines {
		if turn, isTurn := line.Record.(Turn); isTurn && turn.Role == RoleUser {
			return strings.TrimSpace(turn.Text), true
		}
	}
	return "", false
}

// Summary returns the summary entry text, if the file has one.
func (s *Session) Summary() string {
	for _, line := range s.Lines {
		if meta, ok := line.Record.(Meta); ok && meta.Kind == "summary" {
			return meta.Summary
		}
	}
	return ""
}

// Title derives a display title: the first paragraph of the first user
// message capped at 100 runes, falling back to a short session ID.
func (s *Session) Title() string {
	text, ok := s.FirstUserText()
	if !ok || text == "" {
		short := s.SessionID
		if len(short) > 8 {
			short = short[:8]
		}
		return "Session " + short
	}
	if i := strings.Index(text, "\n\n"); i >= 0 {
		text = text[:i]
	} else if i := strings.Index(text, "\n"); i >= 0 {
		text = text[:i]
	}
	runes := []rune(text)
	if len(runes) > 100 {
		text = string(runes[:100])
	}
	return text
}

// CreatedAt returns the earliest turn timestamp, falling back to the file
// mtime when no turn carries one.
func (s *Session) CreatedAt() time.Time {
	return s.turnTime(func(current, candidate time.Time) bool {
		return current.IsZero() || candidate.Before(current)
	})
}

// UpdatedAt returns the latest turn timestamp, falling back to the file
// mtime.
func (s *Session) UpdatedAt() time.Time {
	return s.turnTime(func(current, candidate time.Time) bool {
		return current.IsZero() || candidate.After(current)
	})
}

func (s *Session) turnTime(better func(current, candidate time.Time) bool) time.Time {
	var picked time.Time
	for _, line := range s.Lines {
		turn, ok := line.Record.(Turn)
		if !ok || turn.Timestamp == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, turn.Timestamp)
		if err != nil {
			continue
		}
		if better(picked, t) {
			picked = t
		}
	}
	if picked.IsZero() {
		return s.FileMtime
	}
	return picked
}
