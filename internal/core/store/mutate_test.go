package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yjkwon/ccjanitor/pkg/ccsessions"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRenameSession(t *testing.T) {
	root := t.TempDir()
	toolLine := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"tu_1","name":"Bash","input":{"command":"ls"}}]},"uuid":"u-2"}`
	path := writeSession(t, root, "proj", "s1.jsonl", userHello, assistantHi, toolLine)

	s := New(root, nil)
	if err := s.RenameSession("proj", "s1", "Bug fix"); err != nil {
		t.Fatalf("RenameSession() error = %v", err)
	}

	parsed, err := ccsessions.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := parsed.FirstUserText()
	if !ok || text != "Bug fix\n\nhello" {
		t.Errorf("first user text = %q, want 'Bug fix\\n\\nhello'", text)
	}
	if got := parsed.MessageCount(); got != 2 {
		t.Errorf("MessageCount() = %d, want 2 (rename must not change counts)", got)
	}

	// Non-targeted lines survive byte-for-byte
	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[1] != assistantHi {
		t.Errorf("assistant line changed:\n got %s\nwant %s", lines[1], assistantHi)
	}
	if lines[2] != toolLine {
		t.Errorf("tool line changed:\n got %s\nwant %s", lines[2], toolLine)
	}

	// Rewritten line is still valid JSON with the timestamp intact
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("rewritten line is not valid JSON: %v", err)
	}
	if entry["timestamp"] != "2025-06-01T10:00:00Z" {
		t.Errorf("timestamp field lost: %v", entry["timestamp"])
	}
}

func TestRenameSession_Stacks(t *testing.T) {
	root := t.TempDir()
	path := writeSession(t, root, "proj", "s1.jsonl", userHello)

	s := New(root, nil)
	for i := 0; i < 2; i++ {
		if err := s.RenameSession("proj", "s1", "Title"); err != nil {
			t.Fatalf("RenameSession() #%d error = %v", i+1, err)
		}
	}

	parsed, err := ccsessions.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text, _ := parsed.FirstUserText()
	if text != "Title\n\nTitle\n\nhello" {
		t.Errorf("renaming twice should stack prefixes, got %q", text)
	}
}

func TestRenameSession_LegacyStringContent(t *testing.T) {
	root := t.TempDir()
	path := writeSession(t, root, "proj", "s1.jsonl",
		`{"type":"user","message":{"role":"user","content":"plain text"}}`)

	s := New(root, nil)
	if err := s.RenameSession("proj", "s1", "Title"); err != nil {
		t.Fatalf("RenameSession() error = %v", err)
	}

	parsed, err := ccsessions.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if text, _ := parsed.FirstUserText(); text != "Title\n\nplain text" {
		t.Errorf("first user text = %q", text)
	}
}

func TestRenameSession_IDEWrapperBlocks(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			// The wrapper and the real text share one block; parsing sees a
			// user turn here, so rename must succeed on it too.
			name: "wrapper and text in one block",
			line: `{"type":"user","message":{"role":"user","content":[{"type":"text","text":"<ide_selection>code</ide_selection>fix the bug"}]}}`,
			want: "Title\n\nfix the bug",
		},
		{
			name: "wrapper-only block precedes the real one",
			line: `{"type":"user","message":{"role":"user","content":[{"type":"text","text":"<ide_opened_file>main.go</ide_opened_file>"},{"type":"text","text":"fix the bug"}]}}`,
			want: "Title\n\nfix the bug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			path := writeSession(t, root, "proj", "s1.jsonl", tt.line)

			s := New(root, nil)
			if err := s.RenameSession("proj", "s1", "Title"); err != nil {
				t.Fatalf("RenameSession() error = %v", err)
			}

			parsed, err := ccsessions.ParseFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if text, _ := parsed.FirstUserText(); text != tt.want {
				t.Errorf("first user text = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestRenameSession_Errors(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "proj", "empty.jsonl",
		`{"type":"summary","summary":"nothing here"}`)

	s := New(root, nil)

	if err := s.RenameSession("ghost", "s1", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project: error = %v, want ErrNotFound", err)
	}
	if err := s.RenameSession("proj", "ghost", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing session: error = %v, want ErrNotFound", err)
	}
	if err := s.RenameSession("proj", "empty", "x"); !errors.Is(err, ErrEmptySession) {
		t.Errorf("empty session: error = %v, want ErrEmptySession", err)
	}
}

func TestDeleteSession(t *testing.T) {
	root := t.TempDir()
	path := writeSession(t, root, "proj", "s1.jsonl", userHello)

	s := New(root, nil)
	backupPath, err := s.DeleteSession("proj", "s1")
	if err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original file should be gone")
	}
	want := filepath.Join(root, "proj", BackupDirName, "s1.jsonl")
	if backupPath != want {
		t.Errorf("backup path = %q, want %q", backupPath, want)
	}
	if _, err := os.Stat(backupPath); err != nil {
		t.Errorf("backup file missing: %v", err)
	}

	// Enumeration no longer sees the session
	sessions, err := s.ListSessions("proj")
	if err != nil {
		t.Fatal(err)
	}
	for _, sess := range sessions {
		if sess.SessionID == "s1" {
			t.Error("deleted session still listed")
		}
	}
}

func TestDeleteSession_BackupCollision(t *testing.T) {
	root := t.TempDir()
	s := New(root, nil)

	// Delete, recreate, delete again: first backup must not be clobbered.
	writeSession(t, root, "proj", "s1.jsonl", userHello)
	first, err := s.DeleteSession("proj", "s1")
	if err != nil {
		t.Fatal(err)
	}

	writeSession(t, root, "proj", "s1.jsonl", userLater)
	second, err := s.DeleteSession("proj", "s1")
	if err != nil {
		t.Fatal(err)
	}

	if second == first {
		t.Fatalf("collision not disambiguated: both backups at %q", first)
	}
	want := filepath.Join(root, "proj", BackupDirName, "s1.jsonl.1")
	if second != want {
		t.Errorf("second backup = %q, want %q", second, want)
	}
	for _, p := range []string{first, second} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("backup %q missing: %v", p, err)
		}
	}
}

func TestMutators_RejectPathTraversal(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "proj", "s1.jsonl", userHello)
	// A file one level up that a crafted session id could reach.
	victim := filepath.Join(root, "victim.jsonl")
	if err := os.WriteFile(victim, []byte(userHello+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(root, nil)
	for _, id := range []string{"../victim", "..", "a/b", `a\b`, ""} {
		if _, err := s.DeleteSession("proj", id); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteSession(%q) error = %v, want ErrNotFound", id, err)
		}
		if err := s.RenameSession("proj", id, "x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("RenameSession(%q) error = %v, want ErrNotFound", id, err)
		}
	}
	if _, err := s.DeleteSession("../..", "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteSession with traversal project: error = %v, want ErrNotFound", err)
	}

	if _, err := os.Stat(victim); err != nil {
		t.Errorf("file outside the project was touched: %v", err)
	}
}

func TestDeleteSession_NotFound(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "proj", "s1.jsonl", userHello)

	s := New(root, nil)
	if _, err := s.DeleteSession("proj", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	// No filesystem changes: no backup dir appeared
	if _, err := os.Stat(filepath.Join(root, "proj", BackupDirName)); !os.IsNotExist(err) {
		t.Error("backup dir should not be created for a failed delete")
	}
}
