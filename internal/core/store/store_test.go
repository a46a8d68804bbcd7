package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

const (
	userHello   = `{"type":"user","message":{"role":"user","content":[{"type":"text","text":"hello"}]},"timestamp":"2025-06-01T10:00:00Z"}`
	userLater   = `{"type":"user","message":{"role":"user","content":[{"type":"text","text":"newer session"}]},"timestamp":"2025-06-02T09:00:00Z"}`
	assistantHi = `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"hi there"}]},"timestamp":"2025-06-01T10:00:05Z"}`
)

func writeSession(t *testing.T, root, project, name string, lines ...string) string {
	t.Helper()
	dir := filepath.Join(root, project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListProjects(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-tmp-proj-b", "s1.jsonl", userHello)
	writeSession(t, root, "-tmp-proj-b", "s2.jsonl", userLater)
	writeSession(t, root, "-tmp-proj-a", "s1.jsonl", userHello, assistantHi)

	// Noise that must be skipped
	writeSession(t, root, "-tmp-proj-a", "notes.txt", "not a session")
	writeSession(t, root, "-tmp-proj-a", "agent-xyz.jsonl", userHello)
	if err := os.MkdirAll(filepath.Join(root, ".bak"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "-tmp-proj-a", BackupDirName), 0o755); err != nil {
		t.Fatal(err)
	}

	s := New(root, nil)
	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}

	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}
	if projects[0].Name != "-tmp-proj-a" || projects[1].Name != "-tmp-proj-b" {
		t.Errorf("projects not sorted by name: %v, %v", projects[0].Name, projects[1].Name)
	}
	if projects[0].SessionCount != 1 {
		t.Errorf("proj-a SessionCount = %d, want 1 (txt/agent/backup skipped)", projects[0].SessionCount)
	}
	if projects[1].SessionCount != 2 {
		t.Errorf("proj-b SessionCount = %d, want 2", projects[1].SessionCount)
	}
	if projects[1].TotalSize == 0 {
		t.Error("proj-b TotalSize should be nonzero")
	}
}

func TestListProjects_MissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("got %d projects, want 0", len(projects))
	}
}

func TestListSessions(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "proj", "old.jsonl", userHello, assistantHi)
	writeSession(t, root, "proj", "new.jsonl", userLater)

	s := New(root, nil)
	sessions, err := s.ListSessions("proj")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}

	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].SessionID != "new" {
		t.Errorf("sessions not sorted newest first: got %q first", sessions[0].SessionID)
	}
	if sessions[1].MessageCount != 2 {
		t.Errorf("old session MessageCount = %d, want 2", sessions[1].MessageCount)
	}
	if sessions[1].FirstUserText != "hello" {
		t.Errorf("FirstUserText = %q, want 'hello'", sessions[1].FirstUserText)
	}
}

func TestListSessions_NotFound(t *testing.T) {
	s := New(t.TempDir(), nil)
	_, err := s.ListSessions("ghost")
	if !isNotFound(err) {
		t.Errorf("ListSessions() error = %v, want ErrNotFound", err)
	}
}

func TestListSessions_RejectPathTraversal(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "proj", "s1.jsonl", userHello)

	s := New(root, nil)
	for _, project := range []string{"..", "../proj", "a/b", ""} {
		if _, err := s.ListSessions(project); !isNotFound(err) {
			t.Errorf("ListSessions(%q) error = %v, want ErrNotFound", project, err)
		}
	}
}

func TestDecodeProjectName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"-tmp-code-myapp", "/tmp/code/myapp"},
		{"-srv-sites-example-com", "/srv/sites/example.com"},
		{"-etc--config-app", "/etc/.config/app"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := DecodeProjectName(tt.in); got != tt.want {
			t.Errorf("DecodeProjectName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
