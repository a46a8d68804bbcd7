package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yjkwon/ccjanitor/pkg/ccsessions"
)

// ErrNotFound reports a project or session that does not exist on disk.
var ErrNotFound = errors.New("not found")

// ErrEmptySession reports a rename target with no user message to prefix.
var ErrEmptySession = errors.New("session has no user message")

// BackupDirName is the per-project subdirectory that holds deleted
// sessions. It is skipped during enumeration.
const BackupDirName = ".bak"

const sessionExt = ".jsonl"

// Store reads and mutates the session tree under a single root directory
// (one subdirectory per project, one .jsonl file per session).
type Store struct {
	root string
	log  *zap.Logger
}

// New creates a Store over root. log may be nil.
func New(root string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{root: root, log: log}
}

// Root returns the projects root directory.
func (s *Store) Root() string {
	return s.root
}

// DefaultRoot returns the conventional Claude Code projects directory.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// Project summarizes one project directory.
type Project struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	SessionCount int    `json:"session_count"`
	TotalSize    int64  `json:"total_size"`
}

// SessionSummary is the listing view of one session file.
type SessionSummary struct {
	SessionID     string    `json:"session_id"`
	Title         string    `json:"title"`
	MessageCount  int       `json:"message_count"`
	FirstUserText string    `json:"first_user_text,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	FileSize      int64     `json:"file_size"`
}

// ListProjects lists project directories under the root, sorted by name.
// A missing root is not an error: there are simply no projects yet.
func (s *Store) ListProjects() ([]Project, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []Project{}, nil
		}
		return nil, fmt.Errorf("failed to read projects root: %w", err)
	}

	projects := []Project{}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		files, err := s.sessionFiles(entry.Name())
		if err != nil {
			s.log.Warn("skipping unreadable project", zap.String("project", entry.Name()), zap.Error(err))
			continue
		}

		var total int64
		for _, f := range files {
			if info, err := f.Info(); err == nil {
				total += info.Size()
			}
		}

		projects = append(projects, Project{
			Name:         entry.Name(),
			DisplayName:  DecodeProjectName(entry.Name()),
			SessionCount: len(files),
			TotalSize:    total,
		})
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// ListSessions lists the sessions of one project, newest first. Returns
// ErrNotFound when the project directory does not exist. Files that fail
// to parse are logged and skipped, never fatal.
func (s *Store) ListSessions(project string) ([]SessionSummary, error) {
	files, err := s.sessionFiles(project)
	if err != nil {
		return nil, err
	}

	sessions := []SessionSummary{}
	for _, f := range files {
		parsed, err := ccsessions.ParseFile(filepath.Join(s.root, project, f.Name()))
		if err != nil {
			s.log.Warn("skipping unparseable session",
				zap.String("project", project), zap.String("file", f.Name()), zap.Error(err))
			continue
		}

		summary := SessionSummary{
			SessionID:    parsed.SessionID,
			Title:        parsed.Title(),
			MessageCount: parsed.MessageCount(),
			CreatedAt:    parsed.CreatedAt(),
			UpdatedAt:    parsed.UpdatedAt(),
			FileSize:     parsed.FileSize,
		}
		if text, ok := parsed.FirstUserText(); ok {
			summary.FirstUserText = text
		}
		sessions = append(sessions, summary)
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt) })
	return sessions, nil
}

// SessionPaths returns the on-disk paths of a project's session files,
// filtered the same way ListSessions filters. Returns ErrNotFound when the
// project does not exist.
func (s *Store) SessionPaths(project string) ([]string, error) {
	files, err := s.sessionFiles(project)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, filepath.Join(s.root, project, f.Name()))
	}
	return paths, nil
}

// validName rejects identifiers that could escape the tree when joined
// into a path. Project and session names never contain separators.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}

// sessionFiles returns the session file entries of a project, skipping the
// backup subdirectory, agent sidechain files, and anything that is not a
// .jsonl file.
func (s *Store) sessionFiles(project string) ([]os.DirEntry, error) {
	if !validName(project) {
		return nil, fmt.Errorf("project %s: %w", project, ErrNotFound)
	}
	dir := filepath.Join(s.root, project)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project %s: %w", project, ErrNotFound)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read project %s: %w", project, err)
	}

	files := []os.DirEntry{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != sessionExt || strings.HasPrefix(name, "agent-") {
			continue
		}
		files = append(files, entry)
	}
	return files, nil
}

// sessionPath returns the on-disk path for a session, or ErrNotFound when
// the file does not exist.
func (s *Store) sessionPath(project, sessionID string) (string, error) {
	if !validName(project) || !validName(sessionID) {
		return "", fmt.Errorf("session %s/%s: %w", project, sessionID, ErrNotFound)
	}
	path := filepath.Join(s.root, project, sessionID+sessionExt)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("session %s/%s: %w", project, sessionID, ErrNotFound)
	}
	return path, nil
}

// DecodeProjectName turns a dash-encoded project directory name back into
// a readable filesystem path. Directory names encode the working
// directory: "-Users-neil-code-myapp" becomes "/Users/neil/code/myapp",
// "--" marks a hidden directory, and a trailing extension-like segment
// ("-com", "-md", ...) is rejoined with a dot. The home prefix collapses
// to "~".
func DecodeProjectName(name string) string {
	if !strings.HasPrefix(name, "-") {
		return name
	}
	name = strings.ReplaceAll(name[1:], "--", "/.")

	parts := strings.Split(name, "-")
	if len(parts) > 1 {
		switch parts[len(parts)-1] {
		case "com", "org", "net", "io", "dev", "md", "txt", "py", "js", "ts", "go":
			parts[len(parts)-2] = parts[len(parts)-2] + "." + parts[len(parts)-1]
			parts = parts[:len(parts)-1]
		}
	}
	decoded := "/" + strings.Join(parts, "/")

	if home, err := os.UserHomeDir(); err == nil && strings.HasPrefix(decoded, home+"/") {
		decoded = "~" + decoded[len(home):]
	}
	return decoded
}
