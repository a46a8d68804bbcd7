// Package cleanup finds and clears sessions that hold no real user
// content: empty sessions, and sessions whose only user messages are
// authentication-failure artifacts.
package cleanup

import (
	"errors"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yjkwon/ccjanitor/internal/core/store"
	"github.com/yjkwon/ccjanitor/pkg/ccsessions"
)

// Candidate is one session eligible for cleanup.
type Candidate struct {
	Project   string           `json:"project_name"`
	SessionID string           `json:"session_id"`
	Class     ccsessions.Class `json:"-"`
	ClassName string           `json:"classification"`
	Snippet   string           `json:"snippet"`
	FileSize  int64            `json:"file_size"`
}

// ClearError records one failed deletion in a Clear batch.
type ClearError struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// ClearResult summarizes a Clear run. Skipped counts files that could not
// be classified (unreadable or unscannable); Errors holds per-session
// deletion failures. A failure never aborts the batch.
type ClearResult struct {
	Deleted []Candidate  `json:"deleted"`
	Skipped int          `json:"skipped_count"`
	Errors  []ClearError `json:"errors"`
}

// Options narrows a cleanup run. The zero value means every project, both
// classes.
type Options struct {
	Project   string // limit to one project ("" = all)
	KeepEmpty bool   // leave empty sessions alone
	KeepAuth  bool   // leave auth-failure sessions alone
}

// Cleaner classifies sessions across the tree and deletes the cleanable
// ones through the store's backup-safe mutator.
type Cleaner struct {
	store      *store.Store
	signatures []string
	log        *zap.Logger
}

// New creates a Cleaner. extraSignatures extends the built-in
// auth-failure set; log may be nil.
func New(st *store.Store, extraSignatures []string, log *zap.Logger) *Cleaner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cleaner{store: st, signatures: extraSignatures, log: log}
}

// Preview scans without modifying anything and returns every cleanup
// candidate, grouped project by project. Files that fail to open or scan
// are excluded, never fatal; skipped reports how many were excluded.
func (c *Cleaner) Preview(opts Options) (candidates []Candidate, skipped int, err error) {
	var projects []string
	if opts.Project != "" {
		// Surface a bad project name instead of silently scanning nothing.
		if _, err := c.store.SessionPaths(opts.Project); err != nil {
			return nil, 0, err
		}
		projects = []string{opts.Project}
	} else {
		all, err := c.store.ListProjects()
		if err != nil {
			return nil, 0, err
		}
		for _, p := range all {
			projects = append(projects, p.Name)
		}
	}

	candidates = []Candidate{}
	for _, project := range projects {
		paths, err := c.store.SessionPaths(project)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue // raced with an external delete
			}
			return nil, 0, err
		}

		for _, path := range paths {
			cand, ok := c.classify(project, path, opts)
			if cand == nil && !ok {
				skipped++
				continue
			}
			if cand != nil {
				candidates = append(candidates, *cand)
			}
		}
	}
	return candidates, skipped, nil
}

// classify examines one file. cand is non-nil when the session is a
// cleanup candidate; ok is false when the file could not be scanned.
func (c *Cleaner) classify(project, path string, opts Options) (cand *Candidate, ok bool) {
	parsed, err := ccsessions.ParseFile(path)
	if err != nil {
		c.log.Warn("skipping unscannable session", zap.String("path", path), zap.Error(err))
		return nil, false
	}

	class := parsed.Classify(c.signatures)
	switch class {
	case ccsessions.ClassEmpty:
		if opts.KeepEmpty {
			return nil, true
		}
	case ccsessions.ClassInvalid:
		if opts.KeepAuth {
			return nil, true
		}
	default:
		return nil, true
	}

	return &Candidate{
		Project:   project,
		SessionID: parsed.SessionID,
		Class:     class,
		ClassName: class.String(),
		Snippet:   snippet(parsed),
		FileSize:  parsed.FileSize,
	}, true
}

// Clear re-runs classification and deletes every candidate. Each deletion
// failure is captured in the result instead of aborting the rest.
func (c *Cleaner) Clear(opts Options) (*ClearResult, error) {
	candidates, skipped, err := c.Preview(opts)
	if err != nil {
		return nil, err
	}

	result := &ClearResult{Deleted: []Candidate{}, Skipped: skipped, Errors: []ClearError{}}
	for _, cand := range candidates {
		if _, err := c.store.DeleteSession(cand.Project, cand.SessionID); err != nil {
			c.log.Warn("failed to delete session",
				zap.String("project", cand.Project), zap.String("session", cand.SessionID), zap.Error(err))
			result.Errors = append(result.Errors, ClearError{SessionID: cand.SessionID, Reason: err.Error()})
			continue
		}
		result.Deleted = append(result.Deleted, cand)
	}
	return result, nil
}

// snippet picks a short description for a candidate: the auth-failure
// text for invalid sessions, a file name hint for empty ones.
func snippet(s *ccsessions.Session) string {
	if text, ok := s.FirstUserText(); ok && text != "" {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
		runes := []rune(text)
		if len(runes) > 80 {
			text = string(runes[:80]) + "..."
		}
		return text
	}
	return "(no user messages) " + filepath.Base(s.FilePath)
}
