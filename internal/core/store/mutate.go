package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yjkwon/ccjanitor/pkg/ccsessions"
)

// RenameSession prepends newTitle (plus a blank line) to the first user
// message of a session. The title stacks: renaming twice produces two
// prefixes. Every line other than the targeted one is written back
// byte-for-byte, and the file is replaced atomically so a crash mid-write
// never leaves a truncated session.
//
// Returns ErrNotFound when the project or session does not exist and
// ErrEmptySession when there is no user message to prefix.
func (s *Store) RenameSession(project, sessionID, newTitle string) error {
	path, err := s.sessionPath(project, sessionID)
	if err != nil {
		return err
	}

	parsed, err := ccsessions.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse session: %w", err)
	}

	target := -1
	for i, line := range parsed.Lines {
		if turn, ok := line.Record.(ccsessions.Turn); ok && turn.Role == ccsessions.RoleUser {
			target = i
			break
		}
	}
	if target == -1 {
		return fmt.Errorf("session %s/%s: %w", project, sessionID, ErrEmptySession)
	}

	rewritten, err := prefixTitle(parsed.Lines[target].Raw, newTitle)
	if err != nil {
		return fmt.Errorf("failed to rewrite message: %w", err)
	}

	var buf bytes.Buffer
	for i, line := range parsed.Lines {
		if i == target {
			buf.Write(rewritten)
		} else {
			buf.Write(line.Raw)
		}
		buf.WriteByte('\n')
	}

	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}

	s.log.Info("renamed session",
		zap.String("project", project), zap.String("session", sessionID))
	return nil
}

// prefixTitle rewrites a single user entry, prepending title to its first
// real text block. The surgery works over nested json.RawMessage so every
// field it does not touch survives unchanged.
func prefixTitle(raw []byte, title string) ([]byte, error) {
	var entry map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}

	var msg map[string]json.RawMessage
	if err := json.Unmarshal(entry["message"], &msg); err != nil {
		return nil, fmt.Errorf("invalid message field: %w", err)
	}

	content, ok := msg["content"]
	if !ok {
		return nil, fmt.Errorf("message has no content")
	}

	// Older sessions store content as a plain string.
	if len(content) > 0 && content[0] == '"' {
		var text string
		if err := json.Unmarshal(content, &text); err != nil {
			return nil, err
		}
		updated, err := json.Marshal(title + "\n\n" + text)
		if err != nil {
			return nil, err
		}
		msg["content"] = updated
		return reassemble(entry, msg)
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(content, &blocks); err != nil {
		return nil, fmt.Errorf("invalid content blocks: %w", err)
	}

	for i, blockRaw := range blocks {
		var block map[string]json.RawMessage
		if err := json.Unmarshal(blockRaw, &block); err != nil {
			continue
		}
		var blockType, text string
		if err := json.Unmarshal(block["type"], &blockType); err != nil || blockType != "text" {
			continue
		}
		if err := json.Unmarshal(block["text"], &text); err != nil {
			continue
		}
		// Same rule as the parser: a block is user content iff anything
		// is left after stripping IDE context wrappers.
		if ccsessions.CleanText(text) == "" {
			continue
		}

		updated, err := json.Marshal(title + "\n\n" + text)
		if err != nil {
			return nil, err
		}
		block["text"] = updated
		if blocks[i], err = json.Marshal(block); err != nil {
			return nil, err
		}

		rebuilt, err := json.Marshal(blocks)
		if err != nil {
			return nil, err
		}
		msg["content"] = rebuilt
		return reassemble(entry, msg)
	}

	return nil, fmt.Errorf("no text block to prefix")
}

func reassemble(entry, msg map[string]json.RawMessage) ([]byte, error) {
	rebuilt, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	entry["message"] = rebuilt
	return json.Marshal(entry)
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it into place. The temp file is removed on every failure path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op once renamed
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// DeleteSession moves a session file into the project's backup
// subdirectory, preserving its filename, and returns the backup path. When
// a file of the same name already sits in the backup, the first free
// numeric suffix (.1, .2, ...) is appended; existing backups are never
// overwritten. Returns ErrNotFound when the session does not exist.
func (s *Store) DeleteSession(project, sessionID string) (string, error) {
	path, err := s.sessionPath(project, sessionID)
	if err != nil {
		return "", err
	}

	backupDir := filepath.Join(s.root, project, BackupDirName)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}

	backupPath := filepath.Join(backupDir, sessionID+sessionExt)
	for n := 1; ; n++ {
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			break
		}
		backupPath = filepath.Join(backupDir, fmt.Sprintf("%s%s.%d", sessionID, sessionExt, n))
	}

	if err := os.Rename(path, backupPath); err != nil {
		return "", fmt.Errorf("failed to move session to backup: %w", err)
	}

	s.log.Info("deleted session",
		zap.String("project", project), zap.String("session", sessionID),
		zap.String("backup", backupPath))
	return backupPath, nil
}
