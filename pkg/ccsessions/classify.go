package ccsessions

import "strings"

// Class is the cleanup classification of a session.
type Class int

const (
	// ClassNormal is a session with real user content.
	ClassNormal Class = iota
	// ClassEmpty is a session with no conversational turns at all.
	ClassEmpty
	// ClassInvalid is a non-empty session whose every user turn is an
	// authentication/session-expiry artifact.
	ClassInvalid
)

func (c Class) String() string {
	switch c {
	case ClassEmpty:
		return "empty"
	case ClassInvalid:
		return "invalid"
	default:
		return "normal"
	}
}

// DefaultInvalidSignatures are the substrings that mark a user message as
// an auth-failure artifact rather than real input.
var DefaultInvalidSignatures = []string{
	"Invalid API key",
	"Please run /login",
	"OAuth token has expired",
	"API Error: 401",
}

// Classify derives the cleanup class from the record sequence. The result
// is a pure function of the records:
//
//   - zero user turns -> ClassEmpty. This covers sessions with no turns at
//     all, and resolves the assistant-only case: a session that never heard
//     from the user has no real user content, so it counts as empty rather
//     than vacuously invalid.
//   - at least one user turn, every one matching an auth-failure
//     signature -> ClassInvalid.
//   - anything else -> ClassNormal.
//
// extra extends the default signature set; order never matters.
func (s *Session) Classify(extra []string) Class {
	userTurns := 0
	allInvalid := true

	for _, line := range s.Lines {
		turn, ok := line.Record.(Turn)
		if !ok || turn.Role != RoleUser {
			continue
		}
		userTurns++
		if !matchesSignature(turn.Text, extra) {
			allInvalid = false
		}
	}

	if userTurns == 0 {
		return ClassEmpty
	}
	if allInvalid {
		return ClassInvalid
	}
	return ClassNormal
}

func matchesSignature(text string, extra []string) bool {
	for _, sig := range DefaultInvalidSignatures {
		if strings.Contains(text, sig) {
			return true
		}
	}
	for _, sig := range extra {
		if sig != "" && strings.Contains(text, sig) {
			return true
		}
	}
	return false
}
