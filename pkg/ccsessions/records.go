package ccsessions

// Role identifies the speaker of a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Record is the decoded form of one JSONL line. The set of implementations
// is closed: Turn, ToolEvent, Meta, Unparseable.
type Record interface {
	record()
}

// Turn is a user or assistant conversational turn with real text content.
// Entries that carry only tool scaffolding decode as ToolEvent instead.
type Turn struct {
	Role      Role
	Text      string
	Timestamp string // RFC3339 as written in the file, may be empty
}

// ToolEvent is a tool_use/tool_result-only entry. These are plumbing
// between the assistant and its tools, not conversation.
type ToolEvent struct {
	Kind string // "tool_use" or "tool_result"
}

// Meta covers structural entries: summary, system, file-history-snapshot,
// queue-operation, and anything else with a recognized type but no turn
// content.
type Meta struct {
	Kind    string
	Summary string // populated for type=summary entries
}

// Unparseable is a line that failed JSON decoding. The raw bytes are kept
// on the enclosing Line so a corrupt line never hides the rest of the file.
type Unparseable struct{}

func (Turn) record()        {}
func (ToolEvent) record()   {}
func (Meta) record()        {}
func (Unparseable) record() {}

// Line pairs one raw line of the session file with its decoded record. Raw
// is preserved exactly as read (without the trailing newline) so rewrites
// can leave untouched lines byte-for-byte identical.
type Line struct {
	Raw    []byte
	Record Record
}
