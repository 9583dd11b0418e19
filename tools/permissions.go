package tools

// Policy controls whether a tool may run without user confirmation.
type Policy int

const (
	// AskFirst prompts the user before executing. This is the default for
	// any tool without an explicit entry.
	AskFirst Policy = iota
	// AutoAllow runs immediately without asking.
	AutoAllow
	// Deny rejects execution without prompting.
	Deny
)

func (p Policy) String() string {
	switch p {
	case AutoAllow:
		return "auto-allow"
	case Deny:
		return "deny"
	default:
		return "ask-first"
	}
}

// PermissionTable maps tool names to policies. It is owned by the event
// coordinator; each conversation session gets its own instance, there is no
// process-wide table.
type PermissionTable struct {
	policies map[string]Policy
}

// NewPermissionTable creates a table with read-only tools pre-seeded to
// AutoAllow. Everything else defaults to AskFirst.
func NewPermissionTable() *PermissionTable {
	return &PermissionTable{
		policies: map[string]Policy{
			"read_file":    AutoAllow,
			"list_files":   AutoAllow,
			"search_files": AutoAllow,
		},
	}
}

// Get returns the policy for a tool name, defaulting to AskFirst.
func (t *PermissionTable) Get(toolName string) Policy {
	if p, ok := t.policies[toolName]; ok {
		return p
	}
	return AskFirst
}

// Set records a policy for a tool name for the rest of the session.
func (t *PermissionTable) Set(toolName string, p Policy) {
	t.policies[toolName] = p
}

// Entries returns the explicit table entries as name/policy pairs, for the
// /tools status display. Order follows the known tool names.
func (t *PermissionTable) Entries() []PermissionEntry {
	names := []string{"read_file", "write_file", "list_files", "search_files", "execute", "edit_file"}
	entries := make([]PermissionEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, PermissionEntry{Name: name, Policy: t.Get(name)})
	}
	return entries
}

// PermissionEntry is one row of the permission status display.
type PermissionEntry struct {
	Name   string
	Policy Policy
}
