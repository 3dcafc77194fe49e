package session

// DefaultContextWindow is the number of prior turns replayed to the assistant.
const DefaultContextWindow = 6

// Labels are the role prefixes used when rendering context lines.
type Labels struct {
	User      string
	Assistant string
}

// DefaultLabels renders turns as "User: ..." and "Codex: ...".
var DefaultLabels = Labels{User: "User", Assistant: "Codex"}

func (l Labels) label(r Role) string {
	if r == RoleUser {
		return l.User
	}
	return l.Assistant
}

// ContextWindow renders the last size turns of transcript, oldest first,
// as "<label>: <content>" lines.
func ContextWindow(transcript []Turn, size int, labels Labels) []string {
	if size <= 0 || len(transcript) == 0 {
		return nil
	}
	start := len(transcript) - size
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, len(transcript)-start)
	for _, turn := range transcript[start:] {
		lines = append(lines, labels.label(turn.Role)+": "+turn.Content)
	}
	return lines
}
