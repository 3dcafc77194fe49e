package codex

import "strings"

// BuildPrompt prefixes message with the context lines, if any:
//
//	Previous context:
//	User: ...
//	Codex: ...
//
//	<message>
func BuildPrompt(context []string, message string) string {
	if len(context) == 0 {
		return message
	}

	var b strings.Builder
	b.WriteString("Previous context:\n")
	for _, line := range context {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(message)
	return b.String()
}
