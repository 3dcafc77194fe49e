package session

import (
	"fmt"
	"strings"

	"github.com/brianly1003/codexdesk/internal/domain/ports"
)

// InstallAdvisory is shown while the codex executable is unusable.
const InstallAdvisory = "codex is not installed or not found in PATH"

// InstallHints lists the commands that install codex.
var InstallHints = []string{
	"npm i -g @openai/codex",
	"brew install codex",
}

// AdvisoryText renders the install advisory for status, or "" when codex
// is usable or the check has not run.
func AdvisoryText(status *ports.InstallStatus) string {
	if status == nil || status.Installed {
		return ""
	}

	var b strings.Builder
	b.WriteString(InstallAdvisory)
	if status.Error != "" {
		fmt.Fprintf(&b, " (%s)", status.Error)
	}
	b.WriteString(".\n\nPlease install it using:\n")
	for i, hint := range InstallHints {
		if i > 0 {
			b.WriteString("or:\n")
		}
		b.WriteString("  " + hint + "\n")
	}
	return b.String()
}
