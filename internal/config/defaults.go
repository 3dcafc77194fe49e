package config

// DefaultCodexArgs run codex non-interactively with write access limited
// to the project folder.
var DefaultCodexArgs = []string{"exec", "--sandbox", "workspace-write", "--skip-git-repo-check"}

// DefaultWatcherIgnorePatterns is the canonical list of patterns for the
// project watcher. These include both directories and file patterns.
var DefaultWatcherIgnorePatterns = []string{
	".git",
	".codex",
	"node_modules",
	".venv",
	"venv",
	"__pycache__",
	"*.pyc",
	".DS_Store",
	"Thumbs.db",
	"dist",
	"build",
	"target",
	"coverage",
	".next",
	"*.log",
	".idea",
	".vscode",
	"*.swp",
	"*.swo",
	"*~",
}
