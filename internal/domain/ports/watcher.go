package ports

import "context"

// FileWatcher defines the contract for project folder monitoring.
type FileWatcher interface {
	// Watch switches monitoring to root. An empty root stops monitoring.
	Watch(ctx context.Context, root string) error

	// Root returns the monitored folder, or "" when idle.
	Root() string

	// Start begins watching the current root.
	Start(ctx context.Context) error

	// Stop terminates file watching.
	Stop() error

	// AddIgnorePattern adds a pattern to the ignore list.
	AddIgnorePattern(pattern string)

	// RemoveIgnorePattern removes a pattern from the ignore list.
	RemoveIgnorePattern(pattern string)

	// IsRunning returns true if the watcher is active.
	IsRunning() bool
}
