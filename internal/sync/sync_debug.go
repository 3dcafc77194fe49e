//go:build deadlock

// Package sync provides the lock types used across codexdesk. Building with
// -tags deadlock swaps the mutexes for go-deadlock's detecting versions.
package sync

import (
	"os"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Mutex wraps go-deadlock.Mutex.
type Mutex = deadlock.Mutex

// RWMutex wraps go-deadlock.RWMutex.
type RWMutex = deadlock.RWMutex

// WaitGroup is the standard sync.WaitGroup.
type WaitGroup = sync.WaitGroup

// Once is the standard sync.Once.
type Once = sync.Once

// DetectionEnabled reports whether lock-order and timeout checks are active.
const DetectionEnabled = true

func init() {
	// No lock is held across a codex run.
	deadlock.Opts.DeadlockTimeout = 30 * time.Second

	if os.Getenv("CODEXDESK_NO_DEADLOCK_DETECT") != "" {
		deadlock.Opts.Disable = true
		return
	}

	deadlock.Opts.PrintAllCurrentGoroutines = true

	println("[DEADLOCK DETECTION ENABLED] Using go-deadlock for mutex operations")
}
