//go:build !deadlock

// Package sync provides the lock types used across codexdesk. Building with
// -tags deadlock swaps the mutexes for go-deadlock's detecting versions.
package sync

import "sync"

// Mutex is the standard sync.Mutex.
type Mutex = sync.Mutex

// RWMutex is the standard sync.RWMutex.
type RWMutex = sync.RWMutex

// WaitGroup is the standard sync.WaitGroup.
type WaitGroup = sync.WaitGroup

// Once is the standard sync.Once.
type Once = sync.Once

// DetectionEnabled reports whether lock-order and timeout checks are active.
const DetectionEnabled = false
