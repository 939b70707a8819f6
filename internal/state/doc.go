// Package state provides thread-safe state management for Presto.
//
// # Overview
//
// The package implements the coordination point where incoming player
// snapshots (from polling or the live channel) meet UI rendering. Two
// pieces cooperate:
//
//   - Guard: tracks whether the user is mid-gesture on a mutable control
//     (volume adjustment, open action menu).
//   - Store: holds the single visible snapshot plus a one-slot pending
//     buffer used while the guard is active.
//
// # Deferral semantics
//
// While an interaction is active, Offer parks the newest snapshot instead
// of applying it, so the control the user is touching never jumps under
// their cursor. Only the latest offer is retained (last-write-wins); the
// pending update becomes visible exactly once, via Flush, when the
// interaction ends. A Flush with nothing pending is a no-op.
//
// # Concurrency
//
// Single writer (the controller goroutine), multiple readers (the UI
// refresh loop). RWMutex plus defensive copies on both sides; the lock is
// never held across I/O or rendering.
package state
