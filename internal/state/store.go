package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/presto-audio/presto/internal/backend"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Players     []backend.Player
	HasPlayers  bool
	Devices     []backend.Device
	LastUpdated time.Time
	LastError   error
}

// DeviceName resolves a device id to its display name.
func (s Snapshot) DeviceName(id string) string {
	for _, d := range s.Devices {
		if d.ID == id {
			return d.Name
		}
	}
	return id
}

// Store holds the single authoritative player collection the UI renders.
// While the guard reports an active interaction, offered snapshots are
// parked in a one-slot pending buffer instead of replacing visible state;
// Flush releases the buffer when the interaction ends. The store is the
// only writer of visible state.
type Store struct {
	mu         sync.RWMutex
	guard      *Guard
	visible    Snapshot
	pending    []backend.Player
	hasPending bool
	now        func() time.Time
}

// NewStore builds a Store gated by the given interaction guard.
func NewStore(guard *Guard) *Store {
	if guard == nil {
		guard = &Guard{}
	}
	return &Store{guard: guard, now: time.Now}
}

// Guard returns the interaction guard gating this store.
func (s *Store) Guard() *Guard {
	return s.guard
}

// Offer submits a fresh player collection. Applied immediately when no
// interaction is active; otherwise retained as the single pending update,
// overwriting any earlier pending value (last-write-wins, never queued).
func (s *Store) Offer(players []backend.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.guard.Interacting() {
		s.pending = clonePlayers(players)
		s.hasPending = true
		return
	}
	s.apply(players)
}

// Flush promotes the pending update to visible state. A flush with no
// pending update is a no-op. This is the only path by which a deferred
// update becomes visible.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasPending {
		return
	}
	s.apply(s.pending)
	s.pending = nil
	s.hasPending = false
}

// EndAdjust ends a volume gesture and flushes any deferred update once the
// guard reports no remaining interaction.
func (s *Store) EndAdjust() {
	s.guard.EndAdjust()
	if !s.guard.Interacting() {
		s.Flush()
	}
}

// CloseMenu closes the action menu and flushes any deferred update once the
// guard reports no remaining interaction.
func (s *Store) CloseMenu() {
	s.guard.CloseMenu()
	if !s.guard.Interacting() {
		s.Flush()
	}
}

// RecordError notes a failed refresh. Previous data is kept so the UI can
// keep rendering the last known-good state.
func (s *Store) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.visible.LastError = err
	s.visible.LastUpdated = s.now()
}

// SetDevices replaces the cached device list.
func (s *Store) SetDevices(devices []backend.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dup := make([]backend.Device, len(devices))
	copy(dup, devices)
	s.visible.Devices = dup
}

// Snapshot returns a copy of the current visible state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.visible
	snap.Players = clonePlayers(s.visible.Players)
	if s.visible.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.visible.LastError)
	}
	return snap
}

// apply replaces visible players. Caller holds the write lock.
func (s *Store) apply(players []backend.Player) {
	s.visible.Players = clonePlayers(players)
	s.visible.HasPlayers = true
	s.visible.LastError = nil
	s.visible.LastUpdated = s.now()
}

func clonePlayers(players []backend.Player) []backend.Player {
	if len(players) == 0 {
		return nil
	}
	dup := make([]backend.Player, len(players))
	copy(dup, players)
	return dup
}
