package state

import "sync"

// Guard tracks whether the user is mid-gesture on a control that incoming
// snapshots would overwrite: adjusting a volume slider or holding an action
// menu open. The two conditions are independent flags evaluated as a
// disjunction at query time; there is no nesting or counting.
type Guard struct {
	mu        sync.Mutex
	adjusting bool
	menuOpen  bool
}

// BeginAdjust marks the start of a volume gesture.
func (g *Guard) BeginAdjust() {
	g.mu.Lock()
	g.adjusting = true
	g.mu.Unlock()
}

// EndAdjust marks the end of a volume gesture.
func (g *Guard) EndAdjust() {
	g.mu.Lock()
	g.adjusting = false
	g.mu.Unlock()
}

// OpenMenu marks a per-player action menu as open.
func (g *Guard) OpenMenu() {
	g.mu.Lock()
	g.menuOpen = true
	g.mu.Unlock()
}

// CloseMenu marks the action menu as closed.
func (g *Guard) CloseMenu() {
	g.mu.Lock()
	g.menuOpen = false
	g.mu.Unlock()
}

// Interacting reports whether either interaction source is active.
func (g *Guard) Interacting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.adjusting || g.menuOpen
}
