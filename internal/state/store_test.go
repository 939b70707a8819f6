package state

import (
	"errors"
	"testing"

	"github.com/presto-audio/presto/internal/backend"
)

func players(names ...string) []backend.Player {
	out := make([]backend.Player, 0, len(names))
	for _, n := range names {
		out = append(out, backend.Player{Name: n, Volume: 50})
	}
	return out
}

func visibleNames(s *Store) []string {
	snap := s.Snapshot()
	names := make([]string, 0, len(snap.Players))
	for _, p := range snap.Players {
		names = append(names, p.Name)
	}
	return names
}

func TestStore_OfferAppliesWhenNotInteracting(t *testing.T) {
	store := NewStore(&Guard{})

	store.Offer(players("den"))

	snap := store.Snapshot()
	if !snap.HasPlayers || len(snap.Players) != 1 || snap.Players[0].Name != "den" {
		t.Fatalf("snapshot = %#v, want den applied immediately", snap.Players)
	}
}

func TestStore_DefersAndKeepsOnlyLastOffer(t *testing.T) {
	guard := &Guard{}
	store := NewStore(guard)
	store.Offer(players("den"))

	guard.BeginAdjust()
	store.Offer(players("den", "kitchen"))
	store.Offer(players("den", "kitchen", "attic"))
	store.Offer(players("attic"))

	// Visible state must not move while the gesture is active.
	if got := visibleNames(store); len(got) != 1 || got[0] != "den" {
		t.Fatalf("visible players during interaction = %v, want [den]", got)
	}

	store.EndAdjust()

	// Only the last offered snapshot survives.
	if got := visibleNames(store); len(got) != 1 || got[0] != "attic" {
		t.Fatalf("visible players after flush = %v, want [attic]", got)
	}
}

func TestStore_FlushWithoutPendingIsNoop(t *testing.T) {
	store := NewStore(&Guard{})
	store.Offer(players("den"))
	before := store.Snapshot()

	store.Flush()
	store.Flush()

	after := store.Snapshot()
	if len(after.Players) != len(before.Players) || after.Players[0].Name != "den" {
		t.Fatalf("flush without pending changed state: %#v", after.Players)
	}
}

func TestStore_FlushDeferredUntilAllInteractionsEnd(t *testing.T) {
	guard := &Guard{}
	store := NewStore(guard)

	guard.BeginAdjust()
	guard.OpenMenu()
	store.Offer(players("den"))

	// Ending one interaction source while the other is still active must
	// keep the update pending.
	store.EndAdjust()
	if snap := store.Snapshot(); snap.HasPlayers {
		t.Fatalf("update became visible while menu still open")
	}

	store.CloseMenu()
	if snap := store.Snapshot(); !snap.HasPlayers {
		t.Fatalf("update not flushed after last interaction ended")
	}
}

func TestStore_RecordErrorKeepsLastGoodData(t *testing.T) {
	store := NewStore(&Guard{})
	store.Offer(players("den"))

	store.RecordError(errors.New("connection refused"))

	snap := store.Snapshot()
	if snap.LastError == nil {
		t.Fatalf("LastError not recorded")
	}
	if len(snap.Players) != 1 || snap.Players[0].Name != "den" {
		t.Fatalf("error overwrote player data: %#v", snap.Players)
	}

	// A later successful offer clears the error.
	store.Offer(players("den", "kitchen"))
	if snap := store.Snapshot(); snap.LastError != nil {
		t.Fatalf("LastError not cleared by successful offer")
	}
}

func TestGuard_DisjunctionAtQueryTime(t *testing.T) {
	g := &Guard{}
	if g.Interacting() {
		t.Fatalf("fresh guard should be inactive")
	}
	g.OpenMenu()
	if !g.Interacting() {
		t.Fatalf("open menu should count as interacting")
	}
	g.BeginAdjust()
	g.CloseMenu()
	if !g.Interacting() {
		t.Fatalf("adjust gesture should keep guard active after menu closes")
	}
	g.EndAdjust()
	if g.Interacting() {
		t.Fatalf("guard should be inactive after both sources end")
	}
}

func TestSnapshot_DeviceName(t *testing.T) {
	store := NewStore(&Guard{})
	store.SetDevices([]backend.Device{{ID: "hw:0,0", Name: "HDA Intel PCH"}})

	snap := store.Snapshot()
	if got := snap.DeviceName("hw:0,0"); got != "HDA Intel PCH" {
		t.Fatalf("DeviceName = %q, want resolved name", got)
	}
	if got := snap.DeviceName("hw:9,9"); got != "hw:9,9" {
		t.Fatalf("DeviceName unknown id = %q, want id passthrough", got)
	}
}
