package backend

import (
	"sort"
	"strings"
)

// Player is a single zone player snapshot. Snapshots are replaced wholesale
// on every successful read; callers never patch individual fields.
type Player struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Device   string `json:"device"`
	Running  bool   `json:"running"`
	Volume   int    `json:"volume"`
	Muted    bool   `json:"muted"`
	DelayMS  int    `json:"delay_ms"`
	Error    string `json:"error"`
}

// PlayersResponse mirrors /api/players: configured players plus their live
// run state, both keyed by player name.
type PlayersResponse struct {
	Players  map[string]Player `json:"players"`
	Statuses map[string]bool   `json:"statuses"`
}

// Snapshots merges configs and run state into a name-sorted collection.
// Keying by name (not array position) keeps selection stable across polls.
func (r PlayersResponse) Snapshots() []Player {
	out := make([]Player, 0, len(r.Players))
	for name, p := range r.Players {
		if p.Name == "" {
			p.Name = name
		}
		p.Running = r.Statuses[name]
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Device is an audio output device known to the backend.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DevicesResponse mirrors /api/devices.
type DevicesResponse struct {
	Devices []Device `json:"devices"`
}

// PhaseStatus is the lifecycle state of a single startup phase.
type PhaseStatus string

const (
	PhasePending    PhaseStatus = "pending"
	PhaseInProgress PhaseStatus = "in_progress"
	PhaseCompleted  PhaseStatus = "completed"
	PhaseFailed     PhaseStatus = "failed"
)

// StartupPhase is one entry in the backend's initialization sequence.
type StartupPhase struct {
	ID     string      `json:"id"`
	Label  string      `json:"label"`
	Status PhaseStatus `json:"status"`
	Detail string      `json:"detail"`
}

// StartupProgress mirrors /api/startup. Phases arrive in display order and
// are rendered as reported; the client does not enforce forward-only motion.
type StartupProgress struct {
	Phases   []StartupPhase `json:"phases"`
	Complete bool           `json:"complete"`
}

// BuildInfo mirrors /api/build-info.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildHash string `json:"build_hash"`
}

// Identity derives the opaque token used to detect backend restarts.
// An explicit version wins; otherwise the build hash is shortened to the
// first 7 hex characters with a "sha-" prefix.
func (b BuildInfo) Identity() string {
	if v := strings.TrimSpace(b.Version); v != "" {
		return v
	}
	hash := strings.TrimSpace(b.BuildHash)
	if hash == "" {
		return ""
	}
	if len(hash) > 7 {
		hash = hash[:7]
	}
	return "sha-" + hash
}

// CommandResult mirrors the common success/message envelope returned by
// mutating endpoints.
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}
