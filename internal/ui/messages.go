package ui

import "time"

// NoticeMsg shows a transient footer message. The sync core sends these
// through the program handle; the UI also raises them internally.
type NoticeMsg struct {
	Text    string
	IsError bool
}

// ReloadPendingMsg announces that the backend identity changed and the
// session will be rebuilt shortly.
type ReloadPendingMsg struct {
	OldID string
	NewID string
}

// ReloadNowMsg makes the UI quit and report a session reload to its caller.
type ReloadNowMsg struct{}

// tickMsg drives the periodic snapshot refresh and elapsed counters.
type tickMsg time.Time

// commandDoneMsg reports the outcome of a backend command.
type commandDoneMsg struct {
	action string
	err    error
}

// adjustSettledMsg ends a volume gesture once input has gone quiet.
type adjustSettledMsg struct {
	seq int
}
