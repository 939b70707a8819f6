// Package poll schedules the periodic status refresh that doubles as the
// baseline reachability probe.
//
// The cadence follows connection health: 500ms while the backend is down
// (so recovery is noticed fast), 5s while it is up. Timer fires never
// overlap; a fire that lands during an in-flight poll is skipped outright.
// Forced polls (user refresh, recovery) run outside the scheduled series
// and bypass the overlap guard exactly once each.
package poll
