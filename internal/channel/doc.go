// Package channel manages the optional push subscription to the backend.
//
// # Lifecycle
//
//	NoChannel    transport absent at construction; permanent
//	Connecting   initial handshake in progress
//	Connected    frames flowing
//	Reconnecting dropped; dialing again under backoff
//	Closed       handshake failed once, or session torn down
//
// The initial handshake is tried exactly once: if it fails, the client
// runs polling-only with no user-visible error, because polling is a fully
// valid operating mode. Drops after a successful connect are retried
// forever with capped exponential backoff (1s doubling to a 30s ceiling,
// no jitter). A reconnect may land on a freshly restarted backend, so the
// sink is told it was a reconnect and re-validates the build identity
// before trusting further updates.
//
// Frames carry status_update, startup_progress, and shutting_down events;
// the manager only translates them and hands them to the Sink, which is
// the single ingestion point for shared state.
package channel
