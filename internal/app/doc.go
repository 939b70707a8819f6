// Package app wires the Presto session together: the backend client, the
// interaction-aware state store, connection health, the poller, the live
// channel, startup reconciliation, and the UI. Everything that mutates
// session state funnels through one ingestion goroutine owned by the
// Controller.
package app
