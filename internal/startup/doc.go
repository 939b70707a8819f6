// Package startup reconciles backend initialization and identity.
//
// Before first real use the client renders the backend's initialization
// phases and suppresses normal data loading. Completion can arrive through
// either a periodic probe or a live channel push; the first report wins.
// An unreachable probe is "still starting", never an error.
//
// After completion the backend's build identity is captured once. Every
// later probe compares against it; a mismatch means the backend was
// restarted or redeployed, and the client performs exactly one full reload
// (after a short notice, so the user sees why).
package startup
