// Package backend provides an HTTP client for the multi-zone audio
// controller API.
//
// # Overview
//
// The package defines the API client and the wire types Presto consumes:
// player snapshots, audio devices, startup progress, and build info. It
// also derives the websocket endpoint used by the live channel.
//
// # Endpoints
//
//   - GET  /api/players              players + run state, merged by name
//   - GET  /api/devices              audio output devices
//   - GET  /api/startup              initialization phases (404 = complete)
//   - GET  /api/build-info           version / build hash
//   - POST /api/players/{n}/volume   set volume
//   - POST /api/players/{n}/mute     set mute flag
//   - POST /api/players/{n}/start    start player process
//   - POST /api/players/{n}/stop     stop player process
//   - PUT  /api/players/{n}/offset   set sync offset (restart to apply)
//
// Mutating endpoints answer with a {success, message|error} envelope; the
// client folds a failed envelope into a plain error.
//
// # Build identity
//
// BuildInfo.Identity prefers the explicit version string and falls back to
// "sha-" plus the first 7 hex characters of the build hash. The identity is
// opaque to callers; equality means "same backend process".
package backend
