// Package health tracks backend reachability.
//
// The Tracker is the only writer of the available/unavailable value. Both
// recovery routes (a successful poll, a live channel reconnect) and both
// failure routes (a poll failure, a dropped channel confirmed by polling)
// converge here, and the idempotent SetAvailable keeps double-reports from
// producing double transitions. Subscribers run synchronously after a
// transition, which is what gives downstream recovery its happens-after
// ordering.
package health
