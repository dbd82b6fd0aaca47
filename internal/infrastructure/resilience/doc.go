// Package resilience holds the per-upstream circuit breakers used by the
// outbound fetch client.
//
// A Breaker counts outcomes in epochs. While closed, counts reset every
// Interval and ReadyToTrip decides when to open. Once open, calls fail fast
// with ErrCircuitOpen until Timeout passes; the breaker then lets
// MaxRequests trial calls through in half-open. A failed trial reopens it
// and enough successes close it. A result that arrives after its epoch has
// ended is ignored.
//
// Group keys breakers by host, so a dead chart API leaves the prayer-times
// and geocoding upstreams untouched:
//
//	breakers := resilience.NewGroup(resilience.Settings{Timeout: 30 * time.Second})
//	err := breakers.Do(u.Host, func() error { return fetch(u) })
package resilience
