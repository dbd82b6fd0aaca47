// Package id mints identifiers for layouts, tiles and traces.
//
// Layouts and traces get prefixed ULIDs ("dash_01J…") so they sort by
// creation time and read well in logs. Tile occurrences get random UUIDs:
// clients create them as often as the server does and they carry no order.
package id

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Kind is the prefix that tells one family of ULIDs from another
type Kind string

const (
	Dashboard Kind = "dash"
	Trace     Kind = "trace"
	Span      Kind = "span"
)

// Source mints monotonic ULIDs. It is safe for concurrent use.
type Source struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewSource returns a source backed by crypto/rand
func NewSource() *Source {
	return NewSourceWith(ulid.Monotonic(rand.Reader, 0), time.Now)
}

// NewSourceWith lets tests fix the entropy and the clock
func NewSourceWith(entropy io.Reader, now func() time.Time) *Source {
	return &Source{entropy: entropy, now: now}
}

var shared = sync.OnceValue(NewSource)

// ULID returns the next ULID
func (s *Source) ULID() ulid.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy)
}

// Next returns the next ULID under kind's prefix
func (s *Source) Next(kind Kind) string {
	return string(kind) + "_" + s.ULID().String()
}

// DashboardID identifies a persisted layout
type DashboardID string

// TileID identifies one widget occurrence within a layout
type TileID string

// TraceID identifies a trace
type TraceID string

// SpanID identifies a span within a trace
type SpanID string

func NewDashboardID() DashboardID { return DashboardID(shared().Next(Dashboard)) }
func NewTileID() TileID           { return TileID(uuid.NewString()) }
func NewTraceID() TraceID         { return TraceID(shared().Next(Trace)) }
func NewSpanID() SpanID           { return SpanID(shared().Next(Span)) }

func (id DashboardID) String() string { return string(id) }
func (id TileID) String() string      { return string(id) }

// Parse reads a ULID, ignoring any "kind_" prefix
func Parse(s string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	return ulid.Parse(s)
}
