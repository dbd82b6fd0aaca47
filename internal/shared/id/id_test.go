package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceIsMonotonic(t *testing.T) {
	src := NewSource()

	a, b := src.ULID(), src.ULID()
	assert.Negative(t, a.Compare(b), "ULIDs from one source sort in creation order")
}

func TestSourceWithFixedClock(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	src := NewSourceWith(ulid.Monotonic(strings.NewReader(strings.Repeat("x", 64)), 0), func() time.Time { return at })

	minted := src.Next(Dashboard)
	require.True(t, strings.HasPrefix(minted, "dash_"))

	parsed, err := Parse(minted)
	require.NoError(t, err)
	assert.True(t, ulid.Time(parsed.Time()).Equal(at))
}

func TestTypedIDs(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewDashboardID().String(), "dash_"))
	assert.True(t, strings.HasPrefix(string(NewTraceID()), "trace_"))
	assert.True(t, strings.HasPrefix(string(NewSpanID()), "span_"))
	_, err := uuid.Parse(NewTileID().String())
	assert.NoError(t, err)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
		{"dash_01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
		{"not-a-ulid", false},
		{"", false},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in)
		assert.Equal(t, tt.ok, err == nil, tt.in)
	}
}

func TestConcurrentMinting(t *testing.T) {
	src := NewSource()
	const workers, perWorker = 8, 100

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s := src.Next(Trace)
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
