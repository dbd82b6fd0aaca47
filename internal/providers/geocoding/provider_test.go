package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/http/client"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := client.DefaultConfig()
	cfg.Retries = 0
	cfg.Timeout = 2 * time.Second
	return NewProvider(client.NewClient(cfg, nil, nil), srv.URL+"/v1/search"), calls
}

func TestFindCityReshapesResults(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "Paris", r.URL.Query().Get("name"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"id": 2988507, "name": "Paris", "country": "France", "latitude": 48.85341, "longitude": 2.3488, "elevation": 42},
				{"id": 4717560, "name": "Paris", "latitude": 33.66094, "longitude": -95.55551}
			],
			"generationtime_ms": 0.5
		}`))
	})

	res, err := p.FindCity(context.Background(), "Paris")
	require.NoError(t, err)
	require.Len(t, res.Result, 2)
	assert.Equal(t, City{ID: 2988507, Name: "Paris", Country: "France", Latitude: 48.85341, Longitude: 2.3488}, res.Result[0])
	assert.Empty(t, res.Result[1].Country)
}

func TestFindCityNoMatches(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"generationtime_ms": 0.1}`))
	})

	res, err := p.FindCity(context.Background(), "Zzyzx-nowhere")
	require.NoError(t, err)
	assert.NotNil(t, res.Result)
	assert.Empty(t, res.Result)
}

func TestFindCityRejectsShortQueries(t *testing.T) {
	p, calls := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	for _, q := range []string{"", "a", " b ", "é"} {
		_, err := p.FindCity(context.Background(), q)
		assert.ErrorIs(t, err, ErrQueryTooShort, q)
	}
	assert.Zero(t, calls.Load())

	_, err := p.FindCity(context.Background(), "Tō")
	assert.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFindCityUpstreamFailure(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := p.FindCity(context.Background(), "Paris")
	assert.ErrorIs(t, err, client.ErrFetchFailure)
}
