package prayer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/http/client"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

const fullResponse = `{
	"code": 200,
	"status": "OK",
	"data": {
		"timings": {
			"Fajr": "05:00", "Sunrise": "06:10", "Dhuhr": "12:00",
			"Asr": "15:30", "Sunset": "18:44", "Maghrib": "18:45",
			"Isha": "20:00", "Imsak": "04:50", "Midnight": "00:20"
		},
		"date": {"readable": "01 Jan 2025"}
	}
}`

func newTestProvider(t *testing.T, body string, check func(*http.Request)) *Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := client.DefaultConfig()
	cfg.Retries = 0
	cfg.Timeout = 2 * time.Second
	return NewProvider(client.NewClient(cfg, nil, nil), srv.URL+"/v1/timings")
}

func TestRetrieveSurfacesTimings(t *testing.T) {
	p := newTestProvider(t, fullResponse, func(r *http.Request) {
		assert.Equal(t, "48.85341", r.URL.Query().Get("latitude"))
		assert.Equal(t, "2.3488", r.URL.Query().Get("longitude"))
	})

	salah, err := p.Retrieve(context.Background(), widget.Location{Latitude: 48.85341, Longitude: 2.3488})
	require.NoError(t, err)

	assert.Equal(t, []Timing{
		{Name: "Fajr", Time: "05:00"},
		{Name: "Sunrise", Time: "06:10"},
		{Name: "Dhuhr", Time: "12:00"},
		{Name: "Asr", Time: "15:30"},
		{Name: "Maghrib", Time: "18:45"},
		{Name: "Isha", Time: "20:00"},
	}, salah.Timings.Ordered())
}

func TestRetrieveMissingTimingIsFetchFailure(t *testing.T) {
	p := newTestProvider(t, `{"data":{"timings":{"Fajr":"05:00","Sunrise":"06:10","Dhuhr":"12:00","Asr":"15:30","Maghrib":"18:45"}}}`, nil)

	_, err := p.Retrieve(context.Background(), widget.Location{})
	assert.ErrorIs(t, err, ErrMissingTiming)
	assert.ErrorIs(t, err, client.ErrFetchFailure)
	assert.Contains(t, err.Error(), "Isha")
}

func TestRetrieveWithoutData(t *testing.T) {
	p := newTestProvider(t, `{"code":400,"status":"Bad Request"}`, nil)

	_, err := p.Retrieve(context.Background(), widget.Location{})
	assert.ErrorIs(t, err, client.ErrFetchFailure)
}

func TestRetrieveRejectsInvalidLocation(t *testing.T) {
	p := newTestProvider(t, fullResponse, func(*http.Request) {
		t.Error("upstream must not be called")
	})

	_, err := p.Retrieve(context.Background(), widget.Location{Latitude: 91})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}
