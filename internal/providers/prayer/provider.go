// Package prayer retrieves daily prayer timings for a location.
package prayer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/http/client"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

var (
	// ErrMissingTiming is returned when the upstream omits one of the six timings
	ErrMissingTiming = errors.New("missing prayer timing")

	// ErrInvalidLocation is returned for out-of-range coordinates
	ErrInvalidLocation = errors.New("invalid location")
)

// Names lists the displayed timings in display order
var Names = [...]string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"}

// Timings holds the six displayed times; other upstream fields are ignored
type Timings struct {
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

// Timing is one named time
type Timing struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// Ordered returns the timings in Names order
func (t Timings) Ordered() []Timing {
	times := [...]string{t.Fajr, t.Sunrise, t.Dhuhr, t.Asr, t.Maghrib, t.Isha}
	out := make([]Timing, len(Names))
	for i, name := range Names {
		out[i] = Timing{Name: name, Time: times[i]}
	}
	return out
}

// Validate checks that all six timings are present
func (t Timings) Validate() error {
	for _, timing := range t.Ordered() {
		if timing.Time == "" {
			return fmt.Errorf("%w: %s", ErrMissingTiming, timing.Name)
		}
	}
	return nil
}

// Salah is the surfaced part of the upstream response (its "data" object)
type Salah struct {
	Timings Timings `json:"timings"`
}

type upstreamResponse struct {
	Data *Salah `json:"data"`
}

// Fetcher is the outbound JSON fetch the provider needs
type Fetcher interface {
	GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error
}

// Provider queries a prayer-times endpoint
type Provider struct {
	fetcher  Fetcher
	endpoint string
}

// NewProvider creates a provider for endpoint
func NewProvider(fetcher Fetcher, endpoint string) *Provider {
	return &Provider{
		fetcher:  fetcher,
		endpoint: endpoint,
	}
}

// Retrieve issues one request for loc and returns the data object. A
// response without all six timings is a fetch failure.
func (p *Provider) Retrieve(ctx context.Context, loc widget.Location) (*Salah, error) {
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return nil, fmt.Errorf("%w: %v,%v", ErrInvalidLocation, loc.Latitude, loc.Longitude)
	}

	query := url.Values{
		"latitude":  {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
	}

	var resp upstreamResponse
	if err := p.fetcher.GetJSON(ctx, p.endpoint, query, &resp); err != nil {
		return nil, err
	}

	if resp.Data == nil {
		return nil, &client.FetchError{URL: p.endpoint, Err: fmt.Errorf("%w: response has no data", ErrMissingTiming)}
	}
	if err := resp.Data.Timings.Validate(); err != nil {
		return nil, &client.FetchError{URL: p.endpoint, Err: err}
	}
	return resp.Data, nil
}
