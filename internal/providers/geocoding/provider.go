// Package geocoding looks up cities by name for the location picker.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/utils"
)

// ErrQueryTooShort is returned for queries under MinCityQueryLength runes
var ErrQueryTooShort = errors.New("city query too short")

// ErrQueryTooLong is returned for queries over MaxCityQueryLength runes
var ErrQueryTooLong = errors.New("city query too long")

// City is one geocoding match
type City struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Result is the reshaped lookup answer. The upstream calls the list
// "results"; callers always see "result".
type Result struct {
	Result []City `json:"result"`
}

// upstreamResult is the geocoding collaborator's wire shape
type upstreamResult struct {
	Results []City `json:"results"`
}

// Fetcher is the outbound JSON fetch the provider needs
type Fetcher interface {
	GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error
}

// Provider queries a geocoding endpoint
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

// FindCity searches cities by name. Queries shorter than two characters are
// rejected before any request is made.
func (p *Provider) FindCity(ctx context.Context, query string) (*Result, error) {
	n := utf8.RuneCountInString(strings.TrimSpace(query))
	if n < utils.MinCityQueryLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrQueryTooShort, utils.MinCityQueryLength)
	}
	if n > utils.MaxCityQueryLength {
		return nil, fmt.Errorf("%w: at most %d characters", ErrQueryTooLong, utils.MaxCityQueryLength)
	}

	var raw upstreamResult
	if err := p.fetcher.GetJSON(ctx, p.endpoint, url.Values{"name": {query}}, &raw); err != nil {
		return nil, err
	}

	// The upstream omits "results" entirely when nothing matches
	cities := raw.Results
	if cities == nil {
		cities = []City{}
	}
	return &Result{Result: cities}, nil
}
