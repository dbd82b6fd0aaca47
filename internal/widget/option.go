package widget

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Kind identifies the value shape an option accepts
type Kind string

const (
	KindText     Kind = "text"
	KindSelect   Kind = "select"
	KindLocation Kind = "location"
	KindBoolean  Kind = "boolean"
	KindNumber   Kind = "number"
)

// Location is the value of a location option
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Option is the schema of one configurable widget field.
//
// Values are normalized on validation: text and select become string,
// boolean becomes bool, number becomes float64, location becomes Location.
type Option struct {
	Kind    Kind     `json:"type"`
	Default any      `json:"defaultValue"`
	Choices []string `json:"choices,omitempty"`
}

// Text declares a free-form string option
func Text(def string) Option {
	return Option{Kind: KindText, Default: def}
}

// Select declares a string option restricted to choices, in display order
func Select(def string, choices ...string) Option {
	return Option{Kind: KindSelect, Default: def, Choices: choices}
}

// LocationAt declares a location option defaulting to the given coordinates
func LocationAt(latitude, longitude float64) Option {
	return Option{Kind: KindLocation, Default: Location{Latitude: latitude, Longitude: longitude}}
}

// Boolean declares a toggle option
func Boolean(def bool) Option {
	return Option{Kind: KindBoolean, Default: def}
}

// Number declares a numeric option
func Number(def float64) Option {
	return Option{Kind: KindNumber, Default: def}
}

// Normalize validates v against the option and returns its canonical form.
func (o Option) Normalize(v any) (any, error) {
	switch o.Kind {
	case KindText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, v)
		}
		return s, nil

	case KindSelect:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %T", ErrInvalidValue, v)
		}
		if !slices.Contains(o.Choices, s) {
			return nil, fmt.Errorf("%w: %q is not one of %v", ErrInvalidValue, s, o.Choices)
		}
		return s, nil

	case KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected boolean, got %T", ErrInvalidValue, v)
		}
		return b, nil

	case KindNumber:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: expected number, got %T", ErrInvalidValue, v)
		}
		return f, nil

	case KindLocation:
		loc, err := toLocation(v)
		if err != nil {
			return nil, err
		}
		return loc, nil
	}

	return nil, fmt.Errorf("%w: unsupported option kind %q", ErrInvalidValue, o.Kind)
}

// validate checks the option's own declaration
func (o Option) validate() error {
	if o.Kind == KindSelect && len(o.Choices) == 0 {
		return fmt.Errorf("%w: select option has no choices", ErrInvalidDefault)
	}
	if _, err := o.Normalize(o.Default); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefault, err)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toLocation(v any) (Location, error) {
	var loc Location
	switch l := v.(type) {
	case Location:
		loc = l
	case *Location:
		if l == nil {
			return Location{}, fmt.Errorf("%w: nil location", ErrInvalidValue)
		}
		loc = *l
	case map[string]any:
		lat, ok := toFloat(l["latitude"])
		if !ok {
			return Location{}, fmt.Errorf("%w: location latitude must be a number", ErrInvalidValue)
		}
		lon, ok := toFloat(l["longitude"])
		if !ok {
			return Location{}, fmt.Errorf("%w: location longitude must be a number", ErrInvalidValue)
		}
		loc = Location{Latitude: lat, Longitude: lon}
	default:
		return Location{}, fmt.Errorf("%w: expected location object, got %T", ErrInvalidValue, v)
	}

	if loc.Latitude < -90 || loc.Latitude > 90 {
		return Location{}, fmt.Errorf("%w: latitude %v out of range", ErrInvalidValue, loc.Latitude)
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return Location{}, fmt.Errorf("%w: longitude %v out of range", ErrInvalidValue, loc.Longitude)
	}
	return loc, nil
}
