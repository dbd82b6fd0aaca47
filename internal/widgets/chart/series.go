package chart

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"gonum.org/v1/gonum/floats"
)

// ErrMalformedSeries is returned when a response is not a JSON array, either
// at the top level or under "data"
var ErrMalformedSeries = errors.New("malformed chart series")

// TickCount is the number of y-axis ticks on bar and line charts
const TickCount = 5

// Point is one plotted record
type Point struct {
	X any     `json:"x"`
	Y float64 `json:"y"`
}

// Tick is one labeled y-axis value
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Decode parses a response body. Non-JSON bodies are reported with their
// detected content type.
func Decode(body []byte) (any, error) {
	var payload any
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: response is %s, not JSON", ErrMalformedSeries, mimetype.Detect(body).String())
	}
	return payload, nil
}

// Normalize extracts the series from a decoded response: a truthy top-level
// "data" field wins, otherwise the response itself is the series. Either way
// the series must be an array.
func Normalize(payload any) ([]any, error) {
	if obj, ok := payload.(map[string]any); ok {
		if data, ok := obj["data"]; ok && truthy(data) {
			payload = data
		}
	}

	series, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array, got %s", ErrMalformedSeries, kindOf(payload))
	}
	return series, nil
}

// truthy mirrors how a dashboard client tests the "data" field
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Points plucks xKey and yKey out of each record. Records that are not
// objects, lack a required key or carry a non-numeric y are omitted. Pie
// charts only require the y key.
func Points(series []any, xKey, yKey string, requireX bool) []Point {
	points := make([]Point, 0, len(series))
	for _, rec := range series {
		obj, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		x, hasX := obj[xKey]
		if requireX && (!hasX || x == nil) {
			continue
		}
		raw, hasY := obj[yKey]
		if !hasY {
			continue
		}
		y, ok := numeric(raw)
		if !ok {
			continue
		}
		points = append(points, Point{X: x, Y: y})
	}
	return points
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Ticks spreads TickCount labeled values from min(0, lowest y) to the
// highest y. No points means no ticks.
func Ticks(points []Point) []Tick {
	if len(points) == 0 {
		return nil
	}

	ys := make([]float64, len(points))
	for i, p := range points {
		ys[i] = p.Y
	}
	lo := math.Min(0, floats.Min(ys))
	hi := floats.Max(ys)
	if hi <= lo {
		hi = lo + 1
	}

	values := floats.Span(make([]float64, TickCount), lo, hi)
	ticks := make([]Tick, len(values))
	for i, v := range values {
		ticks[i] = Tick{Value: v, Label: FormatAxisValue(v)}
	}
	return ticks
}

// FormatAxisValue shortens large values: one decimal and M from a million,
// one decimal and K from a thousand, unchanged below.
func FormatAxisValue(v float64) string {
	switch {
	case v >= 1_000_000:
		return strconv.FormatFloat(v/1_000_000, 'f', 1, 64) + "M"
	case v >= 1_000:
		return strconv.FormatFloat(v/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
