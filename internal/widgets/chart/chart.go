// Package chart implements the Chart widget: it fetches a user-specified
// JSON API and plots two keys of each record as a bar, line or pie chart.
package chart

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/http/client"
	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/utils"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

// ID is the Chart widget's definition ID
const ID = "Chart"

// Chart types
const (
	TypeBar  = "Bar Chart"
	TypePie  = "Pie Chart"
	TypeLine = "Line Chart"
)

// Option names
const (
	OptTitle  = "chartTitle"
	OptAPIURL = "apiUrl"
	OptParams = "jsonParams"
	OptXKey   = "xAxisKey"
	OptYKey   = "yAxisKey"
	OptColor  = "chartColor"
	OptType   = "chartType"
)

var (
	// ErrUnsupportedChartType is returned for a chartType with no renderer
	ErrUnsupportedChartType = errors.New("unsupported chart type")

	// ErrMissingAPIURL is returned when apiUrl is empty
	ErrMissingAPIURL = errors.New("chart has no API URL")

	// ErrInvalidParams is returned when jsonParams is not a JSON object
	ErrInvalidParams = errors.New("invalid JSON params")
)

// Fetcher is the outbound fetch the chart needs
type Fetcher interface {
	Get(ctx context.Context, rawURL string, query url.Values) (*client.Response, error)
}

// View is the rendered chart tile
type View struct {
	Title    string  `json:"title"`
	Type     string  `json:"type"`
	Color    string  `json:"color"`
	XAxisKey string  `json:"xAxisKey"`
	YAxisKey string  `json:"yAxisKey"`
	Points   []Point `json:"points"`
	Ticks    []Tick  `json:"ticks,omitempty"`
	Records  int     `json:"records"`
	Omitted  int     `json:"omitted"`
}

// Definition declares the Chart widget rendering through fetcher
func Definition(fetcher Fetcher) *widget.Definition {
	return &widget.Definition{
		ID:   ID,
		Icon: "chart-bar",
		Options: map[string]widget.Option{
			OptTitle:  widget.Text("My Chart"),
			OptAPIURL: widget.Text(""),
			OptParams: widget.Text(""),
			OptXKey:   widget.Text(""),
			OptYKey:   widget.Text(""),
			OptColor:  widget.Text("blue"),
			OptType:   widget.Select(TypeBar, TypeBar, TypePie, TypeLine),
		},
		Grid: widget.GridConstraints{
			MinWidth:  2,
			MinHeight: 3,
			MaxWidth:  12,
			MaxHeight: 12,
		},
		Render: &Renderer{fetcher: fetcher},
	}
}

// Renderer fetches and shapes chart data
type Renderer struct {
	fetcher Fetcher
}

// Render implements widget.Renderer
func (r *Renderer) Render(ctx context.Context, inst *widget.Instance) (any, error) {
	props := inst.Properties

	chartType := props.String(OptType)
	switch chartType {
	case TypeBar, TypeLine, TypePie:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChartType, chartType)
	}

	apiURL := strings.TrimSpace(props.String(OptAPIURL))
	if apiURL == "" {
		return nil, ErrMissingAPIURL
	}

	params, err := ParseParams(props.String(OptParams))
	if err != nil {
		return nil, err
	}

	resp, err := r.fetcher.Get(ctx, apiURL, params)
	if err != nil {
		return nil, err
	}

	payload, err := Decode(resp.Body)
	if err != nil {
		return nil, err
	}
	series, err := Normalize(payload)
	if err != nil {
		return nil, err
	}

	xKey, yKey := props.String(OptXKey), props.String(OptYKey)
	points := Points(series, xKey, yKey, chartType != TypePie)

	view := View{
		Title:    utils.SanitizeText(props.String(OptTitle)),
		Type:     chartType,
		Color:    utils.SanitizeText(props.String(OptColor)),
		XAxisKey: xKey,
		YAxisKey: yKey,
		Points:   points,
		Records:  len(series),
		Omitted:  len(series) - len(points),
	}
	if chartType != TypePie {
		view.Ticks = Ticks(points)
	}
	return view, nil
}

// ParseParams turns the jsonParams option into query parameters. An empty
// string means none; anything else must be a JSON object. Arrays become
// repeated parameters, nested objects are sent as JSON and nulls are skipped.
func ParseParams(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var obj map[string]any
	if err := sonic.UnmarshalString(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidParams)
	}

	values := make(url.Values, len(obj))
	for key, v := range obj {
		if items, ok := v.([]any); ok {
			for _, item := range items {
				if s, ok := paramString(item); ok {
					values.Add(key, s)
				}
			}
			continue
		}
		if s, ok := paramString(v); ok {
			values.Set(key, s)
		}
	}
	return values, nil
}

func paramString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		b, err := sonic.Marshal(x)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
