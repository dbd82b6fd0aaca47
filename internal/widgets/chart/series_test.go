package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decoded(t *testing.T, body string) any {
	t.Helper()
	payload, err := Decode([]byte(body))
	require.NoError(t, err)
	return payload
}

func TestNormalize(t *testing.T) {
	want := []any{map[string]any{"x": 1.0, "y": 2.0}}

	tests := []struct {
		name string
		body string
		want []any
	}{
		{name: "data wrapper", body: `{"data":[{"x":1,"y":2}]}`, want: want},
		{name: "bare array", body: `[{"x":1,"y":2}]`, want: want},
		{name: "empty data array", body: `{"data":[]}`, want: []any{}},
		{name: "empty bare array", body: `[]`, want: []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := Normalize(decoded(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, series)
		})
	}
}

func TestNormalizeRejectsNonArrays(t *testing.T) {
	for _, body := range []string{
		`{"items":[1,2]}`,
		`{"data":null}`,
		`{"data":{"x":1}}`,
		`"hello"`,
		`42`,
		`null`,
	} {
		_, err := Normalize(decoded(t, body))
		assert.ErrorIs(t, err, ErrMalformedSeries, body)
	}
}

func TestDecodeDescribesNonJSON(t *testing.T) {
	_, err := Decode([]byte("<html><body>down for maintenance</body></html>"))
	require.ErrorIs(t, err, ErrMalformedSeries)
	assert.Contains(t, err.Error(), "text/html")
}

func TestFormatAxisValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{999, "999"},
		{1500, "1.5K"},
		{2500000, "2.5M"},
		{0, "0"},
		{12.5, "12.5"},
		{1000, "1.0K"},
		{1000000, "1.0M"},
		{-5000, "-5000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAxisValue(tt.in), "%v", tt.in)
	}
}

func TestPointsOmitsIncompleteRecords(t *testing.T) {
	series, err := Normalize(decoded(t, `[
		{"month":"Jan","sales":1200},
		{"month":"Feb"},
		{"sales":300},
		{"month":"Mar","sales":"450.5"},
		{"month":"Apr","sales":"n/a"},
		{"month":null,"sales":10},
		"garbage",
		{"month":"May","sales":0}
	]`))
	require.NoError(t, err)

	points := Points(series, "month", "sales", true)
	assert.Equal(t, []Point{
		{X: "Jan", Y: 1200},
		{X: "Mar", Y: 450.5},
		{X: "May", Y: 0},
	}, points)

	pie := Points(series, "month", "sales", false)
	assert.Len(t, pie, 5, "pie charts need only the y key")
}

func TestPointsWithUnknownKeys(t *testing.T) {
	series := []any{map[string]any{"a": 1.0, "b": 2.0}}
	assert.Empty(t, Points(series, "x", "y", true))
	assert.Empty(t, Points(series, "", "", true))
}

func TestTicks(t *testing.T) {
	ticks := Ticks([]Point{{X: "a", Y: 1000}, {X: "b", Y: 4000}})
	require.Len(t, ticks, TickCount)
	assert.Equal(t, Tick{Value: 0, Label: "0"}, ticks[0])
	assert.Equal(t, Tick{Value: 2000, Label: "2.0K"}, ticks[2])
	assert.Equal(t, Tick{Value: 4000, Label: "4.0K"}, ticks[4])

	negative := Ticks([]Point{{Y: -100}, {Y: 100}})
	assert.Equal(t, -100.0, negative[0].Value)

	flat := Ticks([]Point{{Y: 0}})
	assert.Equal(t, 1.0, flat[TickCount-1].Value)

	assert.Nil(t, Ticks(nil))
}
