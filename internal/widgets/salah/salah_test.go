package salah

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/prayer"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

type stubRetriever struct {
	calls []widget.Location
	salah *prayer.Salah
	err   error
}

func (s *stubRetriever) Retrieve(_ context.Context, loc widget.Location) (*prayer.Salah, error) {
	s.calls = append(s.calls, loc)
	return s.salah, s.err
}

func resolve(t *testing.T, def *widget.Definition, props map[string]any) *widget.Instance {
	t.Helper()
	reg := widget.NewRegistry()
	require.NoError(t, reg.Register(def))
	inst, _, err := widget.NewResolver(reg).Resolve(widget.Occurrence{DefinitionID: ID, Properties: props})
	require.NoError(t, err)
	return inst
}

func TestDefinitionDefaults(t *testing.T) {
	def := Definition(&stubRetriever{})
	require.NoError(t, def.Validate())

	defaults := def.Defaults()
	assert.Equal(t, "Salah", defaults.String(OptTitle))
	assert.Equal(t, widget.Location{Latitude: 48.85341, Longitude: 2.3488}, defaults.Location(OptLocation))
	assert.Equal(t, widget.GridConstraints{MinWidth: 1, MinHeight: 1, MaxWidth: 2, MaxHeight: 4}, def.Grid)
}

func TestRenderShowsTimingsInFixedOrder(t *testing.T) {
	stub := &stubRetriever{salah: &prayer.Salah{Timings: prayer.Timings{
		Fajr: "05:00", Sunrise: "06:10", Dhuhr: "12:00",
		Asr: "15:30", Maghrib: "18:45", Isha: "20:00",
	}}}
	def := Definition(stub)
	inst := resolve(t, def, map[string]any{
		OptTitle:    "Prayers <i>today</i>",
		OptLocation: map[string]any{"latitude": 21.4225, "longitude": 39.8262},
	})

	out, err := def.Render.Render(context.Background(), inst)
	require.NoError(t, err)

	view := out.(View)
	assert.Equal(t, "Prayers today", view.Title)
	assert.Equal(t, []prayer.Timing{
		{Name: "Fajr", Time: "05:00"},
		{Name: "Sunrise", Time: "06:10"},
		{Name: "Dhuhr", Time: "12:00"},
		{Name: "Asr", Time: "15:30"},
		{Name: "Maghrib", Time: "18:45"},
		{Name: "Isha", Time: "20:00"},
	}, view.Timings)

	require.Len(t, stub.calls, 1, "one render issues exactly one request")
	assert.Equal(t, widget.Location{Latitude: 21.4225, Longitude: 39.8262}, stub.calls[0])
}

func TestRenderPropagatesFetchFailure(t *testing.T) {
	boom := errors.New("upstream down")
	def := Definition(&stubRetriever{err: boom})

	_, err := def.Render.Render(context.Background(), resolve(t, def, nil))
	assert.ErrorIs(t, err, boom)
}
