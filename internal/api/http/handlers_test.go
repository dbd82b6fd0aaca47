package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GriffinCanCode/Dashboard/backend/internal/api/middleware"
	"github.com/GriffinCanCode/Dashboard/backend/internal/domain/dashboard"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/geocoding"
	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/http/client"
	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/prayer"
	"github.com/GriffinCanCode/Dashboard/backend/internal/render"
	"github.com/GriffinCanCode/Dashboard/backend/internal/storage"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

const adminToken = "open-sesame"

type inlineRenderer struct {
	widget.RenderFunc
}

func (inlineRenderer) Inline() bool { return true }

func testRegistry(t *testing.T) *widget.Registry {
	t.Helper()
	reg := widget.NewRegistry()
	require.NoError(t, reg.Register(&widget.Definition{
		ID:   "Clock",
		Icon: "clock",
		Options: map[string]widget.Option{
			"format": widget.Select("24h", "12h", "24h"),
			"label":  widget.Text("Now"),
		},
		Grid: widget.GridConstraints{MinWidth: 1, MinHeight: 1, MaxWidth: 2, MaxHeight: 2},
		Render: inlineRenderer{widget.RenderFunc(func(_ context.Context, inst *widget.Instance) (any, error) {
			return inst.Properties.String("label") + " " + inst.Properties.String("format"), nil
		})},
	}))
	require.NoError(t, reg.Register(&widget.Definition{
		ID:      "Quote",
		Icon:    "quote",
		Options: map[string]widget.Option{"topic": widget.Text("life")},
		Grid:    widget.GridConstraints{MinWidth: 1, MinHeight: 1, MaxWidth: 4, MaxHeight: 4},
		Render: widget.RenderFunc(func(_ context.Context, inst *widget.Instance) (any, error) {
			return "quote about " + inst.Properties.String("topic"), nil
		}),
	}))
	return reg
}

type fakeGeocoding struct {
	result *geocoding.Result
	err    error
	query  string
}

func (f *fakeGeocoding) FindCity(_ context.Context, query string) (*geocoding.Result, error) {
	f.query = query
	return f.result, f.err
}

type fakePrayer struct {
	salah *prayer.Salah
	err   error
	loc   widget.Location
}

func (f *fakePrayer) Retrieve(_ context.Context, loc widget.Location) (*prayer.Salah, error) {
	f.loc = loc
	return f.salah, f.err
}

type fixture struct {
	router    *gin.Engine
	layouts   *dashboard.Manager
	geocoding *fakeGeocoding
	prayer    *fakePrayer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := testRegistry(t)
	resolver := widget.NewResolver(reg)
	store, err := storage.OpenBunt(storage.MemoryPath)
	require.NoError(t, err)
	dispatcher := render.NewDispatcher(render.Options{})
	t.Cleanup(func() {
		dispatcher.Close()
		_ = store.Close()
	})
	layouts := dashboard.NewManager(store, resolver, dispatcher, nil, nil)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	require.NoError(t, err)

	f := &fixture{
		layouts:   layouts,
		geocoding: &fakeGeocoding{result: &geocoding.Result{Result: []geocoding.City{}}},
		prayer:    &fakePrayer{},
	}
	handlers := NewHandlers(Deps{
		Registry:   reg,
		Resolver:   resolver,
		Layouts:    layouts,
		Dispatcher: dispatcher,
		Geocoding:  f.geocoding,
		Prayer:     f.prayer,
	})

	f.router = gin.New()
	handlers.Register(f.router, middleware.NewAdminAuth(string(hash), nil).Require())
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, admin bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	_, err := f.layouts.Save(context.Background(), &dashboard.Layout{
		ID:   "home",
		Name: "Home",
		Widgets: []widget.Occurrence{
			{ID: "clock", DefinitionID: "Clock", Size: widget.Size{Width: 1, Height: 1}, Properties: map[string]any{"format": "12h"}},
			{ID: "quote", DefinitionID: "Quote", Size: widget.Size{Width: 2, Height: 2}},
			{ID: "weather", DefinitionID: "Weather", Size: widget.Size{Width: 1, Height: 1}},
		},
	})
	require.NoError(t, err)
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodGet, "/", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", body["status"])

	w, body = f.do(t, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "widgets")
	assert.Contains(t, body, "tiles_active")
}

func TestWidgetCatalog(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodGet, "/widgets", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	widgets := body["widgets"].([]any)
	require.Len(t, widgets, 2)
	assert.Equal(t, "Clock", widgets[0].(map[string]any)["id"])

	w, body = f.do(t, http.MethodGet, "/widgets/Quote", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quote", body["icon"])

	w, body = f.do(t, http.MethodGet, "/widgets/Weather", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, body["error"], "Weather")
}

func TestResolveWidget(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodPost, "/widgets/resolve",
		`{"definitionId":"Clock","gridSize":{"width":5,"height":1},"properties":{"format":"weekly"}}`, false)
	require.Equal(t, http.StatusOK, w.Code)

	inst := body["instance"].(map[string]any)
	assert.Equal(t, "24h", inst["properties"].(map[string]any)["format"])
	assert.Equal(t, float64(2), inst["gridSize"].(map[string]any)["width"])
	assert.Len(t, body["warnings"], 1)

	w, _ = f.do(t, http.MethodPost, "/widgets/resolve", `{"definitionId":"Weather"}`, false)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = f.do(t, http.MethodPost, "/widgets/resolve", `{"properties":{}}`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, "/widgets/resolve", `{broken`, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, "/widgets/resolve", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardLifecycle(t *testing.T) {
	f := newFixture(t)

	w, created := f.do(t, http.MethodPost, "/dashboards",
		`{"id":"ignored","name":"Morning","widgets":[{"definitionId":"Clock"}]}`, true)
	require.Equal(t, http.StatusCreated, w.Code, created)
	id := created["id"].(string)
	assert.NotEqual(t, "ignored", id)

	w, body := f.do(t, http.MethodGet, "/dashboards", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	w, body = f.do(t, http.MethodPut, "/dashboards/"+id, `{"name":"Evening","widgets":[]}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "Evening", body["name"])

	w, body = f.do(t, http.MethodGet, "/dashboards/"+id, "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Evening", body["name"])

	w, _ = f.do(t, http.MethodDelete, "/dashboards/"+id, "", true)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodGet, "/dashboards/"+id, "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutDashboardRejectsInvalidLayout(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodPut, "/dashboards/dup",
		`{"widgets":[{"id":"a","definitionId":"Clock"},{"id":"a","definitionId":"Quote"}]}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, body["error"])
}

func TestAdminRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	routes := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/dashboards", `{"name":"x"}`},
		{http.MethodPut, "/dashboards/home", `{"name":"x"}`},
		{http.MethodDelete, "/dashboards/home", ""},
		{http.MethodPatch, "/dashboards/home/tiles/clock", `{"properties":{"label":"x"}}`},
		{http.MethodGet, "/salah/cities?query=Berlin", ""},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w, body := f.do(t, r.method, r.path, r.body, false)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Equal(t, "admin capability required", body["error"])
		})
	}

	w, _ := f.do(t, http.MethodGet, "/dashboards/home", "", false)
	assert.Equal(t, http.StatusOK, w.Code, "deletion must not have happened")
}

func TestBoard(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	w, body := f.do(t, http.MethodGet, "/dashboards/home/board", "", false)
	require.Equal(t, http.StatusOK, w.Code)

	tiles := body["tiles"].([]any)
	require.Len(t, tiles, 3)

	clock := tiles[0].(map[string]any)
	assert.Equal(t, "clock", clock["id"])
	assert.Equal(t, string(render.StatusSuccess), clock["state"].(map[string]any)["status"])
	assert.Equal(t, "Now 12h", clock["state"].(map[string]any)["data"])

	weather := tiles[2].(map[string]any)
	assert.Equal(t, dashboard.TileErrorUnknownType, weather["error"])
	assert.Equal(t, string(render.StatusError), weather["state"].(map[string]any)["status"])

	w, _ = f.do(t, http.MethodGet, "/dashboards/missing/board", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTileWaitsForAsyncRender(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	w, _ := f.do(t, http.MethodGet, "/dashboards/home/board", "", false)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := f.do(t, http.MethodGet, "/dashboards/home/tiles/quote?wait=true", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	state := body["state"].(map[string]any)
	assert.Equal(t, string(render.StatusSuccess), state["status"])
	assert.Equal(t, "quote about life", state["data"])

	w, _ = f.do(t, http.MethodGet, "/dashboards/home/tiles/quote?wait=maybe", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodGet, "/dashboards/home/tiles/missing", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatchAndRefreshTile(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	w, body := f.do(t, http.MethodPatch, "/dashboards/home/tiles/clock", `{"properties":{"label":"Time"}}`, true)
	require.Equal(t, http.StatusOK, w.Code, body)
	assert.Equal(t, "Time 12h", body["state"].(map[string]any)["data"])

	layout, err := f.layouts.Get(context.Background(), "home")
	require.NoError(t, err)
	assert.Equal(t, "Time", layout.Widgets[0].Properties["label"])

	w, _ = f.do(t, http.MethodPatch, "/dashboards/home/tiles/clock", `{"properties":{}}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPatch, "/dashboards/home/tiles/ghost", `{"properties":{"label":"x"}}`, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = f.do(t, http.MethodPost, "/dashboards/home/tiles/quote/refresh", "", false)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "quote", body["id"])
}

func TestFindCity(t *testing.T) {
	f := newFixture(t)
	f.geocoding.result = &geocoding.Result{Result: []geocoding.City{{ID: 1, Name: "Berlin", Latitude: 52.52, Longitude: 13.41}}}

	w, body := f.do(t, http.MethodGet, "/salah/cities?query=Berlin", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Berlin", f.geocoding.query)
	assert.Len(t, body["result"], 1)

	f.geocoding.err = geocoding.ErrQueryTooShort
	w, _ = f.do(t, http.MethodGet, "/salah/cities?query=B", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetrievePrayer(t *testing.T) {
	f := newFixture(t)
	f.prayer.salah = &prayer.Salah{Timings: prayer.Timings{Fajr: "05:01", Isha: "21:40"}}

	w, body := f.do(t, http.MethodGet, "/salah/timings?latitude=52.52&longitude=13.41", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, widget.Location{Latitude: 52.52, Longitude: 13.41}, f.prayer.loc)
	assert.Equal(t, "05:01", body["timings"].(map[string]any)["Fajr"])

	w, _ = f.do(t, http.MethodGet, "/salah/timings?latitude=north&longitude=1", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"layout", dashboard.ErrLayoutNotFound, http.StatusNotFound},
		{"tile", dashboard.ErrTileNotFound, http.StatusNotFound},
		{"invalid layout", dashboard.ErrInvalidLayout, http.StatusBadRequest},
		{"location", prayer.ErrInvalidLocation, http.StatusBadRequest},
		{"query", geocoding.ErrQueryTooLong, http.StatusBadRequest},
		{"upstream", &client.FetchError{URL: "http://x", Err: errors.New("boom")}, http.StatusBadGateway},
		{"open circuit", &client.FetchError{URL: "http://x", Err: resilience.ErrCircuitOpen}, http.StatusServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestBodyLimit(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	big := `{"properties":{"label":"` + strings.Repeat("x", 70*1024) + `"}}`
	w, body := f.do(t, http.MethodPatch, "/dashboards/home/tiles/clock", big, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "exceeds")
}
