package render

import (
	"errors"
	"time"

	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/utils"
)

// Status is the observable phase of a tile render
type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorMessageKey is the localization key a client shows for any failed tile
const ErrorMessageKey = "widget.error"

var (
	// ErrUnknownTile is returned for tiles the dispatcher does not track
	ErrUnknownTile = errors.New("unknown tile")

	// ErrNoDefinition is returned when an instance carries no resolved definition
	ErrNoDefinition = errors.New("instance has no definition")

	// ErrRenderTimeout is returned when a render exceeds the configured timeout
	ErrRenderTimeout = errors.New("render timed out")

	// ErrRenderPanic is returned when a renderer panics
	ErrRenderPanic = errors.New("renderer panicked")
)

// Key addresses one tile on one dashboard
type Key struct {
	Dashboard string `json:"dashboard"`
	Tile      string `json:"tile"`
}

func (k Key) String() string {
	return k.Dashboard + "/" + k.Tile
}

// State is a tile's render state. Data is set only on success; Error and
// Detail only on error. Fingerprint identifies the property set the state
// belongs to.
type State struct {
	Widget      string            `json:"widget"`
	Status      Status            `json:"status"`
	Data        any               `json:"data,omitempty"`
	Error       string            `json:"error,omitempty"`
	Detail      string            `json:"detail,omitempty"`
	Fingerprint utils.Fingerprint `json:"fingerprint"`
	Generation  uint64            `json:"generation"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Settled reports whether the render finished
func (s State) Settled() bool {
	return s.Status == StatusSuccess || s.Status == StatusError
}

// Update is a state change delivered to subscribers
type Update struct {
	Key   Key   `json:"key"`
	State State `json:"state"`
}

// Failed builds an error state for a tile that never reached a renderer,
// such as an occurrence of an unknown widget type.
func Failed(widgetID string, err error) State {
	return State{
		Widget:    widgetID,
		Status:    StatusError,
		Error:     ErrorMessageKey,
		Detail:    err.Error(),
		UpdatedAt: time.Now(),
	}
}
