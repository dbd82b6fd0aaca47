package ws

import "github.com/GriffinCanCode/Dashboard/backend/internal/render"

// Client message types
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"
)

// Server message types
const (
	TypeSystem   = "system"
	TypeSnapshot = "snapshot"
	TypeTile     = "tile"
	TypePong     = "pong"
	TypeError    = "error"
)

// ClientMessage is a message received from a client
type ClientMessage struct {
	Type      string `json:"type"`
	Dashboard string `json:"dashboard,omitempty"`
}

// ServerMessage is a message sent to a client
type ServerMessage struct {
	Type      string                  `json:"type"`
	Message   string                  `json:"message,omitempty"`
	Dashboard string                  `json:"dashboard,omitempty"`
	Tile      string                  `json:"tile,omitempty"`
	State     *render.State           `json:"state,omitempty"`
	Tiles     map[string]render.State `json:"tiles,omitempty"`
	Timestamp int64                   `json:"timestamp"`
}
