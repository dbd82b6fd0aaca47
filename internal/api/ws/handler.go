package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/Dashboard/backend/internal/render"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	outboundBuffer = 64
)

// LayoutChecker reports whether a dashboard exists
type LayoutChecker interface {
	Exists(ctx context.Context, layoutID string) (bool, error)
}

// Handler manages WebSocket connections
type Handler struct {
	dispatcher *render.Dispatcher
	layouts    LayoutChecker
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(dispatcher *render.Dispatcher, layouts LayoutChecker, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		dispatcher: dispatcher,
		layouts:    layouts,
		metrics:    metrics,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// connection is one client session. Only the write loop touches conn for
// writing and only it tracks the subscription; the read loop hands replies
// and subscription changes over through out, in order.
type connection struct {
	h    *Handler
	conn *websocket.Conn
	out  chan outbound
}

// outbound is either a message to write or, with switchTo set, a change of
// subscribed dashboard (empty unsubscribes)
type outbound struct {
	msg       ServerMessage
	switchTo  bool
	dashboard string
}

func newConnection(h *Handler, conn *websocket.Conn) *connection {
	return &connection{h: h, conn: conn, out: make(chan outbound, outboundBuffer)}
}

// stream is the write loop's view of the subscription: the dashboard and the
// last state written per tile
type stream struct {
	dashboard string
	sent      map[string]render.State
}

// admit reports whether u is newer than what the client already has for its
// tile and records it if so
func (s *stream) admit(u render.Update) bool {
	if s.dashboard == "" || u.Key.Dashboard != s.dashboard {
		return false
	}
	if last, ok := s.sent[u.Key.Tile]; ok && !newer(u.State, last) {
		return false
	}
	s.sent[u.Key.Tile] = u.State
	return true
}

// newer orders two states of one tile: a later generation wins, and within a
// generation a settled state supersedes loading
func newer(next, last render.State) bool {
	if next.Generation != last.Generation {
		return next.Generation > last.Generation
	}
	return next.Settled() && !last.Settled()
}

// HandleConnection upgrades the request and streams tile updates until the
// client disconnects
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates, unsubscribe := h.dispatcher.Subscribe(0)
	defer unsubscribe()

	sess := newConnection(h, conn)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.writeLoop(ctx, updates)
		// Unblocks the read loop
		cancel()
		_ = conn.Close()
	}()

	sess.enqueue(ServerMessage{Type: TypeSystem, Message: "Connected to Dashboard Service (Go)"})
	sess.readLoop(ctx)

	cancel()
	<-done
}

func (c *connection) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			c.h.metrics.RecordWSMessage("in", "invalid")
			c.sendError("invalid message")
			continue
		}
		c.h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case TypeSubscribe:
			c.subscribe(ctx, msg.Dashboard)
		case TypeUnsubscribe:
			c.enqueueSwitch(ctx, "")
		case TypePing:
			c.enqueue(ServerMessage{Type: TypePong})
		default:
			c.sendError("unknown message type")
		}
	}
}

func (c *connection) subscribe(ctx context.Context, dashboard string) {
	if dashboard == "" {
		c.sendError("dashboard is required")
		return
	}
	ok, err := c.h.layouts.Exists(ctx, dashboard)
	if err != nil {
		c.h.logger.Error("Failed to look up dashboard", zap.String("dashboard", dashboard), zap.Error(err))
		c.sendError("failed to look up dashboard")
		return
	}
	if !ok {
		c.sendError("dashboard not found")
		return
	}

	// The write loop takes the snapshot itself, so it is ordered against the
	// tile updates it drains
	c.enqueueSwitch(ctx, dashboard)
}

func (c *connection) writeLoop(ctx context.Context, updates <-chan render.Update) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	var sub stream
	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return

		case o := <-c.out:
			msg := o.msg
			if o.switchTo {
				sub = stream{dashboard: o.dashboard}
				if o.dashboard == "" {
					continue
				}
				sub.sent = c.h.dispatcher.Snapshot(o.dashboard)
				msg = ServerMessage{Type: TypeSnapshot, Dashboard: o.dashboard, Tiles: sub.sent}
			}
			if err := c.write(msg); err != nil {
				return
			}

		case u, ok := <-updates:
			if !ok {
				return
			}
			if !sub.admit(u) {
				continue
			}
			state := u.State
			if err := c.write(ServerMessage{
				Type:      TypeTile,
				Dashboard: u.Key.Dashboard,
				Tile:      u.Key.Tile,
				State:     &state,
			}); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) write(msg ServerMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	data, err := sonic.Marshal(msg)
	if err != nil {
		c.h.logger.Error("Failed to encode WebSocket message", zap.String("type", msg.Type), zap.Error(err))
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			c.h.logger.Debug("WebSocket write failed", zap.Error(err))
		}
		return err
	}
	c.h.metrics.RecordWSMessage("out", msg.Type)
	return nil
}

// enqueue hands msg to the write loop, dropping it if the client is too far
// behind to keep up
func (c *connection) enqueue(msg ServerMessage) {
	select {
	case c.out <- outbound{msg: msg}:
	default:
		c.h.logger.Warn("Dropped WebSocket message for slow client", zap.String("type", msg.Type))
	}
}

// enqueueSwitch changes the subscribed dashboard. It blocks rather than drop,
// since a lost switch would leave the client on the wrong dashboard.
func (c *connection) enqueueSwitch(ctx context.Context, dashboard string) {
	select {
	case c.out <- outbound{switchTo: true, dashboard: dashboard}:
	case <-ctx.Done():
	}
}

func (c *connection) sendError(message string) {
	c.enqueue(ServerMessage{Type: TypeError, Message: message})
}
