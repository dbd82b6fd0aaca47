// Package ws streams tile render state over WebSocket.
//
// A client subscribes to one dashboard at a time and receives a snapshot of
// the dashboard's current tile states followed by every change the render
// dispatcher publishes for it. Loading and settled states arrive in order
// per tile; a client that falls behind misses intermediate updates but the
// next settled state always supersedes them.
//
// Message Types (Client → Server):
//   - subscribe: {"type":"subscribe","dashboard":"home"}
//   - unsubscribe: stop receiving tile updates
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection established
//   - snapshot: Every tile state of the subscribed dashboard
//   - tile: One tile changed state
//   - pong: Reply to ping
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(dispatcher, layouts, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
