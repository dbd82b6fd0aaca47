// Package server assembles the dashboard service: configuration, logging,
// metrics, tracing, outbound providers, the widget catalog, the render
// dispatcher, layout storage and the HTTP/WebSocket surface.
//
// Example Usage:
//
//	srv, err := server.NewServer(ctx, config.Default())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer srv.Close()
//	err = srv.Run(ctx)
package server
