/*
Package tracing provides lightweight request tracing for debugging
production issues.

# Overview

Every inbound HTTP request gets a span. Trace context arrives and leaves in
the X-Trace-ID and X-Span-ID headers, is carried on the request context, and
is forwarded on outbound fetches so one trace covers a tile render and the
upstream calls it makes.

# Usage

	tracer := tracing.New("dashboard", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.Start(ctx, "seed")
	defer span.End()

	// Outbound propagation
	headers := map[string]string{}
	tracing.InjectTraceContext(ctx, headers)

# Performance

Finished spans are buffered (1000) and logged at debug level by a single
collector goroutine. When the buffer is full spans are dropped, never
blocking the request path.
*/
package tracing
