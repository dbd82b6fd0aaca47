// Package client provides the outbound HTTP client shared by every widget
// and collaborator that fetches external data.
//
// Built on go-resty/resty over a hashicorp/go-retryablehttp transport:
//   - Retries with exponential backoff on connection errors, 5xx and 429
//   - Optional global rate limit (golang.org/x/time/rate)
//   - One circuit breaker per upstream host; 4xx responses do not trip it
//   - Fetch metrics by host and status
//
// Every error returned is a *FetchError and matches ErrFetchFailure, so
// callers can treat it as the tile-local error state.
//
// Example Usage:
//
//	c := client.NewClient(client.DefaultConfig(), logger, metrics)
//	var out struct{ Data any `json:"data"` }
//	err := c.GetJSON(ctx, "https://api.example.com/series", url.Values{"range": {"7d"}}, &out)
package client
