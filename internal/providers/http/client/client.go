package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/tracing"
)

// Config defines outbound client behavior
type Config struct {
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RPS limits requests per second across all hosts; zero is unlimited
	RPS          float64
	MaxBodyBytes int
	UserAgent    string
	// BreakerFailures is the number of consecutive upstream faults that open
	// a host's circuit
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Timeout:         15 * time.Second,
		Retries:         2,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxBodyBytes:    8 * 1024 * 1024,
		UserAgent:       "Dashboard-Backend/1.0",
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Response is a fully read upstream response
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client wraps resty with retries, rate limiting and per-host circuit breakers
type Client struct {
	Resty    *resty.Client
	Limiter  *rate.Limiter
	Breakers *resilience.Group

	maxBody int
	logger  *zap.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
}

// NewClient creates an outbound client. Retries happen in the transport
// (retryablehttp), so resty itself never retries.
func NewClient(cfg Config, logger *zap.Logger, metrics *monitoring.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	if cfg.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		retryClient.RetryWaitMax = cfg.RetryWaitMax
	}
	retryClient.Logger = retryLogger{s: logger.Named("retry").Sugar()}
	// Hand the last response back after the final attempt so its status is reported
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		restyClient.SetHeader("User-Agent", cfg.UserAgent)
	}
	// Bodies are read through the limit, so an oversized upstream is cut off
	// mid-stream instead of being buffered whole
	if cfg.MaxBodyBytes > 0 {
		restyClient.SetResponseBodyLimit(cfg.MaxBodyBytes)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	breakers := resilience.NewGroup(resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsFailure: isUpstreamFailure,
		OnStateChange: func(host string, from, to resilience.State) {
			logger.Warn("Upstream circuit changed state",
				zap.String("host", host),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		Resty:    restyClient,
		Limiter:  limiter,
		Breakers: breakers,
		maxBody:  cfg.MaxBodyBytes,
		logger:   logger,
		metrics:  metrics,
	}
}

// WithTracer records one span per fetch, as a child of the caller's span
func (c *Client) WithTracer(tracer *tracing.Tracer) *Client {
	c.tracer = tracer
	return c
}

func isUpstreamFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.upstreamFault()
	}
	return true
}

// Get fetches rawURL with query merged into its own query string. Every
// error is a *FetchError.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) (resp *Response, err error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)}
	}
	target := redact(u)

	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: target, Err: fmt.Errorf("rate limit: %w", err)}
	}

	if c.tracer != nil {
		var span *tracing.Span
		span, ctx = c.tracer.Start(ctx, "fetch "+u.Host)
		span.SetTag("http.url", target)
		defer func() {
			span.SetStatus(statusCode(resp, err))
			span.SetError(err)
			span.End()
		}()
	}

	headers := make(map[string]string, 2)
	tracing.InjectTraceContext(ctx, headers)

	timer := monitoring.NewTimer()
	err = c.Breakers.Do(u.Host, func() error {
		r, err := c.Resty.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetQueryParamsFromValues(query).
			Get(rawURL)
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			return &FetchError{URL: target, StatusCode: r.StatusCode(), Err: fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, c.maxBody)}
		}
		if err != nil {
			return &FetchError{URL: target, Err: err}
		}
		if r.StatusCode() >= 400 {
			return &FetchError{URL: target, StatusCode: r.StatusCode(), Err: fmt.Errorf("unexpected status %q", r.Status())}
		}
		resp = &Response{
			StatusCode:  r.StatusCode(),
			ContentType: r.Header().Get("Content-Type"),
			Body:        r.Body(),
		}
		return nil
	})

	c.metrics.RecordFetch(u.Host, statusLabel(resp, err), timer.Elapsed())

	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{URL: target, Err: err}
		}
		c.logger.Warn("Fetch failed",
			zap.String("host", u.Host),
			zap.String("url", target),
			zap.Error(err))
		return nil, err
	}

	c.logger.Debug("Fetched",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("elapsed", timer.Elapsed()))
	return resp, nil
}

// GetJSON fetches rawURL and decodes the JSON body into out
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	resp, err := c.Get(ctx, rawURL, query)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(resp.Body, out); err != nil {
		u, _ := url.Parse(rawURL)
		return &FetchError{URL: redact(u), StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrInvalidJSON, err)}
	}
	return nil
}

// BreakerStates reports the circuit per upstream host
func (c *Client) BreakerStates() map[string]resilience.Snapshot {
	return c.Breakers.Snapshots()
}

func statusCode(resp *Response, err error) int {
	var fe *FetchError
	switch {
	case err == nil && resp != nil:
		return resp.StatusCode
	case errors.As(err, &fe):
		return fe.StatusCode
	default:
		return 0
	}
}

func statusLabel(resp *Response, err error) string {
	if err == nil {
		return strconv.Itoa(resp.StatusCode)
	}
	var fe *FetchError
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return "circuit_open"
	case errors.As(err, &fe) && fe.StatusCode > 0:
		return strconv.Itoa(fe.StatusCode)
	default:
		return "error"
	}
}

func redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Scheme + "://" + u.Host + u.Path
}
