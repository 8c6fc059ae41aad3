package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	logger "github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

var (
	// ErrCircuitOpen is returned without attempting network I/O while the
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit open: upstream temporarily unavailable")
	// ErrTimeout is returned when a call or its context deadline expires.
	ErrTimeout = errors.New("upstream request timed out")
	// ErrConnection is returned for network-level failures.
	ErrConnection = errors.New("upstream connection error")
)

// UpstreamError reports a non-success HTTP status from the upstream
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// Config holds retry settings for the gateway
type Config struct {
	RetryCount  int           // Retries after the initial attempt (default 3)
	BackoffBase float64       // Seconds; wait is BackoffBase^attempt (2 -> 2s, 4s, 8s)
	Timeout     time.Duration // Per-attempt HTTP timeout
}

// Gateway wraps outbound HTTP calls with retry-with-exponential-backoff and a
// shared circuit breaker. Transient outcomes (5xx, 408, 429, timeouts,
// connection errors) are retried; other 4xx statuses are not. Every attempt
// passes through the breaker so its counters are shared across concurrent
// requests.
type Gateway struct {
	client  *http.Client
	cfg     Config
	breaker *Breaker
}

// NewGateway creates a gateway around a single shared breaker instance
func NewGateway(cfg Config, breaker *Breaker) *Gateway {
	return &Gateway{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		breaker: breaker,
	}
}

// Do executes the request with retries and fail-fast breaker checks.
// On success the response body is the caller's to close. Failures are
// classified as ErrTimeout, ErrConnection, ErrCircuitOpen or *UpstreamError.
func (g *Gateway) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := g.breaker.Allow(); err != nil {
			return nil, err
		}

		resp, err := g.client.Do(req.Clone(ctx))
		outcome := g.classify(resp, err)
		if outcome == nil {
			g.breaker.RecordSuccess()
			return resp, nil
		}
		lastErr = outcome

		if !isTransient(outcome) {
			// 4xx other than 408/429: upstream answered, do not retry
			g.breaker.RecordSuccess()
			return nil, outcome
		}

		g.breaker.RecordFailure()

		if attempt >= g.cfg.RetryCount || ctx.Err() != nil {
			break
		}

		wait := time.Duration(math.Pow(g.cfg.BackoffBase, float64(attempt+1)) * float64(time.Second))
		logger.Info("Retrying upstream call",
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(outcome))

		select {
		case <-ctx.Done():
			// Cancellation stops in-flight retries
			return nil, ErrTimeout
		case <-time.After(wait):
		}
	}

	if ctx.Err() != nil {
		return nil, ErrTimeout
	}
	return nil, lastErr
}

// classify maps an attempt outcome to the gateway error taxonomy.
// Returns nil for success (2xx). Non-success responses have their bodies
// drained and closed here.
func (g *Gateway) classify(resp *http.Response, err error) error {
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrTimeout
		}
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ErrTimeout
		}
		return ErrConnection
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return &UpstreamError{StatusCode: resp.StatusCode}
}

// isTransient reports whether a classified failure is expected to resolve on
// retry: timeouts, connection errors, 5xx, 408 and 429.
func isTransient(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrConnection) {
		return true
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode >= 500 ||
			upstream.StatusCode == http.StatusRequestTimeout ||
			upstream.StatusCode == http.StatusTooManyRequests
	}
	return false
}
