package resilience

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logger "github.com/umakantv/go-utils/logger"
)

func TestMain(m *testing.M) {
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})
	os.Exit(m.Run())
}

// testGateway returns a gateway with no backoff waits so retries are instant
func testGateway(retryCount, breakerThreshold int, cooldown time.Duration) *Gateway {
	breaker := NewBreaker(breakerThreshold, cooldown)
	return NewGateway(Config{
		RetryCount:  retryCount,
		BackoffBase: 0,
		Timeout:     5 * time.Second,
	}, breaker)
}

func getRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func TestGatewaySuccess(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	g := testGateway(3, 5, 30*time.Second)

	resp, err := g.Do(getRequest(t, upstream.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGatewayRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	g := testGateway(3, 10, 30*time.Second)

	resp, err := g.Do(getRequest(t, upstream.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(3), calls.Load())
}

func TestGatewayRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	g := testGateway(3, 10, 30*time.Second)

	resp, err := g.Do(getRequest(t, upstream.URL))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(2), calls.Load())
}

func TestGatewayExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	g := testGateway(3, 10, 30*time.Second)

	_, err := g.Do(getRequest(t, upstream.URL))
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusBadGateway, upstreamErr.StatusCode)
	// Initial attempt + 3 retries
	assert.Equal(t, int32(4), calls.Load())
}

func TestGatewayDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	g := testGateway(3, 10, 30*time.Second)

	_, err := g.Do(getRequest(t, upstream.URL))
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGatewayConnectionError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close() // nothing listening

	g := testGateway(0, 10, 30*time.Second)

	_, err := g.Do(getRequest(t, upstream.URL))
	assert.ErrorIs(t, err, ErrConnection)
}

func TestGatewayCancellationStopsRetries(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer upstream.Close()

	g := testGateway(3, 10, 30*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, upstream.URL, nil)
	require.NoError(t, err)

	_, err = g.Do(req)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGatewayCircuitOpensAndFailsFast(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	// No retries, so each call is exactly one attempt
	g := testGateway(0, 5, 30*time.Second)

	for i := 0; i < 5; i++ {
		_, err := g.Do(getRequest(t, upstream.URL))
		var upstreamErr *UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
	}
	require.Equal(t, int32(5), calls.Load())

	// Sixth call fails fast without touching the network
	_, err := g.Do(getRequest(t, upstream.URL))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(5), calls.Load())
}

func TestGatewayHalfOpenTrialClosesCircuit(t *testing.T) {
	var calls atomic.Int32
	var failing atomic.Bool
	failing.Store(true)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	g := testGateway(0, 2, 30*time.Millisecond)

	for i := 0; i < 2; i++ {
		_, err := g.Do(getRequest(t, upstream.URL))
		require.Error(t, err)
	}
	_, err := g.Do(getRequest(t, upstream.URL))
	require.ErrorIs(t, err, ErrCircuitOpen)

	failing.Store(false)
	time.Sleep(50 * time.Millisecond)

	// Trial call is admitted and its success closes the circuit
	resp, err := g.Do(getRequest(t, upstream.URL))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = g.Do(getRequest(t, upstream.URL))
	require.NoError(t, err)
	resp.Body.Close()
}
