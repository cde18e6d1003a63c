package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"panel-connector/internal/features/providers/domain"
	"panel-connector/internal/features/providers/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptorFor(url string) domain.RequestDescriptor {
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	return domain.RequestDescriptor{
		URL:    url,
		Method: http.MethodPost,
		Header: header,
		Body:   []byte("key=k&action=status&order=1"),
	}
}

// TestHTTPTransport_Send verifies a plain round trip.
func TestHTTPTransport_Send(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "Completed"}`))
	}))
	defer ts.Close()

	transport := NewHTTPTransport(ts.Client())
	resp, err := transport.Send(context.Background(), descriptorFor(ts.URL), ports.CallOptions{Timeout: time.Second})
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.Equal(t, http.StatusOK, resp.HTTPStatus)
	assert.JSONEq(t, `{"status": "Completed"}`, string(resp.Body))
}

// TestHTTPTransport_UserAgent verifies the configured agent is applied
// unless the descriptor carries its own.
func TestHTTPTransport_UserAgent(t *testing.T) {
	var seen string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	transport := NewHTTPTransport(ts.Client())
	transport.UserAgent = "panel-connector/1.0"

	_, err := transport.Send(context.Background(), descriptorFor(ts.URL), ports.CallOptions{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "panel-connector/1.0", seen)

	desc := descriptorFor(ts.URL)
	desc.Header.Set("User-Agent", "custom/2.0")
	_, err = transport.Send(context.Background(), desc, ports.CallOptions{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "custom/2.0", seen)
}

// TestHTTPTransport_NonOKPassesThrough verifies non-2xx responses are
// returned for the orchestrator to classify, not turned into errors here.
func TestHTTPTransport_NonOKPassesThrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": "maintenance"}`))
	}))
	defer ts.Close()

	transport := NewHTTPTransport(ts.Client())
	resp, err := transport.Send(context.Background(), descriptorFor(ts.URL), ports.CallOptions{Timeout: time.Second})
	require.NoError(t, err)

	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusServiceUnavailable, resp.HTTPStatus)
}

// TestHTTPTransport_Timeout verifies deadline expiry is classified as a
// transport timeout.
func TestHTTPTransport_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer ts.Close()

	transport := NewHTTPTransport(ts.Client())
	_, err := transport.Send(context.Background(), descriptorFor(ts.URL), ports.CallOptions{Timeout: 20 * time.Millisecond})
	require.Error(t, err)

	callErr, ok := domain.AsCallError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailTimeout, callErr.Kind)
}

// TestHTTPTransport_NetworkError verifies connection failures are
// classified as network errors, distinct from timeouts.
func TestHTTPTransport_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	transport := NewHTTPTransport(http.DefaultClient)
	_, err := transport.Send(context.Background(), descriptorFor(url), ports.CallOptions{Timeout: time.Second})
	require.Error(t, err)

	callErr, ok := domain.AsCallError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailNetwork, callErr.Kind)
}

// TestHTTPTransport_RateLimiterPerKey verifies one limiter per rate key.
func TestHTTPTransport_RateLimiterPerKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	transport := NewHTTPTransport(ts.Client())

	opts := ports.CallOptions{Timeout: time.Second, RateKey: "prov-1", PerMinute: 600}
	for i := 0; i < 3; i++ {
		_, err := transport.Send(context.Background(), descriptorFor(ts.URL), opts)
		require.NoError(t, err)
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Len(t, transport.limiters, 1)
	assert.Contains(t, transport.limiters, "prov-1")
}
