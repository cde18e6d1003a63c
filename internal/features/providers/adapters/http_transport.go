package adapters

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"panel-connector/internal/core/logger"
	"panel-connector/internal/features/providers/domain"
	"panel-connector/internal/features/providers/ports"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseBody caps how much of an upstream body is read. Provider
// responses are small JSON/XML documents; anything larger is misbehavior.
const maxResponseBody = 1 << 20

// HTTPTransport sends provider requests over a shared HTTP client. Each
// call is bounded by the caller-supplied timeout and optionally throttled
// by a per-provider requests-per-minute limiter. Failures are classified
// but never retried here; retry is an explicit operator action.
type HTTPTransport struct {
	client *http.Client
	logger *zap.Logger

	// UserAgent is sent on requests that do not set their own.
	UserAgent string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPTransport creates a transport on top of the given client.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	return &HTTPTransport{
		client:   client,
		logger:   logger.Get(),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Send performs one bounded provider call.
func (t *HTTPTransport) Send(ctx context.Context, desc domain.RequestDescriptor, opts ports.CallOptions) (*ports.Response, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if err := t.waitForSlot(ctx, opts); err != nil {
		return nil, classifyTransportError(err)
	}

	var bodyReader io.Reader
	if len(desc.Body) > 0 {
		bodyReader = bytes.NewReader(desc.Body)
	}

	req, err := http.NewRequestWithContext(ctx, desc.Method, desc.URL, bodyReader)
	if err != nil {
		return nil, &domain.CallError{Kind: domain.FailNetwork, Message: "invalid request descriptor", Err: err}
	}
	for key, values := range desc.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if t.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	return &ports.Response{
		HTTPStatus: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// waitForSlot blocks until the provider's rate limiter grants a slot, or
// the context deadline ends the wait first.
func (t *HTTPTransport) waitForSlot(ctx context.Context, opts ports.CallOptions) error {
	if opts.PerMinute <= 0 || opts.RateKey == "" {
		return nil
	}

	t.mu.Lock()
	limiter, ok := t.limiters[opts.RateKey]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.PerMinute)/60.0), opts.PerMinute)
		t.limiters[opts.RateKey] = limiter
	}
	t.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		t.logger.Warn("Rate limit wait aborted",
			zap.String("rate_key", opts.RateKey),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// classifyTransportError separates timeouts from other network failures so
// the two conditions stay distinguishable in logs and diagnostics.
func classifyTransportError(err error) *domain.CallError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.CallError{Kind: domain.FailTimeout, Message: "provider call timed out", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.CallError{Kind: domain.FailTimeout, Message: "provider call timed out", Err: err}
	}

	return &domain.CallError{Kind: domain.FailNetwork, Err: err}
}
