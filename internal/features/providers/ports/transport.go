package ports

import (
	"context"
	"net/http"
	"time"

	"panel-connector/internal/features/providers/domain"
)

// Response is the raw upstream answer handed to the response parser.
type Response struct {
	// HTTPStatus is the upstream status code.
	HTTPStatus int
	// Header carries the response headers.
	Header http.Header
	// Body is the raw response body.
	Body []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r *Response) OK() bool {
	return r.HTTPStatus >= 200 && r.HTTPStatus < 300
}

// CallOptions bound one outbound provider call.
type CallOptions struct {
	// Timeout is the hard deadline for the whole call.
	Timeout time.Duration
	// RateKey identifies the limiter bucket, typically the provider id.
	RateKey string
	// PerMinute caps calls in the RateKey bucket. 0 means uncapped.
	PerMinute int
}

// Transport performs one bounded provider call. Implementations classify
// failures as domain.CallError (timeout vs network) and never retry.
type Transport interface {
	Send(ctx context.Context, desc domain.RequestDescriptor, opts CallOptions) (*Response, error)
}
