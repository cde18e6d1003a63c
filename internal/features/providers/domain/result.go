package domain

import "net/http"

// RequestDescriptor is a ready-to-send provider request. It is ephemeral:
// produced by the request builder, consumed exactly once by the transport,
// never persisted.
type RequestDescriptor struct {
	// URL is the fully assembled request URL, including the query string
	// for GET form requests.
	URL string
	// Method is the HTTP verb.
	Method string
	// Header carries content-type and any other request headers.
	Header http.Header
	// Body is the encoded request body; nil for GET form requests.
	Body []byte
}

// Service is one entry of a provider's service catalog. Field presence
// varies per dialect, so string fields hold whatever the provider reported.
type Service struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Rate     string `json:"rate,omitempty"`
	Min      string `json:"min,omitempty"`
	Max      string `json:"max,omitempty"`
	// Refill is nil when the provider did not report refill support.
	Refill *bool `json:"refill,omitempty"`
}

// CanonicalResult is the normalized outcome of one provider call. Which
// fields are populated depends on the operation.
type CanonicalResult struct {
	// Operation tags which canonical operation produced this result.
	Operation Operation `json:"operation"`

	// Status is the folded upstream status for status-bearing operations.
	Status CanonicalStatus `json:"status,omitempty"`

	// OrderID is the upstream order identifier (addOrder).
	OrderID string `json:"order_id,omitempty"`
	// RefillID is the upstream refill identifier (refill).
	RefillID string `json:"refill_id,omitempty"`

	// Charge, StartCount and Remains are reported verbatim; providers
	// disagree on whether these are strings or numbers.
	Charge     string `json:"charge,omitempty"`
	StartCount string `json:"start_count,omitempty"`
	Remains    string `json:"remains,omitempty"`

	// RefillAvailable is nil when the provider did not report the field.
	RefillAvailable *bool `json:"refill_available,omitempty"`

	// Balance and Currency are populated for balance queries.
	Balance  string `json:"balance,omitempty"`
	Currency string `json:"currency,omitempty"`

	// Services is populated for catalog queries.
	Services []Service `json:"services,omitempty"`

	// Batch maps upstream order id to its per-order result for batch
	// status queries. Entries that failed upstream carry ErrorMessage.
	Batch map[string]CanonicalResult `json:"batch,omitempty"`

	// ErrorMessage holds a per-entry upstream error inside Batch results.
	ErrorMessage string `json:"error_message,omitempty"`
}

// RefillEligibility is derived per refill attempt, never stored.
type RefillEligibility struct {
	// Eligible reports whether a refill may proceed.
	Eligible bool `json:"eligible"`
	// Reason is a human-readable explanation when ineligible.
	Reason string `json:"reason,omitempty"`
}

// Eligible returns a positive eligibility outcome.
func Eligible() RefillEligibility {
	return RefillEligibility{Eligible: true}
}

// Ineligible returns a negative eligibility outcome with the given reason.
func Ineligible(reason string) RefillEligibility {
	return RefillEligibility{Eligible: false, Reason: reason}
}
