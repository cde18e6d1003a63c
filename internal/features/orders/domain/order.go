package domain

import (
	"time"

	providerdomain "panel-connector/internal/features/providers/domain"
)

// Order is the local record for one placed order and its provider linkage.
type Order struct {
	// ID is the unique local identifier for the order.
	ID string `json:"id"`
	// ProviderID links the order to its upstream provider record.
	ProviderID string `json:"provider_id"`
	// UpstreamOrderID is the provider-side identifier; empty when the
	// order was never forwarded upstream.
	UpstreamOrderID string `json:"upstream_order_id,omitempty"`
	// ServiceID is the provider-side service the order was placed on.
	ServiceID int64 `json:"service_id"`
	// Link is the target URL the order applies to.
	Link string `json:"link"`
	// Quantity is the amount ordered.
	Quantity int `json:"quantity"`
	// Status is the canonical local status of the order.
	Status providerdomain.CanonicalStatus `json:"status"`
	// RefillSupported is carried from the ordered service.
	RefillSupported bool `json:"refill_supported"`
	// RefillDays is the refill window in days, measured from LastUpdatedAt.
	// 0 means the service imposes no window.
	RefillDays int `json:"refill_days,omitempty"`
	// Charge is the provider-reported cost, verbatim.
	Charge string `json:"charge,omitempty"`
	// StartCount is the provider-reported starting counter, verbatim.
	StartCount string `json:"start_count,omitempty"`
	// Remains is the provider-reported remaining amount, verbatim.
	Remains string `json:"remains,omitempty"`
	// CreatedAt is when the order was placed locally.
	CreatedAt time.Time `json:"created_at"`
	// LastUpdatedAt is when the local record last changed.
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// RefillRequestStatus is the lifecycle of a local refill request.
type RefillRequestStatus string

const (
	// RefillPending means the request was accepted and awaits completion.
	RefillPending RefillRequestStatus = "pending"
	// RefillCompleted means the provider finished the refill.
	RefillCompleted RefillRequestStatus = "completed"
	// RefillRejected means local preconditions refused the request.
	RefillRejected RefillRequestStatus = "rejected"
	// RefillFailed means the provider call failed; resendable by an admin.
	RefillFailed RefillRequestStatus = "failed"
	// RefillError means the provider explicitly errored the request.
	RefillError RefillRequestStatus = "error"
)

// RefillRequest is the local record of one refill attempt.
type RefillRequest struct {
	// ID is the unique local identifier for the refill request.
	ID string `json:"id"`
	// OrderID links the request to its local order.
	OrderID string `json:"order_id"`
	// UpstreamRefillID is the provider-side refill identifier once accepted.
	UpstreamRefillID string `json:"upstream_refill_id,omitempty"`
	// Status is the request lifecycle state.
	Status RefillRequestStatus `json:"status"`
	// Notes carries the request reason and any failure diagnostics.
	Notes string `json:"notes,omitempty"`
	// CreatedAt is when the request was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the request last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Resendable reports whether an administrator may resend this request.
func (r RefillRequest) Resendable() bool {
	return r.Status == RefillFailed || r.Status == RefillError
}
