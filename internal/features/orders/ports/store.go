package ports

import (
	"context"
	"errors"

	"panel-connector/internal/features/orders/domain"
	providerdomain "panel-connector/internal/features/providers/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence port for providers, orders and refill requests.
// Orchestration runs read through it and hand mutations back to it; they
// never hold cross-call state of their own.
type Store interface {
	// GetProvider loads a provider credential record by id.
	GetProvider(ctx context.Context, id string) (*providerdomain.Provider, error)

	// GetOrder loads a local order record by id.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// UpdateOrderStatus transitions the local order status and bumps the
	// record's last-updated timestamp.
	UpdateOrderStatus(ctx context.Context, id string, status providerdomain.CanonicalStatus) error

	// CreateRefillRequest creates a pending refill request for an order.
	CreateRefillRequest(ctx context.Context, orderID, reason string) (*domain.RefillRequest, error)

	// GetRefillRequest loads a refill request by id.
	GetRefillRequest(ctx context.Context, id string) (*domain.RefillRequest, error)

	// UpdateRefillRequest transitions a refill request and appends notes.
	UpdateRefillRequest(ctx context.Context, id string, status domain.RefillRequestStatus, notes string) error

	// LinkRefill records the provider-side refill id on a local request.
	LinkRefill(ctx context.Context, id string, upstreamRefillID string) error
}
