package domain

// AddOrderArgs carries the typed payload for placing an order.
type AddOrderArgs struct {
	// ServiceID is the provider-side service identifier.
	ServiceID int64
	// Link is the target URL the order applies to.
	Link string
	// Quantity is the amount ordered.
	Quantity int
	// Runs splits drip-feed delivery into this many runs. Nil means the
	// parameter is omitted from the request entirely.
	Runs *int
	// Interval is the drip-feed interval in minutes. Nil means omitted.
	Interval *int
}

// OrderStatusArgs carries the payload for a single status query.
type OrderStatusArgs struct {
	// OrderID is the upstream order identifier.
	OrderID string
}

// BatchOrderStatusArgs carries the payload for a batched status query.
type BatchOrderStatusArgs struct {
	// OrderIDs are the upstream order identifiers, joined per the
	// provider's batching convention (comma-separated).
	OrderIDs []string
}

// RefillArgs carries the payload for a refill submission.
type RefillArgs struct {
	// OrderID is the upstream order identifier to refill.
	OrderID string
}

// RefillStatusArgs carries the payload for a refill status query.
type RefillStatusArgs struct {
	// RefillID is the upstream refill identifier.
	RefillID string
}

// CancelArgs carries the payload for a cancel submission.
type CancelArgs struct {
	// OrderID is the upstream order identifier to cancel.
	OrderID string
}
