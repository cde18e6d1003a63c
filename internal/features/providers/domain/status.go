package domain

import "strings"

// CanonicalStatus is the closed status vocabulary every upstream dialect
// folds into.
type CanonicalStatus string

const (
	// StatusPending indicates the order is queued and not yet started.
	StatusPending CanonicalStatus = "pending"
	// StatusInProgress indicates the order is being worked on.
	StatusInProgress CanonicalStatus = "in_progress"
	// StatusCompleted indicates the order was fully delivered.
	StatusCompleted CanonicalStatus = "completed"
	// StatusPartial indicates the order was only partially delivered.
	StatusPartial CanonicalStatus = "partial"
	// StatusCancelled indicates the order was cancelled upstream.
	StatusCancelled CanonicalStatus = "cancelled"
	// StatusError indicates the order failed upstream.
	StatusError CanonicalStatus = "error"
	// StatusUnknown is the fold target for any unrecognized upstream status.
	StatusUnknown CanonicalStatus = "unknown"
)

// statusSynonyms maps normalized upstream status strings to the canonical
// set. Providers disagree on casing and wording; anything not listed here
// folds to StatusUnknown rather than failing the parse.
var statusSynonyms = map[string]CanonicalStatus{
	"pending":             StatusPending,
	"queue":               StatusPending,
	"queued":              StatusPending,
	"awaiting":            StatusPending,
	"in progress":         StatusInProgress,
	"in_progress":         StatusInProgress,
	"inprogress":          StatusInProgress,
	"processing":          StatusInProgress,
	"active":              StatusInProgress,
	"running":             StatusInProgress,
	"completed":           StatusCompleted,
	"complete":            StatusCompleted,
	"done":                StatusCompleted,
	"success":             StatusCompleted,
	"delivered":           StatusCompleted,
	"partial":             StatusPartial,
	"partially completed": StatusPartial,
	"partially_completed": StatusPartial,
	"canceled":            StatusCancelled,
	"cancelled":           StatusCancelled,
	"cancel":              StatusCancelled,
	"refunded":            StatusCancelled,
	"error":               StatusError,
	"fail":                StatusError,
	"failed":              StatusError,
	"rejected":            StatusError,
}

// FoldStatus normalizes an upstream status string into the canonical set.
// The input is trimmed and lower-cased before lookup.
func FoldStatus(raw string) CanonicalStatus {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := statusSynonyms[normalized]; ok {
		return canonical
	}
	return StatusUnknown
}

// statusRank orders statuses along the one-way reconciliation path
// pending -> in_progress -> {completed|partial|cancelled|error}.
var statusRank = map[CanonicalStatus]int{
	StatusPending:    1,
	StatusInProgress: 2,
	StatusCompleted:  3,
	StatusPartial:    3,
	StatusCancelled:  3,
	StatusError:      3,
}

// CanAdvance reports whether local state may transition from one status to
// another during reconciliation. Transitions only move forward, a
// same-status transition is a no-op, and StatusUnknown never moves local
// state in either direction.
func CanAdvance(from, to CanonicalStatus) bool {
	if to == StatusUnknown || from == to {
		return false
	}
	fromRank, ok := statusRank[from]
	if !ok {
		// Local state was never reconciled; accept any recognized status.
		return statusRank[to] > 0
	}
	return statusRank[to] > fromRank
}

// Refillable reports whether an order in this status may be refilled.
func (s CanonicalStatus) Refillable() bool {
	return s == StatusCompleted || s == StatusPartial
}

// Terminal reports whether this status ends the order lifecycle.
func (s CanonicalStatus) Terminal() bool {
	return statusRank[s] == 3
}
