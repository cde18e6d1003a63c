package service

import (
	"context"
	"fmt"
	"time"

	orderdomain "panel-connector/internal/features/orders/domain"
	"panel-connector/internal/features/providers/domain"

	"go.uber.org/zap"
)

// RefillOutcome bundles the persisted refill request with the provider's
// parsed answer, when one was received.
type RefillOutcome struct {
	// Request is the local refill request record after the attempt.
	Request *orderdomain.RefillRequest `json:"request"`
	// Result is the parsed provider response; nil when the call failed.
	Result *domain.CanonicalResult `json:"result,omitempty"`
}

// ProbeRefillEligibility decides whether a refill may proceed. Local
// preconditions are checked first with zero network calls; only then is
// the upstream order status probed. The probe fails open: an unreachable
// or undecodable provider must not silently block a legitimate refill, so
// any transport or parse failure counts as eligible and the real error
// surfaces at submission. A provider-reported falsy refill-availability
// field is ineligible; an absent field is eligible (permissive default).
func (s *ConnectorService) ProbeRefillEligibility(ctx context.Context, orderID string) (domain.RefillEligibility, error) {
	order, provider, err := s.loadOrderAndProvider(ctx, orderID)
	if err != nil {
		return domain.RefillEligibility{}, err
	}
	return s.probeEligibility(ctx, provider, order), nil
}

// SubmitRefill runs the full refill workflow: precondition checks,
// eligibility probe, local record creation, and provider submission. A
// failed submission leaves the record failed for administrative resend;
// nothing here retries automatically.
func (s *ConnectorService) SubmitRefill(ctx context.Context, orderID string) (*RefillOutcome, error) {
	order, provider, err := s.loadOrderAndProvider(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UpstreamOrderID == "" {
		return nil, ErrNoUpstreamLinkage
	}

	eligibility := s.probeEligibility(ctx, provider, order)
	if !eligibility.Eligible {
		return nil, fmt.Errorf("%w: %s", ErrRefillIneligible, eligibility.Reason)
	}

	request, err := s.store.CreateRefillRequest(ctx, order.ID, "refill requested")
	if err != nil {
		return nil, fmt.Errorf("failed to create refill request: %w", err)
	}

	return s.submitToProvider(ctx, provider, order, request)
}

// ResendRefill re-runs only the provider submission for a failed refill
// request against the current provider configuration. The provider may
// have been edited since the original failure; the fresh spec derivation
// in callProvider picks that up.
func (s *ConnectorService) ResendRefill(ctx context.Context, refillID string) (*RefillOutcome, error) {
	request, err := s.store.GetRefillRequest(ctx, refillID)
	if err != nil {
		return nil, err
	}
	if !request.Resendable() {
		return nil, fmt.Errorf("%w: request %s is %s", ErrNotResendable, request.ID, request.Status)
	}

	order, provider, err := s.loadOrderAndProvider(ctx, request.OrderID)
	if err != nil {
		return nil, err
	}

	return s.submitToProvider(ctx, provider, order, request)
}

// SubmitCancel runs the cancel workflow. Unlike refill there is no
// eligibility probe: the gate is purely the local order state, then a
// single provider call with the same accept/fail bifurcation.
func (s *ConnectorService) SubmitCancel(ctx context.Context, orderID string) (*domain.CanonicalResult, error) {
	order, provider, err := s.loadOrderAndProvider(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UpstreamOrderID == "" {
		return nil, ErrNoUpstreamLinkage
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order is already %s", ErrCancelNotAllowed, order.Status)
	}

	result, err := s.callProvider(ctx, provider, domain.OpCancel, domain.CancelArgs{OrderID: order.UpstreamOrderID})
	if err != nil {
		s.notifier.NotifyAdmin("cancel_failed", map[string]any{
			"order_id":    order.ID,
			"provider_id": provider.ID,
			"diagnostic":  err.Error(),
		})
		return nil, err
	}

	if result.Status == domain.StatusCancelled && domain.CanAdvance(order.Status, domain.StatusCancelled) {
		if err := s.store.UpdateOrderStatus(ctx, order.ID, domain.StatusCancelled); err != nil {
			return nil, fmt.Errorf("failed to persist cancelled status: %w", err)
		}
	}

	return result, nil
}

// QueryRefillStatus queries the upstream state of a previously submitted
// refill and reconciles the local request record.
func (s *ConnectorService) QueryRefillStatus(ctx context.Context, refillID string) (*domain.CanonicalResult, error) {
	request, err := s.store.GetRefillRequest(ctx, refillID)
	if err != nil {
		return nil, err
	}
	if request.UpstreamRefillID == "" {
		return nil, ErrNoUpstreamLinkage
	}

	_, provider, err := s.loadOrderAndProvider(ctx, request.OrderID)
	if err != nil {
		return nil, err
	}

	result, err := s.callProvider(ctx, provider, domain.OpRefillStatus, domain.RefillStatusArgs{RefillID: request.UpstreamRefillID})
	if err != nil {
		return nil, err
	}

	switch result.Status {
	case domain.StatusCompleted:
		if request.Status != orderdomain.RefillCompleted {
			if err := s.store.UpdateRefillRequest(ctx, request.ID, orderdomain.RefillCompleted, ""); err != nil {
				return nil, err
			}
		}
	case domain.StatusError:
		if request.Status != orderdomain.RefillError {
			if err := s.store.UpdateRefillRequest(ctx, request.ID, orderdomain.RefillError, "provider reported refill error"); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// probeEligibility applies the local business rules, then probes the live
// upstream order status when the order has provider linkage.
func (s *ConnectorService) probeEligibility(ctx context.Context, provider *domain.Provider, order *orderdomain.Order) domain.RefillEligibility {
	if local := s.localEligibility(order); !local.Eligible {
		return local
	}
	if order.UpstreamOrderID == "" {
		return domain.Eligible()
	}

	result, err := s.callProvider(ctx, provider, domain.OpOrderStatus, domain.OrderStatusArgs{OrderID: order.UpstreamOrderID})
	if err != nil {
		// Fail open: a misconfigured or unreachable provider must not
		// block refills; the submission step will surface a real error.
		s.logger.Warn("Eligibility probe failed, treating order as eligible",
			zap.String("order_id", order.ID),
			zap.String("provider_id", provider.ID),
			zap.Error(err),
		)
		return domain.Eligible()
	}

	if !result.Status.Refillable() {
		return domain.Ineligible(fmt.Sprintf("provider reports order status %q, refill requires completed or partial", result.Status))
	}
	if result.RefillAvailable != nil && !*result.RefillAvailable {
		return domain.Ineligible("provider reports refill is not available for this order")
	}

	return domain.Eligible()
}

// localEligibility checks the refill preconditions that need no network
// call: service support, canonical status, and the refill window measured
// from the order's last local update.
func (s *ConnectorService) localEligibility(order *orderdomain.Order) domain.RefillEligibility {
	if !order.RefillSupported {
		return domain.Ineligible("service does not support refill")
	}
	if !order.Status.Refillable() {
		return domain.Ineligible(fmt.Sprintf("order status is %q, refill requires completed or partial", order.Status))
	}
	if order.RefillDays > 0 {
		window := time.Duration(order.RefillDays) * 24 * time.Hour
		if s.now().Sub(order.LastUpdatedAt) > window {
			return domain.Ineligible(fmt.Sprintf("refill window of %d days has elapsed", order.RefillDays))
		}
	}
	return domain.Eligible()
}

// submitToProvider performs the provider refill call and records the
// outcome on the local request.
func (s *ConnectorService) submitToProvider(ctx context.Context, provider *domain.Provider, order *orderdomain.Order, request *orderdomain.RefillRequest) (*RefillOutcome, error) {
	result, err := s.callProvider(ctx, provider, domain.OpRefill, domain.RefillArgs{OrderID: order.UpstreamOrderID})
	if err != nil {
		status := orderdomain.RefillFailed
		if callErr, ok := domain.AsCallError(err); ok && callErr.Kind == domain.FailUpstream {
			status = orderdomain.RefillError
		}
		if updateErr := s.store.UpdateRefillRequest(ctx, request.ID, status, err.Error()); updateErr != nil {
			s.logger.Error("Failed to record refill failure",
				zap.String("refill_id", request.ID),
				zap.Error(updateErr),
			)
		}
		s.notifier.NotifyAdmin("refill_failed", map[string]any{
			"refill_id":   request.ID,
			"order_id":    order.ID,
			"provider_id": provider.ID,
			"diagnostic":  err.Error(),
		})

		updated, loadErr := s.store.GetRefillRequest(ctx, request.ID)
		if loadErr == nil {
			request = updated
		}
		return &RefillOutcome{Request: request}, err
	}

	if result.RefillID != "" {
		if err := s.store.LinkRefill(ctx, request.ID, result.RefillID); err != nil {
			s.logger.Error("Failed to link upstream refill id",
				zap.String("refill_id", request.ID),
				zap.Error(err),
			)
		}
	}
	if request.Status != orderdomain.RefillPending {
		if err := s.store.UpdateRefillRequest(ctx, request.ID, orderdomain.RefillPending, "resent to provider"); err != nil {
			s.logger.Error("Failed to mark refill request pending",
				zap.String("refill_id", request.ID),
				zap.Error(err),
			)
		}
	}

	s.notifier.NotifyUser("refill_submitted", map[string]any{
		"order_id":  order.ID,
		"refill_id": request.ID,
	})

	updated, loadErr := s.store.GetRefillRequest(ctx, request.ID)
	if loadErr == nil {
		request = updated
	}
	return &RefillOutcome{Request: request, Result: result}, nil
}
