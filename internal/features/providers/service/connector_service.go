package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"panel-connector/internal/core/logger"
	"panel-connector/internal/features/notify"
	orderdomain "panel-connector/internal/features/orders/domain"
	orderports "panel-connector/internal/features/orders/ports"
	"panel-connector/internal/features/providers/adapters"
	"panel-connector/internal/features/providers/domain"
	"panel-connector/internal/features/providers/ports"

	"go.uber.org/zap"
)

var (
	// ErrProviderUnusable is returned when the provider is administratively
	// disabled and may not serve any operation.
	ErrProviderUnusable = errors.New("provider is not usable")
	// ErrRefillIneligible is returned when a refill request fails its local
	// or probed preconditions.
	ErrRefillIneligible = errors.New("order is not eligible for refill")
	// ErrCancelNotAllowed is returned when an order's local state forbids
	// cancellation.
	ErrCancelNotAllowed = errors.New("order cannot be cancelled")
	// ErrNotResendable is returned when a refill request is not in a
	// resendable state.
	ErrNotResendable = errors.New("refill request is not resendable")
	// ErrNoUpstreamLinkage is returned when an operation requires a
	// provider-side order id the local record does not carry.
	ErrNoUpstreamLinkage = errors.New("order has no upstream linkage")
)

// batchStatusLimit caps how many order ids go into one batched status call.
const batchStatusLimit = 100

// ConnectorService orchestrates canonical operations against upstream
// providers. Each run is an independent unit of work: the per-provider
// FieldSpec is rebuilt from the stored record at call time, and all
// cross-call state lives in the store.
type ConnectorService struct {
	store     orderports.Store
	transport ports.Transport
	notifier  notify.Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewConnectorService creates a new ConnectorService.
func NewConnectorService(store orderports.Store, transport ports.Transport, notifier notify.Notifier) *ConnectorService {
	return &ConnectorService{
		store:     store,
		transport: transport,
		notifier:  notifier,
		logger:    logger.Get(),
		now:       time.Now,
	}
}

// QueryOrderStatus queries the upstream status of one order and reconciles
// local state. Reconciliation is idempotent and forward-only: a repeated
// upstream status is a no-op, StatusUnknown never moves local state, and
// the local status never travels backward.
func (s *ConnectorService) QueryOrderStatus(ctx context.Context, orderID string) (*domain.CanonicalResult, error) {
	order, provider, err := s.loadOrderAndProvider(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UpstreamOrderID == "" {
		return nil, ErrNoUpstreamLinkage
	}

	result, err := s.callProvider(ctx, provider, domain.OpOrderStatus, domain.OrderStatusArgs{OrderID: order.UpstreamOrderID})
	if err != nil {
		return nil, err
	}

	if domain.CanAdvance(order.Status, result.Status) {
		if err := s.store.UpdateOrderStatus(ctx, order.ID, result.Status); err != nil {
			return nil, fmt.Errorf("failed to persist reconciled status: %w", err)
		}
		s.logger.Info("Order status reconciled",
			zap.String("order_id", order.ID),
			zap.String("from", string(order.Status)),
			zap.String("to", string(result.Status)),
		)
	}

	return result, nil
}

// ReconcileOrderStatuses reconciles many orders of one provider using the
// batched status query, chunked to the provider batching limit. Orders of
// other providers in the input are skipped with a warning. The returned
// map is keyed by local order id.
func (s *ConnectorService) ReconcileOrderStatuses(ctx context.Context, providerID string, orderIDs []string) (map[string]domain.CanonicalResult, error) {
	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	// Upstream ids drive the provider call; map them back to local orders.
	upstreamToLocal := make(map[string]*orderdomain.Order)
	var upstreamIDs []string
	for _, id := range orderIDs {
		order, err := s.store.GetOrder(ctx, id)
		if err != nil {
			if errors.Is(err, orderports.ErrNotFound) {
				s.logger.Warn("Skipping unknown order in batch reconcile", zap.String("order_id", id))
				continue
			}
			return nil, err
		}
		if order.ProviderID != providerID || order.UpstreamOrderID == "" {
			s.logger.Warn("Skipping order without matching linkage in batch reconcile",
				zap.String("order_id", id),
				zap.String("provider_id", order.ProviderID),
			)
			continue
		}
		upstreamToLocal[order.UpstreamOrderID] = order
		upstreamIDs = append(upstreamIDs, order.UpstreamOrderID)
	}

	outcomes := make(map[string]domain.CanonicalResult)

	for start := 0; start < len(upstreamIDs); start += batchStatusLimit {
		end := start + batchStatusLimit
		if end > len(upstreamIDs) {
			end = len(upstreamIDs)
		}
		chunk := upstreamIDs[start:end]

		result, err := s.callProvider(ctx, provider, domain.OpBatchOrderStatus, domain.BatchOrderStatusArgs{OrderIDs: chunk})
		if err != nil {
			return outcomes, err
		}

		for upstreamID, sub := range result.Batch {
			order, ok := upstreamToLocal[upstreamID]
			if !ok {
				continue
			}
			outcomes[order.ID] = sub

			if sub.ErrorMessage != "" {
				s.logger.Warn("Upstream reported per-order error in batch",
					zap.String("order_id", order.ID),
					zap.String("upstream_error", sub.ErrorMessage),
				)
				continue
			}
			if domain.CanAdvance(order.Status, sub.Status) {
				if err := s.store.UpdateOrderStatus(ctx, order.ID, sub.Status); err != nil {
					return outcomes, fmt.Errorf("failed to persist reconciled status: %w", err)
				}
			}
		}
	}

	return outcomes, nil
}

// QueryBalance fetches the remaining balance at a provider.
func (s *ConnectorService) QueryBalance(ctx context.Context, providerID string) (*domain.CanonicalResult, error) {
	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return s.callProvider(ctx, provider, domain.OpBalance, nil)
}

// ListServices fetches the service catalog from a provider.
func (s *ConnectorService) ListServices(ctx context.Context, providerID string) ([]domain.Service, error) {
	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	result, err := s.callProvider(ctx, provider, domain.OpListServices, nil)
	if err != nil {
		return nil, err
	}
	return result.Services, nil
}

// callProvider runs one build -> send -> parse round against a provider.
// The FieldSpec is derived fresh from the stored record so administrative
// edits take effect immediately. The three failure families (transport,
// upstream HTTP, upstream body) are logged separately but all surface as a
// *domain.CallError.
func (s *ConnectorService) callProvider(ctx context.Context, provider *domain.Provider, op domain.Operation, args any) (*domain.CanonicalResult, error) {
	spec := domain.SpecFromConfig(provider.Config)

	desc, err := adapters.BuildRequest(op, spec, *provider, args)
	if err != nil {
		// Contract violation by the caller, not an upstream condition.
		return nil, err
	}

	resp, err := s.transport.Send(ctx, desc, ports.CallOptions{
		Timeout:   spec.Timeout,
		RateKey:   provider.ID,
		PerMinute: spec.RequestsPerMinute,
	})
	if err != nil {
		s.logCallFailure(provider, op, err)
		return nil, err
	}

	if !resp.OK() {
		callErr := &domain.CallError{
			Kind:       domain.FailHTTP,
			HTTPStatus: resp.HTTPStatus,
			Message:    adapters.ExtractUpstreamMessage(spec, resp.Body),
		}
		s.logCallFailure(provider, op, callErr)
		return nil, callErr
	}

	result, err := adapters.ParseResponse(op, spec, resp.Body)
	if err != nil {
		s.logCallFailure(provider, op, err)
		return nil, err
	}

	return &result, nil
}

// logCallFailure logs the three failure conditions distinctly so operators
// can tell a struggling upstream from a misconfigured one.
func (s *ConnectorService) logCallFailure(provider *domain.Provider, op domain.Operation, err error) {
	fields := []zap.Field{
		zap.String("provider_id", provider.ID),
		zap.String("provider_name", provider.Name),
		zap.String("operation", string(op)),
		zap.Error(err),
	}

	callErr, ok := domain.AsCallError(err)
	if !ok {
		s.logger.Error("Provider call failed", fields...)
		return
	}

	switch callErr.Kind {
	case domain.FailTimeout:
		s.logger.Error("Provider call timed out", fields...)
	case domain.FailNetwork:
		s.logger.Error("Provider network failure", fields...)
	case domain.FailHTTP:
		s.logger.Error("Provider returned HTTP error",
			append(fields, zap.Int("http_status", callErr.HTTPStatus))...)
	case domain.FailDecode:
		s.logger.Error("Provider response not decodable",
			append(fields, zap.String("body_snippet", callErr.Snippet))...)
	case domain.FailUpstream:
		s.logger.Error("Provider reported explicit error",
			append(fields, zap.String("upstream_message", callErr.Message))...)
	default:
		s.logger.Error("Provider call failed", fields...)
	}
}

func (s *ConnectorService) loadProvider(ctx context.Context, providerID string) (*domain.Provider, error) {
	provider, err := s.store.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !provider.Usable() {
		return nil, fmt.Errorf("%w: provider %s is %s", ErrProviderUnusable, provider.ID, provider.State)
	}
	return provider, nil
}

func (s *ConnectorService) loadOrderAndProvider(ctx context.Context, orderID string) (*orderdomain.Order, *domain.Provider, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	provider, err := s.loadProvider(ctx, order.ProviderID)
	if err != nil {
		return nil, nil, err
	}
	return order, provider, nil
}
