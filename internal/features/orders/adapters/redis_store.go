package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"panel-connector/internal/core/cache"
	"panel-connector/internal/features/orders/domain"
	"panel-connector/internal/features/orders/ports"
	providerdomain "panel-connector/internal/features/providers/domain"
)

const (
	providerKeyPrefix = "provider:"
	orderKeyPrefix    = "order:"
	refillKeyPrefix   = "refill:"
	refillSeqKey      = "refill:seq"
)

// RedisStore implements ports.Store on top of the cache adaptation,
// persisting records as JSON documents.
type RedisStore struct {
	cache cache.Cache
	now   func() time.Time
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(c cache.Cache) *RedisStore {
	return &RedisStore{
		cache: c,
		now:   time.Now,
	}
}

// GetProvider loads a provider credential record by id.
func (s *RedisStore) GetProvider(ctx context.Context, id string) (*providerdomain.Provider, error) {
	var provider providerdomain.Provider
	if err := s.getJSON(ctx, providerKeyPrefix+id, &provider); err != nil {
		return nil, err
	}
	return &provider, nil
}

// SaveProvider persists a provider credential record.
func (s *RedisStore) SaveProvider(ctx context.Context, provider *providerdomain.Provider) error {
	return s.setJSON(ctx, providerKeyPrefix+provider.ID, provider)
}

// GetOrder loads a local order record by id.
func (s *RedisStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := s.getJSON(ctx, orderKeyPrefix+id, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SaveOrder persists a local order record.
func (s *RedisStore) SaveOrder(ctx context.Context, order *domain.Order) error {
	return s.setJSON(ctx, orderKeyPrefix+order.ID, order)
}

// UpdateOrderStatus transitions the local order status and bumps the
// last-updated timestamp.
func (s *RedisStore) UpdateOrderStatus(ctx context.Context, id string, status providerdomain.CanonicalStatus) error {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	order.Status = status
	order.LastUpdatedAt = s.now()

	return s.SaveOrder(ctx, order)
}

// CreateRefillRequest creates a pending refill request for an order.
func (s *RedisStore) CreateRefillRequest(ctx context.Context, orderID, reason string) (*domain.RefillRequest, error) {
	seq, err := s.cache.Incr(ctx, refillSeqKey)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate refill request id: %w", err)
	}

	now := s.now()
	request := &domain.RefillRequest{
		ID:        fmt.Sprintf("%d", seq),
		OrderID:   orderID,
		Status:    domain.RefillPending,
		Notes:     reason,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.setJSON(ctx, refillKeyPrefix+request.ID, request); err != nil {
		return nil, err
	}
	return request, nil
}

// GetRefillRequest loads a refill request by id.
func (s *RedisStore) GetRefillRequest(ctx context.Context, id string) (*domain.RefillRequest, error) {
	var request domain.RefillRequest
	if err := s.getJSON(ctx, refillKeyPrefix+id, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

// UpdateRefillRequest transitions a refill request and appends notes.
func (s *RedisStore) UpdateRefillRequest(ctx context.Context, id string, status domain.RefillRequestStatus, notes string) error {
	request, err := s.GetRefillRequest(ctx, id)
	if err != nil {
		return err
	}

	request.Status = status
	if notes != "" {
		if request.Notes != "" {
			request.Notes = request.Notes + " | " + notes
		} else {
			request.Notes = notes
		}
	}
	request.UpdatedAt = s.now()

	return s.setJSON(ctx, refillKeyPrefix+id, request)
}

// LinkRefill records the provider-side refill id on a local request.
func (s *RedisStore) LinkRefill(ctx context.Context, id string, upstreamRefillID string) error {
	request, err := s.GetRefillRequest(ctx, id)
	if err != nil {
		return err
	}

	request.UpstreamRefillID = upstreamRefillID
	request.UpdatedAt = s.now()

	return s.setJSON(ctx, refillKeyPrefix+id, request)
}

func (s *RedisStore) getJSON(ctx context.Context, key string, target any) error {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if strings.HasPrefix(err.Error(), "key not found") {
			return ports.ErrNotFound
		}
		return fmt.Errorf("failed to load %s: %w", key, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.cache.Set(ctx, key, data, 0); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
