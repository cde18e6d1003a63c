package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	orderdomain "panel-connector/internal/features/orders/domain"
	orderports "panel-connector/internal/features/orders/ports"
	"panel-connector/internal/features/providers/domain"
	"panel-connector/internal/features/providers/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory ports.Store for orchestrator tests.
type fakeStore struct {
	mu            sync.Mutex
	providers     map[string]*domain.Provider
	orders        map[string]*orderdomain.Order
	refills       map[string]*orderdomain.RefillRequest
	seq           int
	statusUpdates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		providers: make(map[string]*domain.Provider),
		orders:    make(map[string]*orderdomain.Order),
		refills:   make(map[string]*orderdomain.RefillRequest),
	}
}

func (f *fakeStore) GetProvider(_ context.Context, id string) (*domain.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	provider, ok := f.providers[id]
	if !ok {
		return nil, orderports.ErrNotFound
	}
	copied := *provider
	return &copied, nil
}

func (f *fakeStore) GetOrder(_ context.Context, id string) (*orderdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, orderports.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, id string, status domain.CanonicalStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return orderports.ErrNotFound
	}
	order.Status = status
	order.LastUpdatedAt = time.Now()
	f.statusUpdates++
	return nil
}

func (f *fakeStore) CreateRefillRequest(_ context.Context, orderID, reason string) (*orderdomain.RefillRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	request := &orderdomain.RefillRequest{
		ID:        fmt.Sprintf("%d", f.seq),
		OrderID:   orderID,
		Status:    orderdomain.RefillPending,
		Notes:     reason,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.refills[request.ID] = request
	return request, nil
}

func (f *fakeStore) GetRefillRequest(_ context.Context, id string) (*orderdomain.RefillRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.refills[id]
	if !ok {
		return nil, orderports.ErrNotFound
	}
	copied := *request
	return &copied, nil
}

func (f *fakeStore) UpdateRefillRequest(_ context.Context, id string, status orderdomain.RefillRequestStatus, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.refills[id]
	if !ok {
		return orderports.ErrNotFound
	}
	request.Status = status
	if notes != "" {
		request.Notes = request.Notes + " | " + notes
	}
	request.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) LinkRefill(_ context.Context, id string, upstreamRefillID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.refills[id]
	if !ok {
		return orderports.ErrNotFound
	}
	request.UpstreamRefillID = upstreamRefillID
	return nil
}

// scripted is one canned transport exchange.
type scripted struct {
	resp *ports.Response
	err  error
}

// fakeTransport replays scripted responses and records what was sent.
type fakeTransport struct {
	mu      sync.Mutex
	script  []scripted
	calls   int
	sent    []domain.RequestDescriptor
	options []ports.CallOptions
}

func (f *fakeTransport) Send(_ context.Context, desc domain.RequestDescriptor, opts ports.CallOptions) (*ports.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, desc)
	f.options = append(f.options, opts)
	f.calls++
	if len(f.script) == 0 {
		return nil, &domain.CallError{Kind: domain.FailNetwork, Message: "no scripted response"}
	}
	next := f.script[0]
	f.script = f.script[1:]
	return next.resp, next.err
}

func jsonResponse(status int, body string) *ports.Response {
	return &ports.Response{
		HTTPStatus: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(body),
	}
}

// fakeNotifier records fire-and-forget notifications.
type fakeNotifier struct {
	mu         sync.Mutex
	adminKinds []string
	userKinds  []string
}

func (f *fakeNotifier) NotifyAdmin(kind string, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adminKinds = append(f.adminKinds, kind)
}

func (f *fakeNotifier) NotifyUser(kind string, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userKinds = append(f.userKinds, kind)
}

type fixture struct {
	store     *fakeStore
	transport *fakeTransport
	notifier  *fakeNotifier
	service   *ConnectorService
}

func newFixture() *fixture {
	store := newFakeStore()
	transport := &fakeTransport{}
	notifier := &fakeNotifier{}

	store.providers["prov-1"] = &domain.Provider{
		ID:         "prov-1",
		Name:       "Upstream One",
		APIURL:     "https://upstream.example/api/v2",
		APIKey:     "sekrit",
		HTTPMethod: "POST",
		State:      domain.ProviderStateActive,
	}

	return &fixture{
		store:     store,
		transport: transport,
		notifier:  notifier,
		service:   NewConnectorService(store, transport, notifier),
	}
}

func (fx *fixture) addOrder(order *orderdomain.Order) {
	fx.store.orders[order.ID] = order
}

func completedOrder() *orderdomain.Order {
	now := time.Now()
	return &orderdomain.Order{
		ID:              "ord-1",
		ProviderID:      "prov-1",
		UpstreamOrderID: "98765",
		ServiceID:       42,
		Link:            "https://x.example/p",
		Quantity:        1000,
		Status:          domain.StatusCompleted,
		RefillSupported: true,
		RefillDays:      30,
		CreatedAt:       now.Add(-72 * time.Hour),
		LastUpdatedAt:   now.Add(-24 * time.Hour),
	}
}

// TestQueryOrderStatus_Reconciles verifies the forward transition is
// persisted once.
func TestQueryOrderStatus_Reconciles(t *testing.T) {
	fx := newFixture()
	order := completedOrder()
	order.Status = domain.StatusPending
	fx.addOrder(order)

	fx.transport.script = []scripted{{resp: jsonResponse(200, `{"status": "In progress"}`)}}

	result, err := fx.service.QueryOrderStatus(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, result.Status)
	assert.Equal(t, 1, fx.store.statusUpdates)
	assert.Equal(t, domain.StatusInProgress, fx.store.orders["ord-1"].Status)
}

// TestQueryOrderStatus_Idempotent verifies applying the same upstream state
// twice changes local state only once.
func TestQueryOrderStatus_Idempotent(t *testing.T) {
	fx := newFixture()
	order := completedOrder()
	order.Status = domain.StatusPending
	fx.addOrder(order)

	fx.transport.script = []scripted{
		{resp: jsonResponse(200, `{"status": "Completed"}`)},
		{resp: jsonResponse(200, `{"status": "Completed"}`)},
	}

	_, err := fx.service.QueryOrderStatus(context.Background(), "ord-1")
	require.NoError(t, err)
	_, err = fx.service.QueryOrderStatus(context.Background(), "ord-1")
	require.NoError(t, err)

	assert.Equal(t, 1, fx.store.statusUpdates)
	assert.Equal(t, domain.StatusCompleted, fx.store.orders["ord-1"].Status)
}

// TestQueryOrderStatus_NeverBackward verifies a stale upstream answer does
// not regress local state.
func TestQueryOrderStatus_NeverBackward(t *testing.T) {
	fx := newFixture()
	fx.addOrder(completedOrder())

	fx.transport.script = []scripted{{resp: jsonResponse(200, `{"status": "Pending"}`)}}

	result, err := fx.service.QueryOrderStatus(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, result.Status)
	assert.Equal(t, 0, fx.store.statusUpdates)
	assert.Equal(t, domain.StatusCompleted, fx.store.orders["ord-1"].Status)
}

// TestQueryOrderStatus_UnknownDoesNotMove verifies an unrecognized upstream
// status leaves local state untouched.
func TestQueryOrderStatus_UnknownDoesNotMove(t *testing.T) {
	fx := newFixture()
	order := completedOrder()
	order.Status = domain.StatusPending
	fx.addOrder(order)

	fx.transport.script = []scripted{{resp: jsonResponse(200, `{"status": "weird_status"}`)}}

	result, err := fx.service.QueryOrderStatus(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnknown, result.Status)
	assert.Equal(t, 0, fx.store.statusUpdates)
}

// TestQueryOrderStatus_TimeoutFromSpec verifies the per-provider timeout
// and rate settings reach the transport.
func TestQueryOrderStatus_TimeoutFromSpec(t *testing.T) {
	fx := newFixture()
	fx.store.providers["prov-1"].Config = domain.ProviderConfig{
		TimeoutSeconds:    5,
		RequestsPerMinute: 120,
	}
	fx.addOrder(completedOrder())

	fx.transport.script = []scripted{{resp: jsonResponse(200, `{"status": "Completed"}`)}}

	_, err := fx.service.QueryOrderStatus(context.Background(), "ord-1")
	require.NoError(t, err)

	require.Len(t, fx.transport.options, 1)
	assert.Equal(t, 5*time.Second, fx.transport.options[0].Timeout)
	assert.Equal(t, 120, fx.transport.options[0].PerMinute)
	assert.Equal(t, "prov-1", fx.transport.options[0].RateKey)
}

// TestQueryOrderStatus_HTTPError verifies non-2xx collapses to a call
// failure carrying the best-effort upstream message.
func TestQueryOrderStatus_HTTPError(t *testing.T) {
	fx := newFixture()
	fx.addOrder(completedOrder())

	fx.transport.script = []scripted{{resp: jsonResponse(503, `{"error": "maintenance"}`)}}

	_, err := fx.service.QueryOrderStatus(context.Background(), "ord-1")
	require.Error(t, err)

	callErr, ok := domain.AsCallError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailHTTP, callErr.Kind)
	assert.Equal(t, 503, callErr.HTTPStatus)
	assert.Equal(t, "maintenance", callErr.Message)
	assert.Equal(t, 0, fx.store.statusUpdates)
}

// TestQueryOrderStatus_NoLinkage verifies orders never sent upstream are
// refused without a network call.
func TestQueryOrderStatus_NoLinkage(t *testing.T) {
	fx := newFixture()
	order := completedOrder()
	order.UpstreamOrderID = ""
	fx.addOrder(order)

	_, err := fx.service.QueryOrderStatus(context.Background(), "ord-1")
	assert.ErrorIs(t, err, ErrNoUpstreamLinkage)
	assert.Equal(t, 0, fx.transport.calls)
}

// TestProviderLifecycleGate verifies inactive providers are refused while
// soft-deleted ones still serve in-flight operations.
func TestProviderLifecycleGate(t *testing.T) {
	fx := newFixture()
	fx.addOrder(completedOrder())

	fx.store.providers["prov-1"].State = domain.ProviderStateInactive
	_, err := fx.service.QueryOrderStatus(context.Background(), "ord-1")
	assert.ErrorIs(t, err, ErrProviderUnusable)
	assert.Equal(t, 0, fx.transport.calls)

	fx.store.providers["prov-1"].State = domain.ProviderStateTrash
	fx.transport.script = []scripted{{resp: jsonResponse(200, `{"status": "Completed"}`)}}
	_, err = fx.service.QueryOrderStatus(context.Background(), "ord-1")
	assert.NoError(t, err)
}

// TestReconcileOrderStatuses_Batch verifies batched reconciliation applies
// per-order forward-only transitions.
func TestReconcileOrderStatuses_Batch(t *testing.T) {
	fx := newFixture()

	first := completedOrder()
	first.ID = "ord-1"
	first.UpstreamOrderID = "111"
	first.Status = domain.StatusPending
	fx.addOrder(first)

	second := completedOrder()
	second.ID = "ord-2"
	second.UpstreamOrderID = "222"
	second.Status = domain.StatusCompleted
	fx.addOrder(second)

	fx.transport.script = []scripted{{resp: jsonResponse(200, `{
		"111": {"status": "Completed"},
		"222": {"status": "Pending"}
	}`)}}

	outcomes, err := fx.service.ReconcileOrderStatuses(context.Background(), "prov-1", []string{"ord-1", "ord-2"})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, domain.StatusCompleted, outcomes["ord-1"].Status)
	assert.Equal(t, 1, fx.transport.calls)
	assert.Equal(t, 1, fx.store.statusUpdates)
	assert.Equal(t, domain.StatusCompleted, fx.store.orders["ord-1"].Status)
	// Stale upstream answer left ord-2 alone.
	assert.Equal(t, domain.StatusCompleted, fx.store.orders["ord-2"].Status)
}

// TestQueryBalance verifies balance extraction through the full pipeline.
func TestQueryBalance(t *testing.T) {
	fx := newFixture()
	fx.transport.script = []scripted{{resp: jsonResponse(200, `{"balance": "250.10", "currency": "USD"}`)}}

	result, err := fx.service.QueryBalance(context.Background(), "prov-1")
	require.NoError(t, err)
	assert.Equal(t, "250.10", result.Balance)
	assert.Equal(t, "USD", result.Currency)
}

// TestListServices verifies catalog fetch through the full pipeline.
func TestListServices(t *testing.T) {
	fx := newFixture()
	fx.transport.script = []scripted{{resp: jsonResponse(200, `[{"service": 1, "name": "Followers"}]`)}}

	services, err := fx.service.ListServices(context.Background(), "prov-1")
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "Followers", services[0].Name)
}
