// Package testhelpers provides in-memory fakes and factories for service
// tests. The memory store reproduces the unique payment_reference constraint
// so race and idempotency behavior can be exercised without a database.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/collaborators"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/persistence/postgres"
)

// MemoryStore is an in-memory application.Store. Function fields override
// individual operations; unset fields fall through to the map-backed default.
type MemoryStore struct {
	mu            sync.Mutex
	intents       map[string]*domain.PendingIntent
	orders        map[string]*domain.Order
	payments      map[uuid.UUID]*domain.Payment
	refunds       map[string]*domain.Refund
	reviews       []*application.ReviewItem

	CreateOrderFn   func(ctx context.Context, order *domain.Order) error
	CreateIntentFn  func(ctx context.Context, intent *domain.PendingIntent) error
	FindIntentFn    func(ctx context.Context, reference string) (*domain.PendingIntent, error)
	UpdateRefundFn  func(ctx context.Context, refund *domain.Refund) error
	WithTxFn        func(ctx context.Context, fn func(application.Store) error) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		intents:  make(map[string]*domain.PendingIntent),
		orders:   make(map[string]*domain.Order),
		payments: make(map[uuid.UUID]*domain.Payment),
		refunds:  make(map[string]*domain.Refund),
	}
}

func (m *MemoryStore) Intents() application.IntentRepository     { return &memIntents{m} }
func (m *MemoryStore) Orders() application.OrderRepository       { return &memOrders{m} }
func (m *MemoryStore) Payments() application.PaymentRepository   { return &memPayments{m} }
func (m *MemoryStore) Refunds() application.RefundRepository     { return &memRefunds{m} }
func (m *MemoryStore) ReviewQueue() application.ReviewQueueRepository { return &memReviews{m} }

func (m *MemoryStore) WithTx(ctx context.Context, fn func(application.Store) error) error {
	if m.WithTxFn != nil {
		return m.WithTxFn(ctx, fn)
	}
	return fn(m)
}

// SeedIntent stores an intent directly.
func (m *MemoryStore) SeedIntent(intent *domain.PendingIntent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[intent.PaymentReference] = intent
}

// SeedOrder stores an order directly.
func (m *MemoryStore) SeedOrder(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.PaymentReference] = order
}

// SeedPayment stores a payment directly.
func (m *MemoryStore) SeedPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
}

// SeedRefund stores a refund directly.
func (m *MemoryStore) SeedRefund(refund *domain.Refund) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds[refund.Reference] = refund
}

// Reviews returns a copy of everything queued for manual review.
func (m *MemoryStore) Reviews() []*application.ReviewItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*application.ReviewItem, len(m.reviews))
	copy(out, m.reviews)
	return out
}

// OrderCount reports how many orders were created.
func (m *MemoryStore) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type memIntents struct{ s *MemoryStore }

func (r *memIntents) Create(ctx context.Context, intent *domain.PendingIntent) error {
	if r.s.CreateIntentFn != nil {
		return r.s.CreateIntentFn(ctx, intent)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.intents[intent.PaymentReference]; exists {
		return fmt.Errorf("intent %s: %w", intent.PaymentReference, postgres.ErrDuplicateReference)
	}
	r.s.intents[intent.PaymentReference] = cloneIntent(intent)
	return nil
}

func (r *memIntents) FindByReference(ctx context.Context, reference string) (*domain.PendingIntent, error) {
	if r.s.FindIntentFn != nil {
		return r.s.FindIntentFn(ctx, reference)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	intent, ok := r.s.intents[reference]
	if !ok {
		return nil, postgres.ErrIntentNotFound
	}
	return cloneIntent(intent), nil
}

func (r *memIntents) Update(ctx context.Context, intent *domain.PendingIntent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.intents[intent.PaymentReference]; !ok {
		return postgres.ErrIntentNotFound
	}
	r.s.intents[intent.PaymentReference] = cloneIntent(intent)
	return nil
}

func (r *memIntents) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var swept int64
	for _, intent := range r.s.intents {
		if !intent.IsTerminal() && intent.Expired(now) {
			intent.Status = domain.IntentExpired
			swept++
		}
	}
	return swept, nil
}

type memOrders struct{ s *MemoryStore }

func (r *memOrders) Create(ctx context.Context, order *domain.Order) error {
	if r.s.CreateOrderFn != nil {
		return r.s.CreateOrderFn(ctx, order)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.orders[order.PaymentReference]; exists {
		return fmt.Errorf("order for %s: %w", order.PaymentReference, postgres.ErrDuplicateReference)
	}
	r.s.orders[order.PaymentReference] = order
	return nil
}

func (r *memOrders) FindByReference(ctx context.Context, reference string) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order, ok := r.s.orders[reference]
	if !ok {
		return nil, postgres.ErrOrderNotFound
	}
	return order, nil
}

func (r *memOrders) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, order := range r.s.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, postgres.ErrOrderNotFound
}

func (r *memOrders) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.OrderPaymentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, order := range r.s.orders {
		if order.ID == id {
			order.PaymentStatus = status
			return nil
		}
	}
	return postgres.ErrOrderNotFound
}

type memPayments struct{ s *MemoryStore }

func (r *memPayments) Create(ctx context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.Reference == payment.Reference {
			return fmt.Errorf("payment for %s: %w", payment.Reference, postgres.ErrDuplicateReference)
		}
	}
	r.s.payments[payment.ID] = payment
	return nil
}

func (r *memPayments) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	payment, ok := r.s.payments[id]
	if !ok {
		return nil, postgres.ErrPaymentNotFound
	}
	return payment, nil
}

func (r *memPayments) FindByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.Reference == reference {
			return p, nil
		}
	}
	return nil, postgres.ErrPaymentNotFound
}

func (r *memPayments) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.TransactionID == transactionID {
			return p, nil
		}
	}
	return nil, postgres.ErrPaymentNotFound
}

func (r *memPayments) Update(ctx context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[payment.ID]; !ok {
		return postgres.ErrPaymentNotFound
	}
	r.s.payments[payment.ID] = payment
	return nil
}

type memRefunds struct{ s *MemoryStore }

func (r *memRefunds) Create(ctx context.Context, refund *domain.Refund) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.refunds[refund.Reference] = refund
	return nil
}

func (r *memRefunds) FindByReference(ctx context.Context, reference string) (*domain.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	refund, ok := r.s.refunds[reference]
	if !ok {
		return nil, postgres.ErrRefundNotFound
	}
	return refund, nil
}

func (r *memRefunds) FindByProviderRefundID(ctx context.Context, providerRefundID string) (*domain.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, refund := range r.s.refunds {
		if refund.TransactionID != nil && *refund.TransactionID == providerRefundID {
			return refund, nil
		}
	}
	return nil, postgres.ErrRefundNotFound
}

func (r *memRefunds) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]*domain.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Refund
	for _, refund := range r.s.refunds {
		if refund.PaymentID == paymentID {
			out = append(out, refund)
		}
	}
	return out, nil
}

func (r *memRefunds) FindProcessingByAmountSince(ctx context.Context, amount int64, since time.Time) ([]*domain.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Refund
	for _, refund := range r.s.refunds {
		if refund.Status == domain.RefundProcessing && refund.Amount == amount && refund.CreatedAt.After(since) {
			out = append(out, refund)
		}
	}
	return out, nil
}

func (r *memRefunds) SumReservedByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, refund := range r.s.refunds {
		if refund.PaymentID != paymentID {
			continue
		}
		switch refund.Status {
		case domain.RefundPending, domain.RefundProcessing, domain.RefundSuccessful:
			total += refund.Amount
		}
	}
	return total, nil
}

func (r *memRefunds) SumSuccessfulByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, refund := range r.s.refunds {
		if refund.PaymentID == paymentID && refund.Status == domain.RefundSuccessful {
			total += refund.Amount
		}
	}
	return total, nil
}

func (r *memRefunds) Update(ctx context.Context, refund *domain.Refund) error {
	if r.s.UpdateRefundFn != nil {
		return r.s.UpdateRefundFn(ctx, refund)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.refunds[refund.Reference]; !ok {
		return postgres.ErrRefundNotFound
	}
	r.s.refunds[refund.Reference] = refund
	return nil
}

type memReviews struct{ s *MemoryStore }

func (r *memReviews) Enqueue(ctx context.Context, item *application.ReviewItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	r.s.reviews = append(r.s.reviews, item)
	return nil
}

func (r *memReviews) ListOpen(ctx context.Context, limit, offset int) ([]*application.ReviewItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var open []*application.ReviewItem
	for _, item := range r.s.reviews {
		if !item.Resolved {
			open = append(open, item)
		}
	}
	if offset >= len(open) {
		return nil, nil
	}
	open = open[offset:]
	if limit < len(open) {
		open = open[:limit]
	}
	return open, nil
}

func cloneIntent(intent *domain.PendingIntent) *domain.PendingIntent {
	c := *intent
	return &c
}

// MockGatewayClient is a function-field fake for the provider client.
type MockGatewayClient struct {
	ChargeFn            func(ctx context.Context, req application.CardCharge) (*application.ChargeResult, error)
	SubmitChallengeFn   func(ctx context.Context, req application.CardCharge, answer application.ChallengeAnswer) (*application.ChargeResult, error)
	ValidateOTPFn       func(ctx context.Context, otp, challengeToken string) (*application.ChargeResult, error)
	VerifyTransactionFn func(ctx context.Context, reference string) (*application.VerificationResult, error)
	RefundFn            func(ctx context.Context, transactionID string, amount int64, reason string) (*application.RefundCallResult, error)
	GetRefundStatusFn   func(ctx context.Context, providerRefundID string) (*application.RefundCallResult, error)
}

func (m *MockGatewayClient) Charge(ctx context.Context, req application.CardCharge) (*application.ChargeResult, error) {
	return m.ChargeFn(ctx, req)
}

func (m *MockGatewayClient) SubmitChallenge(ctx context.Context, req application.CardCharge, answer application.ChallengeAnswer) (*application.ChargeResult, error) {
	return m.SubmitChallengeFn(ctx, req, answer)
}

func (m *MockGatewayClient) ValidateOTP(ctx context.Context, otp, challengeToken string) (*application.ChargeResult, error) {
	return m.ValidateOTPFn(ctx, otp, challengeToken)
}

func (m *MockGatewayClient) VerifyTransaction(ctx context.Context, reference string) (*application.VerificationResult, error) {
	return m.VerifyTransactionFn(ctx, reference)
}

func (m *MockGatewayClient) Refund(ctx context.Context, transactionID string, amount int64, reason string) (*application.RefundCallResult, error) {
	return m.RefundFn(ctx, transactionID, amount, reason)
}

func (m *MockGatewayClient) GetRefundStatus(ctx context.Context, providerRefundID string) (*application.RefundCallResult, error) {
	return m.GetRefundStatusFn(ctx, providerRefundID)
}

// MockIdentityClient resolves users from a fixed email map.
type MockIdentityClient struct {
	UsersByEmail map[string]*application.User
	FindByIDFn   func(ctx context.Context, id string) (*application.User, error)
}

func (m *MockIdentityClient) FindUserByID(ctx context.Context, id string) (*application.User, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	for _, u := range m.UsersByEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, collaborators.ErrNotFound)
}

func (m *MockIdentityClient) FindUserByEmail(ctx context.Context, email string) (*application.User, error) {
	if u, ok := m.UsersByEmail[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, collaborators.ErrNotFound)
}

// MockCatalogClient serves products from a fixed map.
type MockCatalogClient struct {
	Products map[string]*application.Product
}

func (m *MockCatalogClient) GetProduct(ctx context.Context, id string) (*application.Product, error) {
	if p, ok := m.Products[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("product %s: %w", id, collaborators.ErrNotFound)
}

// MockCartClient records clear calls.
type MockCartClient struct {
	mu      sync.Mutex
	Cleared []string
	ClearFn func(ctx context.Context, ownerID string) error
}

func (m *MockCartClient) Clear(ctx context.Context, ownerID string) error {
	if m.ClearFn != nil {
		return m.ClearFn(ctx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cleared = append(m.Cleared, ownerID)
	return nil
}

// MockSettings returns a fixed delivery charge.
type MockSettings struct {
	Charge int64
}

func (m *MockSettings) DeliveryCharge(ctx context.Context) (int64, error) { return m.Charge, nil }

func (m *MockSettings) SetDeliveryCharge(ctx context.Context, amount int64) error {
	m.Charge = amount
	return nil
}
