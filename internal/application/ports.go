package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
)

// IntentRepository persists pending intents.
type IntentRepository interface {
	Create(ctx context.Context, intent *domain.PendingIntent) error
	FindByReference(ctx context.Context, reference string) (*domain.PendingIntent, error)
	Update(ctx context.Context, intent *domain.PendingIntent) error
	// SweepExpired marks non-terminal intents whose TTL elapsed before now
	// as expired and returns how many rows changed.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// OrderRepository persists orders with their item and addon lines.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByReference(ctx context.Context, reference string) (*domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status domain.OrderPaymentStatus) error
}

// PaymentRepository persists charge records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	FindByReference(ctx context.Context, reference string) (*domain.Payment, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
}

// RefundRepository persists refunds and answers the aggregate queries the
// refund state machine needs.
type RefundRepository interface {
	Create(ctx context.Context, refund *domain.Refund) error
	FindByReference(ctx context.Context, reference string) (*domain.Refund, error)
	FindByProviderRefundID(ctx context.Context, providerRefundID string) (*domain.Refund, error)
	FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]*domain.Refund, error)
	// FindProcessingByAmountSince is the last-resort webhook match: refunds
	// still processing with this exact amount created after the cutoff.
	FindProcessingByAmountSince(ctx context.Context, amount int64, since time.Time) ([]*domain.Refund, error)
	SumSuccessfulByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error)
	// SumReservedByPayment sums every refund currently holding a claim on the
	// payment: pending, processing and successful. New requests validate
	// against this so overlapping refunds cannot over-commit the balance.
	SumReservedByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error)
	Update(ctx context.Context, refund *domain.Refund) error
}

// ReviewKind classifies rows queued for manual operator follow-up.
type ReviewKind string

const (
	ReviewUnresolvableOwner ReviewKind = "unresolvable_owner"
	ReviewMissingIntent     ReviewKind = "missing_intent"
	ReviewUnmatchedRefund   ReviewKind = "unmatched_refund"
)

// ReviewItem is one entry on the manual reconciliation queue. A confirmed
// payment that cannot be processed automatically lands here instead of being
// dropped.
type ReviewItem struct {
	ID            uuid.UUID
	Kind          ReviewKind
	Reference     string
	TransactionID string
	Amount        int64
	Detail        string
	Payload       []byte
	Resolved      bool
	CreatedAt     time.Time
}

// ReviewQueueRepository persists the manual reconciliation queue.
type ReviewQueueRepository interface {
	Enqueue(ctx context.Context, item *ReviewItem) error
	ListOpen(ctx context.Context, limit, offset int) ([]*ReviewItem, error)
}

// Store aggregates the repositories and provides transactional execution.
// WithTx runs fn against repositories bound to a single transaction that
// commits only if fn returns nil.
type Store interface {
	Intents() IntentRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	Refunds() RefundRepository
	ReviewQueue() ReviewQueueRepository
	WithTx(ctx context.Context, fn func(Store) error) error
}

// User is the identity-service view of an account owner.
type User struct {
	ID    string
	Email string
	Name  string
}

// IdentityClient is the port for the user/identity collaborator service.
type IdentityClient interface {
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
}

// Product is the catalog-service view of a sellable item.
type Product struct {
	ID      string
	Name    string
	Price   int64
	InStock bool
}

// CatalogClient is the port for the product catalog collaborator service.
type CatalogClient interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// CartClient is the port for the cart collaborator service.
type CartClient interface {
	Clear(ctx context.Context, ownerID string) error
}

// SettingsStore exposes the read-mostly global settings with explicit
// invalidation on write.
type SettingsStore interface {
	DeliveryCharge(ctx context.Context) (int64, error)
	SetDeliveryCharge(ctx context.Context, amount int64) error
}
