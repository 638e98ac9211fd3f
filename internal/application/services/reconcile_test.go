package services_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/application/services/testhelpers"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/domain"
	"github.com/alihumdard/suya-kabab-app-sub000/internal/infrastructure/persistence/postgres"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newReconcileFixture() (*testhelpers.MemoryStore, *testhelpers.MockIdentityClient, *testhelpers.MockCartClient, *services.ReconcileService) {
	store := testhelpers.NewMemoryStore()
	identity := &testhelpers.MockIdentityClient{
		UsersByEmail: map[string]*application.User{
			"ada@example.com": {ID: "user-1", Email: "ada@example.com", Name: "Ada"},
		},
	}
	cart := &testhelpers.MockCartClient{}
	svc := services.NewReconcileService(store, identity, cart, discardLogger())
	return store, identity, cart, svc
}

func TestMaterialize_CreatesOrderOnce(t *testing.T) {
	ctx := context.Background()
	store, _, cart, svc := newReconcileFixture()
	store.SeedIntent(testhelpers.DefaultIntent("SKB-REF-1"))

	order, err := svc.Materialize(ctx, "SKB-REF-1", testhelpers.DefaultEvidence("SKB-REF-1"))

	require.NoError(t, err)
	assert.Equal(t, "SKB-REF-1", order.PaymentReference)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, domain.PaymentPaid, order.PaymentStatus)
	assert.False(t, order.RequiresReview)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 1, store.OrderCount())

	payment, err := store.Payments().FindByReference(ctx, "SKB-REF-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStateSuccessful, payment.Status)
	assert.Equal(t, int64(6200), payment.Amount)
	assert.Equal(t, "tx-100", payment.TransactionID)

	intent, err := store.Intents().FindByReference(ctx, "SKB-REF-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentOrderCreated, intent.Status)
	require.NotNil(t, intent.LinkedOrderID)
	assert.Equal(t, order.ID, *intent.LinkedOrderID)

	assert.Equal(t, []string{"user-1"}, cart.Cleared)
}

func TestMaterialize_IdempotentShortCircuit(t *testing.T) {
	ctx := context.Background()
	store, _, _, svc := newReconcileFixture()
	store.SeedIntent(testhelpers.DefaultIntent("SKB-REF-1"))

	first, err := svc.Materialize(ctx, "SKB-REF-1", testhelpers.DefaultEvidence("SKB-REF-1"))
	require.NoError(t, err)

	second, err := svc.Materialize(ctx, "SKB-REF-1", testhelpers.DefaultEvidence("SKB-REF-1"))
	require.NoError(t, err)

	assert.Equal(t, first.OrderNumber, second.OrderNumber)
	assert.Equal(t, 1, store.OrderCount())
}

func TestMaterialize_ConcurrentCallersProduceOneOrder(t *testing.T) {
	ctx := context.Background()
	store, _, _, svc := newReconcileFixture()
	store.SeedIntent(testhelpers.DefaultIntent("SKB-REF-1"))

	const callers = 16
	var wg sync.WaitGroup
	orderNumbers := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order, err := svc.Materialize(ctx, "SKB-REF-1", testhelpers.DefaultEvidence("SKB-REF-1"))
			if err != nil {
				errs[i] = err
				return
			}
			orderNumbers[i] = order.OrderNumber
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d", i)
	}
	for i := 1; i < callers; i++ {
		assert.Equal(t, orderNumbers[0], orderNumbers[i])
	}
	assert.Equal(t, 1, store.OrderCount())
}

func TestMaterialize_LostInsertRaceRefetchesWinner(t *testing.T) {
	ctx := context.Background()
	store, _, _, svc := newReconcileFixture()
	store.SeedIntent(testhelpers.DefaultIntent("SKB-REF-1"))

	winner := domain.MaterializeOrder("SKB-REF-1", "user-1", testhelpers.DefaultDraft())
	store.CreateOrderFn = func(ctx context.Context, order *domain.Order) error {
		// The short-circuit saw no order, then a concurrent caller commits
		// before our insert lands.
		store.SeedOrder(winner)
		return fmt.Errorf("order for SKB-REF-1: %w", postgres.ErrDuplicateReference)
	}

	order, err := svc.Materialize(ctx, "SKB-REF-1", testhelpers.DefaultEvidence("SKB-REF-1"))

	require.NoError(t, err)
	assert.Equal(t, winner.OrderNumber, order.OrderNumber)
	assert.Equal(t, 1, store.OrderCount())
}

func TestMaterialize_MissingIntentFallsBackToMinimalDraft(t *testing.T) {
	ctx := context.Background()
	store, _, _, svc := newReconcileFixture()

	order, err := svc.Materialize(ctx, "SKB-ORPHAN", testhelpers.DefaultEvidence("SKB-ORPHAN"))

	require.NoError(t, err)
	assert.True(t, order.RequiresReview)
	assert.Equal(t, "user-1", order.OwnerID)
	assert.Equal(t, int64(6200), order.TotalAmount)
	assert.Empty(t, order.Items)

	reviews := store.Reviews()
	require.Len(t, reviews, 1)
	assert.Equal(t, application.ReviewMissingIntent, reviews[0].Kind)
	assert.Equal(t, "SKB-ORPHAN", reviews[0].Reference)
}

func TestMaterialize_ExpiredIntentNotUsedForDraft(t *testing.T) {
	ctx := context.Background()
	store, _, _, svc := newReconcileFixture()

	intent := testhelpers.DefaultIntent("SKB-REF-1")
	intent.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	store.SeedIntent(intent)

	order, err := svc.Materialize(ctx, "SKB-REF-1", testhelpers.DefaultEvidence("SKB-REF-1"))

	require.NoError(t, err)
	assert.True(t, order.RequiresReview)
	assert.Empty(t, order.Items)
	assert.Equal(t, int64(6200), order.TotalAmount)
}

func TestMaterialize_UnresolvableOwnerQueuesPayment(t *testing.T) {
	ctx := context.Background()
	store, identity, _, svc := newReconcileFixture()
	identity.UsersByEmail = map[string]*application.User{}

	ev := testhelpers.DefaultEvidence("SKB-ORPHAN")
	ev.CustomerEmail = "stranger@example.com"

	_, err := svc.Materialize(ctx, "SKB-ORPHAN", ev)

	require.Error(t, err)
	assert.Equal(t, application.ErrCodeUnresolvableOwner, application.ToErrorCode(err))
	assert.Equal(t, 0, store.OrderCount())

	reviews := store.Reviews()
	require.Len(t, reviews, 1)
	assert.Equal(t, application.ReviewUnresolvableOwner, reviews[0].Kind)
}

func TestMaterialize_AmountMismatchFlagsReview(t *testing.T) {
	ctx := context.Background()
	store, _, _, svc := newReconcileFixture()
	store.SeedIntent(testhelpers.DefaultIntent("SKB-REF-1"))

	ev := testhelpers.DefaultEvidence("SKB-REF-1")
	ev.Amount = 9999

	order, err := svc.Materialize(ctx, "SKB-REF-1", ev)

	require.NoError(t, err)
	assert.True(t, order.RequiresReview)

	payment, err := store.Payments().FindByReference(ctx, "SKB-REF-1")
	require.NoError(t, err)
	assert.Equal(t, int64(9999), payment.Amount)
}

func TestMaterialize_EvidenceOwnerBeatsEmailLookup(t *testing.T) {
	ctx := context.Background()
	_, identity, cart, svc := newReconcileFixture()
	identity.UsersByEmail["grace@example.com"] = &application.User{ID: "user-7", Email: "grace@example.com", Name: "Grace"}

	// The evidence email would resolve to user-1, but the verified owner id
	// on the evidence wins.
	ev := testhelpers.DefaultEvidence("SKB-ORPHAN")
	ev.OwnerID = "user-7"

	order, err := svc.Materialize(ctx, "SKB-ORPHAN", ev)

	require.NoError(t, err)
	assert.Equal(t, "user-7", order.OwnerID)
	assert.Equal(t, []string{"user-7"}, cart.Cleared)
}

func TestMaterialize_UnknownEvidenceOwnerFallsBackToEmail(t *testing.T) {
	ctx := context.Background()
	_, _, cart, svc := newReconcileFixture()

	ev := testhelpers.DefaultEvidence("SKB-ORPHAN")
	ev.OwnerID = "user-does-not-exist"

	order, err := svc.Materialize(ctx, "SKB-ORPHAN", ev)

	require.NoError(t, err)
	assert.Equal(t, "user-1", order.OwnerID)
	assert.Equal(t, []string{"user-1"}, cart.Cleared)
}
