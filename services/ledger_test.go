package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"YourWheels/apperr"
	"YourWheels/models"
	"YourWheels/store/memstore"
)

type fixture struct {
	store    *memstore.Store
	ledger   *LedgerService
	listings *ListingService
	buyer    primitive.ObjectID
	seller   primitive.ObjectID
}

func newFixture(t *testing.T, gateway PaymentGateway) *fixture {
	t.Helper()
	st := memstore.New()
	f := &fixture{
		store:    st,
		ledger:   NewLedgerService(st, gateway, nil),
		listings: NewListingService(st, nil),
		buyer:    primitive.NewObjectID(),
		seller:   primitive.NewObjectID(),
	}
	ctx := context.Background()
	require.NoError(t, st.CreateAccount(ctx, &models.Account{ID: f.buyer, Role: models.RoleBuyer, Email: "b@x.com"}))
	require.NoError(t, st.CreateAccount(ctx, &models.Account{ID: f.seller, Role: models.RoleSeller, Email: "s@x.com"}))
	return f
}

func (f *fixture) listing(t *testing.T, kind models.ListingKind, price float64) *models.Listing {
	t.Helper()
	l, err := f.listings.Create(context.Background(), kind, f.seller, models.ListingRequest{
		Type: "car", Brand: "Toyota", Model: "Corolla", Price: price, Year: 2020,
	})
	require.NoError(t, err)
	return l
}

func TestRecordPurchaseBooksBothSides(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()
	l := f.listing(t, models.KindSale, 500)

	res, err := f.ledger.RecordPurchase(ctx, f.buyer, l.ID, 0)
	require.NoError(t, err)
	assert.True(t, res.Listing.IsSold)
	assert.Equal(t, f.buyer, *res.Listing.Buyer)
	assert.Equal(t, -500.0, res.Debit.Amount)
	assert.Equal(t, 500.0, res.Credit.Amount)
	assert.Equal(t, f.buyer, res.Debit.AccountID)
	assert.Equal(t, f.seller, res.Credit.AccountID)

	_, err = f.ledger.RecordPurchase(ctx, f.buyer, l.ID, 500)
	assert.True(t, apperr.Is(err, apperr.Conflict))
	assert.Equal(t, "Vehicle is already sold", apperr.Message(err))

	all, err := f.ledger.AllEntries(ctx, models.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConcurrentPurchaseHasOneWinner(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()
	l := f.listing(t, models.KindSale, 1000)

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.RecordPurchase(ctx, f.buyer, l.ID, 1000)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.True(t, apperr.Is(err, apperr.Conflict))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	entries, err := f.ledger.AllEntries(ctx, models.EntryFilter{Type: models.EntryPurchase})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPurchaseUnknownVehicle(t *testing.T) {
	f := newFixture(t, ApproveAll)
	_, err := f.ledger.RecordPurchase(context.Background(), f.buyer, primitive.NewObjectID(), 10)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestPurchaseRequiresSaleListing(t *testing.T) {
	f := newFixture(t, ApproveAll)
	l := f.listing(t, models.KindRental, 50)
	_, err := f.ledger.RecordPurchase(context.Background(), f.buyer, l.ID, 10)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestRecordRental(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()
	l := f.listing(t, models.KindRental, 40)
	from := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	to := from.Add(36 * time.Hour)

	res, err := f.ledger.RecordRental(ctx, f.buyer, l.ID, 0, from, to)
	require.NoError(t, err)
	assert.Equal(t, 80.0, res.Entry.Amount)
	assert.Equal(t, f.seller, res.Entry.AccountID)
	assert.NotEmpty(t, res.TransactionID)
	assert.Equal(t, res.TransactionID, res.Entry.TransactionID)
	assert.True(t, res.Listing.IsRented)
	assert.True(t, res.Listing.RentedFrom.Equal(from))

	_, err = f.ledger.RecordRental(ctx, f.buyer, l.ID, 10, from, to)
	assert.True(t, apperr.Is(err, apperr.Conflict))
	assert.Equal(t, "Vehicle is already rented", apperr.Message(err))

	entries, err := f.ledger.AllEntries(ctx, models.EntryFilter{Type: models.EntryRental})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRentalTransactionIDsAreUnique(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()
	from := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		l := f.listing(t, models.KindRental, 10)
		res, err := f.ledger.RecordRental(ctx, f.buyer, l.ID, 10, from, from.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, seen[res.TransactionID])
		seen[res.TransactionID] = true
	}
}

func TestRentalWindowValidation(t *testing.T) {
	f := newFixture(t, ApproveAll)
	l := f.listing(t, models.KindRental, 10)
	now := time.Now()
	_, err := f.ledger.RecordRental(context.Background(), f.buyer, l.ID, 10, now, now)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestSubscriptionApproved(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()

	res, err := f.ledger.RecordSubscription(ctx, models.RoleSeller, f.seller, 50, models.PlanPremium)
	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.Equal(t, models.StatusSuccessful, res.Entry.Status)

	acc, err := f.store.FindAccountByID(ctx, models.RoleSeller, f.seller)
	require.NoError(t, err)
	assert.True(t, acc.IsMember)
	assert.Equal(t, models.PlanPremium, acc.MembershipPlan)

	require.NoError(t, f.ledger.CancelMembership(ctx, models.RoleSeller, f.seller))
	acc, err = f.store.FindAccountByID(ctx, models.RoleSeller, f.seller)
	require.NoError(t, err)
	assert.False(t, acc.IsMember)
	assert.Empty(t, acc.MembershipPlan)
}

func TestSubscriptionDeclined(t *testing.T) {
	f := newFixture(t, DeclineAll)
	ctx := context.Background()

	res, err := f.ledger.RecordSubscription(ctx, models.RoleBuyer, f.buyer, 20, models.PlanBasic)
	require.NoError(t, err)
	assert.False(t, res.Approved)
	assert.Equal(t, models.StatusFailed, res.Entry.Status)

	acc, err := f.store.FindAccountByID(ctx, models.RoleBuyer, f.buyer)
	require.NoError(t, err)
	assert.False(t, acc.IsMember)
}

// failingLedger refuses every ledger write.
type failingLedger struct {
	*memstore.Store
}

func (failingLedger) AppendEntries(context.Context, ...*models.LedgerEntry) error {
	return errors.New("disk full")
}

func TestSubscriptionNotGrantedWithoutEntry(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()
	ledger := NewLedgerService(failingLedger{f.store}, ApproveAll, nil)

	_, err := ledger.RecordSubscription(ctx, models.RoleBuyer, f.buyer, 20, models.PlanBasic)
	require.Error(t, err)

	acc, err := f.store.FindAccountByID(ctx, models.RoleBuyer, f.buyer)
	require.NoError(t, err)
	assert.False(t, acc.IsMember)
	assert.Empty(t, acc.MembershipPlan)
}

func TestSubscriptionRejectsUnknownPlan(t *testing.T) {
	f := newFixture(t, ApproveAll)
	_, err := f.ledger.RecordSubscription(context.Background(), models.RoleBuyer, f.buyer, 20, "gold")
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestRevenueExcludesSubscriptions(t *testing.T) {
	entries := []models.LedgerEntry{
		{Amount: 500, Type: models.EntryPurchase},
		{Amount: -500, Type: models.EntryPurchase},
		{Amount: 50, Type: models.EntrySubscription},
	}
	assert.Equal(t, 0.0, Revenue(entries))
	assert.Equal(t, 0.0, Revenue(nil))
}

func TestSellerStats(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()
	sold := f.listing(t, models.KindSale, 300)
	f.listing(t, models.KindSale, 200)
	rented := f.listing(t, models.KindRental, 20)
	f.listing(t, models.KindRental, 30)

	_, err := f.ledger.RecordPurchase(ctx, f.buyer, sold.ID, 300)
	require.NoError(t, err)
	now := time.Now()
	_, err = f.ledger.RecordRental(ctx, f.buyer, rented.ID, 40, now, now.Add(48*time.Hour))
	require.NoError(t, err)
	_, err = f.ledger.RecordSubscription(ctx, models.RoleSeller, f.seller, 99, models.PlanStandard)
	require.NoError(t, err)

	stats, err := f.ledger.StatsFor(ctx, f.seller, models.RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, &models.Stats{Sold: 1, OnSale: 1, Rented: 1, Available: 1, TotalRevenue: 340}, stats)

	buyerStats, err := f.ledger.StatsFor(ctx, f.buyer, models.RoleBuyer)
	require.NoError(t, err)
	assert.Equal(t, &models.Stats{Sold: 1, Rented: 1, TotalRevenue: -300}, buyerStats)
}

func TestStatsUnknownAccount(t *testing.T) {
	f := newFixture(t, ApproveAll)
	_, err := f.ledger.StatsFor(context.Background(), primitive.NewObjectID(), models.RoleSeller)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}
