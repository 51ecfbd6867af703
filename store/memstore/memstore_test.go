package memstore

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"YourWheels/models"
	"YourWheels/store"
)

func TestCreateAccountUniquePerRole(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateAccount(ctx, &models.Account{Role: models.RoleBuyer, Email: "j@x.com"}))
	err := s.CreateAccount(ctx, &models.Account{Role: models.RoleBuyer, Email: "j@x.com"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	assert.NoError(t, s.CreateAccount(ctx, &models.Account{Role: models.RoleSeller, Email: "j@x.com"}),
		"same email may hold a seller account")
}

func TestPasswordOnlyLoadedByEmail(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := &models.Account{Role: models.RoleSeller, Email: "s@x.com", Password: "hash"}
	require.NoError(t, s.CreateAccount(ctx, a))

	byID, err := s.FindAccountByID(ctx, models.RoleSeller, a.ID)
	require.NoError(t, err)
	assert.Empty(t, byID.Password)

	byEmail, err := s.FindAccountByEmail(ctx, models.RoleSeller, "s@x.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", byEmail.Password)

	_, err = s.FindAccountByID(ctx, models.RoleBuyer, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkSoldSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := New()
	l := &models.Listing{Kind: models.KindSale, Seller: primitive.NewObjectID(), Price: 500}
	require.NoError(t, s.CreateListing(ctx, l))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		rejected int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.MarkSold(ctx, l.ID, primitive.NewObjectID())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if err == store.ErrConditionFailed {
				rejected++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 7, rejected)
}

func TestMarkRentedStampsWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	l := &models.Listing{Kind: models.KindRental, Seller: primitive.NewObjectID()}
	require.NoError(t, s.CreateListing(ctx, l))

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(72 * time.Hour)
	buyer := primitive.NewObjectID()

	got, err := s.MarkRented(ctx, l.ID, buyer, from, to)
	require.NoError(t, err)
	assert.True(t, got.IsRented)
	assert.Equal(t, buyer, *got.Buyer)
	assert.Equal(t, to, *got.RentedTo)

	_, err = s.MarkRented(ctx, l.ID, buyer, from, to)
	assert.ErrorIs(t, err, store.ErrConditionFailed)

	released, err := s.ReleaseRental(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, released.IsRented)
	assert.Nil(t, released.RentedFrom)
}

func TestMarkSoldRejectsRentalListing(t *testing.T) {
	ctx := context.Background()
	s := New()
	l := &models.Listing{Kind: models.KindRental}
	require.NoError(t, s.CreateListing(ctx, l))

	_, err := s.MarkSold(ctx, l.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddReviewRecomputesMean(t *testing.T) {
	ctx := context.Background()
	s := New()
	l := &models.Listing{Kind: models.KindRental}
	require.NoError(t, s.CreateListing(ctx, l))

	_, err := s.AddReview(ctx, l.ID, models.Review{Rating: 5})
	require.NoError(t, err)
	got, err := s.AddReview(ctx, l.ID, models.Review{Rating: 2})
	require.NoError(t, err)

	assert.Len(t, got.Reviews, 2)
	assert.Equal(t, 3.5, got.Rating)
}

func TestUpdateListingPartial(t *testing.T) {
	ctx := context.Background()
	s := New()
	l := &models.Listing{Kind: models.KindSale, Brand: "Toyota", Price: 100}
	require.NoError(t, s.CreateListing(ctx, l))

	got, err := s.UpdateListing(ctx, l.ID, models.ListingUpdate{Price: lo.ToPtr(250.0)})
	require.NoError(t, err)
	assert.Equal(t, "Toyota", got.Brand)
	assert.Equal(t, 250.0, got.Price)
}

func TestListEntriesFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	acct := primitive.NewObjectID()
	other := primitive.NewObjectID()
	require.NoError(t, s.AppendEntries(ctx,
		&models.LedgerEntry{AccountID: acct, Type: models.EntryPurchase, Amount: 10},
		&models.LedgerEntry{AccountID: acct, Type: models.EntrySubscription, Amount: 5},
		&models.LedgerEntry{AccountID: other, Type: models.EntryPurchase, Amount: 99},
	))

	all, err := s.ListEntries(ctx, models.EntryFilter{AccountID: &acct})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	subs, err := s.ListEntries(ctx, models.EntryFilter{AccountID: &acct, Type: models.EntrySubscription})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, 5.0, subs[0].Amount)
}

func TestListingSlicesRenderAsEmptyArrays(t *testing.T) {
	ctx := context.Background()
	s := New()
	l := &models.Listing{Kind: models.KindSale, Seller: primitive.NewObjectID()}
	require.NoError(t, s.CreateListing(ctx, l))

	got, err := s.FindListing(ctx, l.ID)
	require.NoError(t, err)
	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"images":[]`)
	assert.Contains(t, string(raw), `"reviews":[]`)
}
