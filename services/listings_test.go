package services

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"YourWheels/apperr"
	"YourWheels/models"
)

func TestCreateListingRequiresSeller(t *testing.T) {
	f := newFixture(t, ApproveAll)
	_, err := f.listings.Create(context.Background(), models.KindSale, primitive.NewObjectID(), models.ListingRequest{Brand: "Ford"})
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.Equal(t, "Seller not found", apperr.Message(err))
}

func TestGetChecksKind(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()
	l := f.listing(t, models.KindSale, 100)

	got, err := f.listings.Get(ctx, models.KindSale, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Toyota", got.Brand)

	_, err = f.listings.Get(ctx, models.KindRental, l.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestUpdateOnlyByOwner(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()
	l := f.listing(t, models.KindSale, 100)

	_, err := f.listings.Update(ctx, models.KindSale, l.ID, primitive.NewObjectID(), models.ListingUpdate{Price: lo.ToPtr(90.0)})
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	got, err := f.listings.Update(ctx, models.KindSale, l.ID, f.seller, models.ListingUpdate{Price: lo.ToPtr(90.0)})
	require.NoError(t, err)
	assert.Equal(t, 90.0, got.Price)
	assert.Equal(t, "Corolla", got.Model)
}

func TestDeleteListing(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()
	l := f.listing(t, models.KindSale, 100)

	deleted, err := f.listings.Delete(ctx, models.KindSale, l.ID, f.seller)
	require.NoError(t, err)
	assert.Equal(t, l.ID, deleted.ID)

	_, err = f.listings.Get(ctx, models.KindSale, l.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestReturnFreesRental(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()
	l := f.listing(t, models.KindRental, 25)
	now := time.Now()
	_, err := f.ledger.RecordRental(ctx, f.buyer, l.ID, 25, now, now.Add(24*time.Hour))
	require.NoError(t, err)

	got, err := f.listings.Return(ctx, l.ID, f.seller)
	require.NoError(t, err)
	assert.False(t, got.IsRented)
	assert.Nil(t, got.Buyer)

	_, err = f.ledger.RecordRental(ctx, f.buyer, l.ID, 25, now, now.Add(24*time.Hour))
	assert.NoError(t, err)
}

func TestReviewUpdatesRating(t *testing.T) {
	f := newFixture(t, ApproveAll)
	ctx := context.Background()
	l := f.listing(t, models.KindRental, 25)

	_, err := f.listings.Review(ctx, l.ID, f.buyer, models.ReviewRequest{Rating: 4})
	require.NoError(t, err)
	got, err := f.listings.Review(ctx, l.ID, f.buyer, models.ReviewRequest{Rating: 2, Comment: " ok "})
	require.NoError(t, err)
	assert.Len(t, got.Reviews, 2)
	assert.Equal(t, 3.0, got.Rating)
	assert.Equal(t, "ok", got.Reviews[1].Comment)

	_, err = f.listings.Review(ctx, l.ID, f.buyer, models.ReviewRequest{Rating: 6})
	assert.True(t, apperr.Is(err, apperr.Validation))

	sale := f.listing(t, models.KindSale, 100)
	_, err = f.listings.Review(ctx, sale.ID, f.buyer, models.ReviewRequest{Rating: 3})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}
