package mongostore

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"YourWheels/models"
)

func TestListingQuery(t *testing.T) {
	seller := primitive.NewObjectID()
	q := listingQuery(models.ListingFilter{
		Kind:   models.KindSale,
		Seller: &seller,
		IsSold: lo.ToPtr(true),
	})

	assert.Equal(t, bson.M{
		"kind":   models.KindSale,
		"seller": seller,
		"isSold": true,
	}, q)
}

func TestListingQueryEmpty(t *testing.T) {
	assert.Empty(t, listingQuery(models.ListingFilter{}))
}

func TestListingUpdateOmitsNilFields(t *testing.T) {
	raw, err := bson.Marshal(models.ListingUpdate{Brand: lo.ToPtr("Honda")})
	assert.NoError(t, err)

	var fields bson.M
	assert.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Equal(t, bson.M{"brand": "Honda"}, fields)
}
