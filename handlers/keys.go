package handlers

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"YourWheels/models"
)

// Cache key namespaces. Route level key functions in the routes package
// build the same strings from path parameters.
const (
	PrefixSellerVehicles = "vehicles:seller"
	KeyAvailableVehicles = "vehicles:available"
	PrefixVehicle        = "vehicle"
	PrefixSellAll        = "sell:all"
	PrefixSale           = "sell"
	PrefixSold           = "sell:sold"
)

func ProfilePrefix(role models.Role) string {
	return "profile:" + string(role)
}

func key(prefix string, id primitive.ObjectID) string {
	return prefix + ":" + id.Hex()
}

func rentalKeys(l *models.Listing) []string {
	return []string{key(PrefixVehicle, l.ID), key(PrefixSellerVehicles, l.Seller), KeyAvailableVehicles}
}

func saleKeys(l *models.Listing) []string {
	return []string{key(PrefixSale, l.ID), key(PrefixSold, l.Seller), PrefixSellAll + ":*"}
}
