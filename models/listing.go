package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ListingKind string

const (
	KindSale   ListingKind = "sale"
	KindRental ListingKind = "rental"
)

// Listing is a vehicle offered for sale or rent. Buyer is set once the vehicle
// is sold or rented; a listing is occupied by at most one account.
type Listing struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Kind        ListingKind         `json:"kind" bson:"kind"`
	Seller      primitive.ObjectID  `json:"sellerId" bson:"seller"`
	Buyer       *primitive.ObjectID `json:"buyerId,omitempty" bson:"buyer,omitempty"`
	Type        string              `json:"type" bson:"type"`
	Brand       string              `json:"brand" bson:"brand"`
	Model       string              `json:"model" bson:"model"`
	Price       float64             `json:"price" bson:"price"`
	Year        int                 `json:"year" bson:"year"`
	Condition   string              `json:"condition" bson:"condition"`
	Mileage     int                 `json:"mileage" bson:"mileage"`
	FuelType    string              `json:"fuelType" bson:"fuelType"`
	Location    string              `json:"location" bson:"location"`
	Description string              `json:"description" bson:"description"`
	Images      []string            `json:"images" bson:"images"`
	IsSold      bool                `json:"isSold" bson:"isSold"`
	IsRented    bool                `json:"isRented" bson:"isRented"`
	RentedFrom  *time.Time          `json:"rentedFrom,omitempty" bson:"rentedFrom,omitempty"`
	RentedTo    *time.Time          `json:"rentedTo,omitempty" bson:"rentedTo,omitempty"`
	Reviews     []Review            `json:"reviews" bson:"reviews"`
	Rating      float64             `json:"rating" bson:"rating"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
}

func (l *Listing) Occupied() bool {
	if l.Kind == KindRental {
		return l.IsRented
	}
	return l.IsSold
}

type ListingRequest struct {
	SellerID    string   `json:"sellerId" validate:"required"`
	Type        string   `json:"type" validate:"required"`
	Brand       string   `json:"brand" validate:"required"`
	Model       string   `json:"model"`
	Price       float64  `json:"price" validate:"gt=0"`
	Year        int      `json:"year" validate:"required,gte=1886"`
	Condition   string   `json:"condition"`
	Mileage     int      `json:"mileage" validate:"gte=0"`
	FuelType    string   `json:"fuelType"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

// ListingUpdate carries the descriptive fields a seller may change. Nil
// pointers are left untouched.
type ListingUpdate struct {
	Type        *string   `json:"type" bson:"type,omitempty"`
	Brand       *string   `json:"brand" bson:"brand,omitempty"`
	Model       *string   `json:"model" bson:"model,omitempty"`
	Price       *float64  `json:"price" bson:"price,omitempty" validate:"omitempty,gt=0"`
	Year        *int      `json:"year" bson:"year,omitempty"`
	Condition   *string   `json:"condition" bson:"condition,omitempty"`
	Mileage     *int      `json:"mileage" bson:"mileage,omitempty"`
	FuelType    *string   `json:"fuelType" bson:"fuelType,omitempty"`
	Location    *string   `json:"location" bson:"location,omitempty"`
	Description *string   `json:"description" bson:"description,omitempty"`
	Images      *[]string `json:"images" bson:"images,omitempty"`
}

// ListingFilter selects listings. Zero fields do not filter.
type ListingFilter struct {
	Kind     ListingKind
	Seller   *primitive.ObjectID
	Buyer    *primitive.ObjectID
	IsSold   *bool
	IsRented *bool
}
