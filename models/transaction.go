package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EntryType string

const (
	EntryPurchase     EntryType = "purchase"
	EntryRental       EntryType = "rental"
	EntryMembership   EntryType = "membership"
	EntrySubscription EntryType = "subscription"
)

type EntryStatus string

const (
	StatusPending    EntryStatus = "pending"
	StatusSuccessful EntryStatus = "successful"
	StatusFailed     EntryStatus = "failed"
)

// LedgerEntry is an immutable monetary event booked to one account. Amount is
// negative for buyer-side debits.
type LedgerEntry struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	AccountID     primitive.ObjectID  `json:"accountId" bson:"accountId"`
	AccountRole   Role                `json:"accountRole" bson:"accountRole"`
	Amount        float64             `json:"amount" bson:"amount"`
	Type          EntryType           `json:"type" bson:"type"`
	Status        EntryStatus         `json:"status" bson:"status"`
	Buyer         *primitive.ObjectID `json:"buyerId,omitempty" bson:"buyer,omitempty"`
	Seller        *primitive.ObjectID `json:"sellerId,omitempty" bson:"seller,omitempty"`
	Listing       *primitive.ObjectID `json:"vehicleId,omitempty" bson:"listing,omitempty"`
	TransactionID string              `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	Plan          MembershipPlan      `json:"plan,omitempty" bson:"plan,omitempty"`
	Description   string              `json:"description" bson:"description"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
}

type EntryFilter struct {
	AccountID *primitive.ObjectID
	Type      EntryType
	Status    EntryStatus
}

type PurchaseRequest struct {
	BuyerID   string  `json:"buyerId" validate:"required"`
	VehicleID string  `json:"vehicleId" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"`
}

type RentRequest struct {
	BuyerID   string    `json:"buyerId" validate:"required"`
	VehicleID string    `json:"vehicleId" validate:"required"`
	Amount    float64   `json:"amount" validate:"gte=0"`
	From      time.Time `json:"rentedFrom" validate:"required"`
	To        time.Time `json:"rentedTo" validate:"required"`
}

type SubscriptionRequest struct {
	AccountID string         `json:"accountId" validate:"required"`
	Amount    float64        `json:"amount" validate:"gt=0"`
	Plan      MembershipPlan `json:"plan" validate:"required"`
}

// Stats is the derived dashboard summary of an account. Revenue is recomputed
// from ledger entries on every request.
type Stats struct {
	Sold         int     `json:"sold"`
	OnSale       int     `json:"onSale"`
	Rented       int     `json:"rented"`
	Available    int     `json:"available"`
	TotalRevenue float64 `json:"totalRevenue"`
}
