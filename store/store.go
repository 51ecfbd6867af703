// Package store declares the persistence capabilities the services depend on.
// Implementations live in mongostore (production) and memstore (local runs and
// tests).
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"YourWheels/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")

	// ErrConditionFailed is returned by conditional updates whose guard did
	// not hold, e.g. marking an already sold listing as sold.
	ErrConditionFailed = errors.New("store: condition failed")
)

type AccountStore interface {
	// CreateAccount fails with ErrDuplicate when (email, role) exists.
	CreateAccount(ctx context.Context, a *models.Account) error
	FindAccountByID(ctx context.Context, role models.Role, id primitive.ObjectID) (*models.Account, error)
	// FindAccountByEmail is the only lookup that returns the password hash.
	FindAccountByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error)
	UpdateAccountProfile(ctx context.Context, role models.Role, id primitive.ObjectID, req models.UpdateAccountRequest) (*models.Account, error)
	SetGoogleID(ctx context.Context, role models.Role, id primitive.ObjectID, googleID string) error
	SetMembership(ctx context.Context, role models.Role, id primitive.ObjectID, isMember bool, plan models.MembershipPlan) error
	ListAccounts(ctx context.Context, role models.Role) ([]models.Account, error)
	DeleteAccount(ctx context.Context, role models.Role, id primitive.ObjectID) error
}

type ListingStore interface {
	CreateListing(ctx context.Context, l *models.Listing) error
	FindListing(ctx context.Context, id primitive.ObjectID) (*models.Listing, error)
	ListListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)
	UpdateListing(ctx context.Context, id primitive.ObjectID, update models.ListingUpdate) (*models.Listing, error)
	DeleteListing(ctx context.Context, id primitive.ObjectID) error
	// MarkSold sets isSold and the buyer only if the sale listing is unsold.
	MarkSold(ctx context.Context, id, buyer primitive.ObjectID) (*models.Listing, error)
	// MarkRented sets isRented, the buyer and the window only if the rental
	// listing is not rented.
	MarkRented(ctx context.Context, id, buyer primitive.ObjectID, from, to time.Time) (*models.Listing, error)
	// ReleaseRental clears the rental occupancy and window.
	ReleaseRental(ctx context.Context, id primitive.ObjectID) (*models.Listing, error)
	// AddReview appends a review and recomputes the mean rating in one update.
	AddReview(ctx context.Context, id primitive.ObjectID, review models.Review) (*models.Listing, error)
}

// LedgerStore is append-only.
type LedgerStore interface {
	AppendEntries(ctx context.Context, entries ...*models.LedgerEntry) error
	ListEntries(ctx context.Context, filter models.EntryFilter) ([]models.LedgerEntry, error)
}

type Store interface {
	AccountStore
	ListingStore
	LedgerStore
}
