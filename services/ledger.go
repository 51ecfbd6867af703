package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"YourWheels/apperr"
	"YourWheels/models"
	"YourWheels/store"
)

type PurchaseResult struct {
	Listing *models.Listing
	Debit   *models.LedgerEntry
	Credit  *models.LedgerEntry
}

type RentalResult struct {
	Listing       *models.Listing
	Entry         *models.LedgerEntry
	TransactionID string
}

type SubscriptionResult struct {
	Approved bool
	Entry    *models.LedgerEntry
}

type LedgerService struct {
	accounts store.AccountStore
	listings store.ListingStore
	entries  store.LedgerStore
	gateway  PaymentGateway
	now      func() time.Time
	newTxID  func() string
	log      *zap.Logger
}

func NewLedgerService(s store.Store, gateway PaymentGateway, log *zap.Logger) *LedgerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LedgerService{
		accounts: s,
		listings: s,
		entries:  s,
		gateway:  gateway,
		now:      time.Now,
		newTxID:  uuid.NewString,
		log:      log.Named("ledger"),
	}
}

func describe(l *models.Listing) string {
	return strings.TrimSpace(l.Brand + " " + l.Model)
}

func (s *LedgerService) requireAccount(ctx context.Context, role models.Role, id primitive.ObjectID) error {
	_, err := s.accounts.FindAccountByID(ctx, role, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.E(apperr.NotFound, roleTitle(role)+" not found", err)
	}
	return err
}

func occupancyErr(err error, takenMsg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.E(apperr.NotFound, "Vehicle not found", err)
	case errors.Is(err, store.ErrConditionFailed):
		return apperr.E(apperr.Conflict, takenMsg, err)
	default:
		return err
	}
}

func (s *LedgerService) append(ctx context.Context, entries ...*models.LedgerEntry) error {
	if err := s.entries.AppendEntries(ctx, entries...); err != nil {
		s.log.Error("ledger append failed after occupancy change", zap.Error(err))
		return fmt.Errorf("append ledger entries: %w", err)
	}
	return nil
}

// RecordPurchase marks the sale listing sold to buyer and books a debit to the
// buyer and a credit to the seller. A listing that is already sold fails
// before any entry is written. An amount of 0 charges the listing price.
func (s *LedgerService) RecordPurchase(ctx context.Context, buyerID, listingID primitive.ObjectID, amount float64) (*PurchaseResult, error) {
	if amount < 0 {
		return nil, apperr.E(apperr.Validation, "Amount must not be negative", nil)
	}
	if err := s.requireAccount(ctx, models.RoleBuyer, buyerID); err != nil {
		return nil, err
	}

	listing, err := s.listings.MarkSold(ctx, listingID, buyerID)
	if err != nil {
		return nil, occupancyErr(err, "Vehicle is already sold")
	}
	if amount == 0 {
		amount = listing.Price
	}

	now := s.now()
	seller := listing.Seller
	debit := &models.LedgerEntry{
		AccountID:   buyerID,
		AccountRole: models.RoleBuyer,
		Amount:      -amount,
		Type:        models.EntryPurchase,
		Status:      models.StatusSuccessful,
		Buyer:       &buyerID,
		Seller:      &seller,
		Listing:     &listingID,
		Description: "Purchased " + describe(listing),
		CreatedAt:   now,
	}
	credit := &models.LedgerEntry{
		AccountID:   seller,
		AccountRole: models.RoleSeller,
		Amount:      amount,
		Type:        models.EntryPurchase,
		Status:      models.StatusSuccessful,
		Buyer:       &buyerID,
		Seller:      &seller,
		Listing:     &listingID,
		Description: "Sold " + describe(listing),
		CreatedAt:   now,
	}
	if err := s.append(ctx, debit, credit); err != nil {
		return nil, err
	}
	return &PurchaseResult{Listing: listing, Debit: debit, Credit: credit}, nil
}

// RecordRental rents the listing to buyer for window and books one rental
// entry to the seller under a fresh transaction id. An amount of 0 charges
// the daily price for every started day.
func (s *LedgerService) RecordRental(ctx context.Context, buyerID, listingID primitive.ObjectID, amount float64, from, to time.Time) (*RentalResult, error) {
	if from.IsZero() || to.IsZero() || !to.After(from) {
		return nil, apperr.E(apperr.Validation, "Rental end must be after its start", nil)
	}
	if amount < 0 {
		return nil, apperr.E(apperr.Validation, "Amount must not be negative", nil)
	}
	if err := s.requireAccount(ctx, models.RoleBuyer, buyerID); err != nil {
		return nil, err
	}

	listing, err := s.listings.MarkRented(ctx, listingID, buyerID, from, to)
	if err != nil {
		return nil, occupancyErr(err, "Vehicle is already rented")
	}
	if amount == 0 {
		days := math.Ceil(to.Sub(from).Hours() / 24)
		amount = listing.Price * days
	}

	txID := s.newTxID()
	seller := listing.Seller
	entry := &models.LedgerEntry{
		AccountID:     seller,
		AccountRole:   models.RoleSeller,
		Amount:        amount,
		Type:          models.EntryRental,
		Status:        models.StatusSuccessful,
		Buyer:         &buyerID,
		Seller:        &seller,
		Listing:       &listingID,
		TransactionID: txID,
		Description:   fmt.Sprintf("Rented %s from %s to %s", describe(listing), from.Format(time.DateOnly), to.Format(time.DateOnly)),
		CreatedAt:     s.now(),
	}
	if err := s.append(ctx, entry); err != nil {
		return nil, err
	}
	return &RentalResult{Listing: listing, Entry: entry, TransactionID: txID}, nil
}

// RecordSubscription charges for a membership plan through the gateway. A
// declined charge is still recorded, as a failed entry, and leaves the
// membership untouched. The entry is written before membership is granted.
func (s *LedgerService) RecordSubscription(ctx context.Context, role models.Role, accountID primitive.ObjectID, amount float64, plan models.MembershipPlan) (*SubscriptionResult, error) {
	if !plan.Valid() {
		return nil, apperr.E(apperr.Validation, "Unknown membership plan", nil)
	}
	if amount <= 0 {
		return nil, apperr.E(apperr.Validation, "Amount must be positive", nil)
	}
	if err := s.requireAccount(ctx, role, accountID); err != nil {
		return nil, err
	}

	approved, err := s.gateway.Approve(ctx, amount)
	if err != nil {
		return nil, apperr.E(apperr.Upstream, "Payment gateway unavailable", err)
	}

	entry := &models.LedgerEntry{
		AccountID:   accountID,
		AccountRole: role,
		Amount:      amount,
		Type:        models.EntrySubscription,
		Status:      models.StatusFailed,
		Plan:        plan,
		Description: fmt.Sprintf("%s membership", plan),
		CreatedAt:   s.now(),
	}
	if role == models.RoleBuyer {
		entry.Buyer = &accountID
	} else {
		entry.Seller = &accountID
	}

	if approved {
		entry.Status = models.StatusSuccessful
	}
	if err := s.entries.AppendEntries(ctx, entry); err != nil {
		return nil, fmt.Errorf("append subscription entry: %w", err)
	}
	if approved {
		if err := s.accounts.SetMembership(ctx, role, accountID, true, plan); err != nil {
			s.log.Error("membership not granted after successful charge",
				zap.String("account", accountID.Hex()), zap.String("plan", string(plan)), zap.Error(err))
			return nil, fmt.Errorf("set membership: %w", err)
		}
	}
	return &SubscriptionResult{Approved: approved, Entry: entry}, nil
}

func (s *LedgerService) CancelMembership(ctx context.Context, role models.Role, accountID primitive.ObjectID) error {
	err := s.accounts.SetMembership(ctx, role, accountID, false, "")
	if errors.Is(err, store.ErrNotFound) {
		return apperr.E(apperr.NotFound, roleTitle(role)+" not found", err)
	}
	return err
}

func (s *LedgerService) EntriesFor(ctx context.Context, accountID primitive.ObjectID) ([]models.LedgerEntry, error) {
	return s.entries.ListEntries(ctx, models.EntryFilter{AccountID: &accountID})
}

func (s *LedgerService) AllEntries(ctx context.Context, filter models.EntryFilter) ([]models.LedgerEntry, error) {
	return s.entries.ListEntries(ctx, filter)
}
