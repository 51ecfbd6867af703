package services

import (
	"context"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"YourWheels/models"
)

// StatsFor derives the dashboard summary from listings and ledger entries on
// every call. Revenue is the sum of all non-subscription entries booked to
// the account.
func (s *LedgerService) StatsFor(ctx context.Context, accountID primitive.ObjectID, role models.Role) (*models.Stats, error) {
	if err := s.requireAccount(ctx, role, accountID); err != nil {
		return nil, err
	}

	filter := models.ListingFilter{Seller: &accountID}
	if role == models.RoleBuyer {
		filter = models.ListingFilter{Buyer: &accountID}
	}
	listings, err := s.listings.ListListings(ctx, filter)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListEntries(ctx, models.EntryFilter{AccountID: &accountID})
	if err != nil {
		return nil, err
	}

	isSale := func(l models.Listing) bool { return l.Kind == models.KindSale }
	isRental := func(l models.Listing) bool { return l.Kind == models.KindRental }

	stats := &models.Stats{
		Sold:   lo.CountBy(listings, func(l models.Listing) bool { return isSale(l) && l.IsSold }),
		Rented: lo.CountBy(listings, func(l models.Listing) bool { return isRental(l) && l.IsRented }),
	}
	if role == models.RoleSeller {
		stats.OnSale = lo.CountBy(listings, func(l models.Listing) bool { return isSale(l) && !l.IsSold })
		stats.Available = lo.CountBy(listings, func(l models.Listing) bool { return isRental(l) && !l.IsRented })
	}
	stats.TotalRevenue = Revenue(entries)
	return stats, nil
}

func Revenue(entries []models.LedgerEntry) float64 {
	counted := lo.Filter(entries, func(e models.LedgerEntry, _ int) bool {
		return e.Type != models.EntrySubscription
	})
	return lo.SumBy(counted, func(e models.LedgerEntry) float64 { return e.Amount })
}
