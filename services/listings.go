package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"YourWheels/apperr"
	"YourWheels/models"
	"YourWheels/store"
)

type ListingService struct {
	accounts store.AccountStore
	listings store.ListingStore
	now      func() time.Time
	log      *zap.Logger
}

func NewListingService(s store.Store, log *zap.Logger) *ListingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ListingService{accounts: s, listings: s, now: time.Now, log: log.Named("listings")}
}

func listingErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.E(apperr.NotFound, "Vehicle not found", err)
	}
	return err
}

func (s *ListingService) Create(ctx context.Context, kind models.ListingKind, seller primitive.ObjectID, req models.ListingRequest) (*models.Listing, error) {
	if _, err := s.accounts.FindAccountByID(ctx, models.RoleSeller, seller); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.E(apperr.NotFound, "Seller not found", err)
		}
		return nil, err
	}

	now := s.now()
	images := req.Images
	if images == nil {
		images = []string{}
	}
	l := &models.Listing{
		ID:          primitive.NewObjectID(),
		Kind:        kind,
		Seller:      seller,
		Type:        strings.TrimSpace(req.Type),
		Brand:       strings.TrimSpace(req.Brand),
		Model:       strings.TrimSpace(req.Model),
		Price:       req.Price,
		Year:        req.Year,
		Condition:   req.Condition,
		Mileage:     req.Mileage,
		FuelType:    req.FuelType,
		Location:    req.Location,
		Description: req.Description,
		Images:      images,
		Reviews:     []models.Review{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.listings.CreateListing(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Get returns the listing when it has the expected kind.
func (s *ListingService) Get(ctx context.Context, kind models.ListingKind, id primitive.ObjectID) (*models.Listing, error) {
	l, err := s.listings.FindListing(ctx, id)
	if err != nil {
		return nil, listingErr(err)
	}
	if kind != "" && l.Kind != kind {
		return nil, apperr.E(apperr.NotFound, "Vehicle not found", nil)
	}
	return l, nil
}

func (s *ListingService) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	return s.listings.ListListings(ctx, filter)
}

// Owned loads a listing and checks that seller owns it.
func (s *ListingService) Owned(ctx context.Context, kind models.ListingKind, id, seller primitive.ObjectID) (*models.Listing, error) {
	l, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if l.Seller != seller {
		return nil, apperr.E(apperr.Forbidden, "You are not authorized to modify this vehicle", nil)
	}
	return l, nil
}

func (s *ListingService) Update(ctx context.Context, kind models.ListingKind, id, seller primitive.ObjectID, update models.ListingUpdate) (*models.Listing, error) {
	if _, err := s.Owned(ctx, kind, id, seller); err != nil {
		return nil, err
	}
	l, err := s.listings.UpdateListing(ctx, id, update)
	return l, listingErr(err)
}

func (s *ListingService) Delete(ctx context.Context, kind models.ListingKind, id, seller primitive.ObjectID) (*models.Listing, error) {
	l, err := s.Owned(ctx, kind, id, seller)
	if err != nil {
		return nil, err
	}
	if err := s.listings.DeleteListing(ctx, id); err != nil {
		return nil, listingErr(err)
	}
	return l, nil
}

// Return ends a rental, making the vehicle available again.
func (s *ListingService) Return(ctx context.Context, id, seller primitive.ObjectID) (*models.Listing, error) {
	if _, err := s.Owned(ctx, models.KindRental, id, seller); err != nil {
		return nil, err
	}
	l, err := s.listings.ReleaseRental(ctx, id)
	return l, listingErr(err)
}

func (s *ListingService) Review(ctx context.Context, id, reviewer primitive.ObjectID, req models.ReviewRequest) (*models.Listing, error) {
	if req.Rating < 0 || req.Rating > 5 {
		return nil, apperr.E(apperr.Validation, "Rating must be between 0 and 5", nil)
	}
	if _, err := s.Get(ctx, models.KindRental, id); err != nil {
		return nil, err
	}
	l, err := s.listings.AddReview(ctx, id, models.Review{
		Reviewer:  reviewer,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: s.now(),
	})
	return l, listingErr(err)
}
