// Package memstore is an in-process implementation of store.Store. It honours
// the same uniqueness and conditional-update guarantees as the Mongo store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"YourWheels/models"
	"YourWheels/store"
)

type Store struct {
	mu       sync.RWMutex
	accounts map[primitive.ObjectID]*models.Account
	emails   map[string]primitive.ObjectID
	listings map[primitive.ObjectID]*models.Listing
	entries  []models.LedgerEntry
	now      func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts: make(map[primitive.ObjectID]*models.Account),
		emails:   make(map[string]primitive.ObjectID),
		listings: make(map[primitive.ObjectID]*models.Listing),
		now:      time.Now,
	}
}

func emailKey(role models.Role, email string) string {
	return string(role) + "|" + email
}

func publicAccount(a *models.Account) *models.Account {
	out := *a
	out.Password = ""
	return &out
}

func (s *Store) CreateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(a.Role, a.Email)
	if _, exists := s.emails[key]; exists {
		return store.ErrDuplicate
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	stored := *a
	s.accounts[a.ID] = &stored
	s.emails[key] = a.ID
	return nil
}

func (s *Store) findAccount(role models.Role, id primitive.ObjectID) (*models.Account, error) {
	a, ok := s.accounts[id]
	if !ok || a.Role != role {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) FindAccountByID(_ context.Context, role models.Role, id primitive.ObjectID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := s.findAccount(role, id)
	if err != nil {
		return nil, err
	}
	return publicAccount(a), nil
}

func (s *Store) FindAccountByEmail(_ context.Context, role models.Role, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[emailKey(role, email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *s.accounts[id]
	return &out, nil
}

func (s *Store) UpdateAccountProfile(_ context.Context, role models.Role, id primitive.ObjectID, req models.UpdateAccountRequest) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.findAccount(role, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != "" {
		a.FirstName = req.FirstName
	}
	if req.LastName != "" {
		a.LastName = req.LastName
	}
	if req.Phone != "" {
		a.Phone = req.Phone
	}
	a.UpdatedAt = s.now()
	return publicAccount(a), nil
}

func (s *Store) SetGoogleID(_ context.Context, role models.Role, id primitive.ObjectID, googleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.findAccount(role, id)
	if err != nil {
		return err
	}
	a.GoogleID = googleID
	a.UpdatedAt = s.now()
	return nil
}

func (s *Store) SetMembership(_ context.Context, role models.Role, id primitive.ObjectID, isMember bool, plan models.MembershipPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.findAccount(role, id)
	if err != nil {
		return err
	}
	if !isMember {
		plan = ""
	}
	a.IsMember = isMember
	a.MembershipPlan = plan
	a.UpdatedAt = s.now()
	return nil
}

func (s *Store) ListAccounts(_ context.Context, role models.Role) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Account, 0)
	for _, a := range s.accounts {
		if a.Role == role {
			out = append(out, *publicAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteAccount(_ context.Context, role models.Role, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.findAccount(role, id)
	if err != nil {
		return err
	}
	delete(s.emails, emailKey(a.Role, a.Email))
	delete(s.accounts, id)
	return nil
}

func cloneListing(l *models.Listing) *models.Listing {
	out := *l
	out.Images = append([]string{}, l.Images...)
	out.Reviews = append([]models.Review{}, l.Reviews...)
	if l.Buyer != nil {
		b := *l.Buyer
		out.Buyer = &b
	}
	return &out
}

func (s *Store) CreateListing(_ context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	s.listings[l.ID] = cloneListing(l)
	return nil
}

func (s *Store) FindListing(_ context.Context, id primitive.ObjectID) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneListing(l), nil
}

func matches(l *models.Listing, f models.ListingFilter) bool {
	if f.Kind != "" && l.Kind != f.Kind {
		return false
	}
	if f.Seller != nil && l.Seller != *f.Seller {
		return false
	}
	if f.Buyer != nil && (l.Buyer == nil || *l.Buyer != *f.Buyer) {
		return false
	}
	if f.IsSold != nil && l.IsSold != *f.IsSold {
		return false
	}
	if f.IsRented != nil && l.IsRented != *f.IsRented {
		return false
	}
	return true
}

func (s *Store) ListListings(_ context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Listing, 0)
	for _, l := range s.listings {
		if matches(l, filter) {
			out = append(out, *cloneListing(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateListing(_ context.Context, id primitive.ObjectID, u models.ListingUpdate) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	l.Type = lo.FromPtrOr(u.Type, l.Type)
	l.Brand = lo.FromPtrOr(u.Brand, l.Brand)
	l.Model = lo.FromPtrOr(u.Model, l.Model)
	l.Price = lo.FromPtrOr(u.Price, l.Price)
	l.Year = lo.FromPtrOr(u.Year, l.Year)
	l.Condition = lo.FromPtrOr(u.Condition, l.Condition)
	l.Mileage = lo.FromPtrOr(u.Mileage, l.Mileage)
	l.FuelType = lo.FromPtrOr(u.FuelType, l.FuelType)
	l.Location = lo.FromPtrOr(u.Location, l.Location)
	l.Description = lo.FromPtrOr(u.Description, l.Description)
	if u.Images != nil {
		l.Images = append([]string(nil), (*u.Images)...)
	}
	l.UpdatedAt = s.now()
	return cloneListing(l), nil
}

func (s *Store) DeleteListing(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.listings, id)
	return nil
}

func (s *Store) MarkSold(_ context.Context, id, buyer primitive.ObjectID) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok || l.Kind != models.KindSale {
		return nil, store.ErrNotFound
	}
	if l.IsSold {
		return nil, store.ErrConditionFailed
	}
	l.IsSold = true
	l.Buyer = &buyer
	l.UpdatedAt = s.now()
	return cloneListing(l), nil
}

func (s *Store) MarkRented(_ context.Context, id, buyer primitive.ObjectID, from, to time.Time) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok || l.Kind != models.KindRental {
		return nil, store.ErrNotFound
	}
	if l.IsRented {
		return nil, store.ErrConditionFailed
	}
	l.IsRented = true
	l.Buyer = &buyer
	l.RentedFrom = &from
	l.RentedTo = &to
	l.UpdatedAt = s.now()
	return cloneListing(l), nil
}

func (s *Store) ReleaseRental(_ context.Context, id primitive.ObjectID) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok || l.Kind != models.KindRental {
		return nil, store.ErrNotFound
	}
	l.IsRented = false
	l.Buyer = nil
	l.RentedFrom = nil
	l.RentedTo = nil
	l.UpdatedAt = s.now()
	return cloneListing(l), nil
}

func (s *Store) AddReview(_ context.Context, id primitive.ObjectID, review models.Review) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	l.Reviews = append(l.Reviews, review)
	l.Rating = models.MeanRating(l.Reviews)
	return cloneListing(l), nil
}

func (s *Store) AppendEntries(_ context.Context, entries ...*models.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		s.entries = append(s.entries, *e)
	}
	return nil
}

func (s *Store) ListEntries(_ context.Context, f models.EntryFilter) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := lo.Filter(s.entries, func(e models.LedgerEntry, _ int) bool {
		if f.AccountID != nil && e.AccountID != *f.AccountID {
			return false
		}
		if f.Type != "" && e.Type != f.Type {
			return false
		}
		return f.Status == "" || e.Status == f.Status
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
