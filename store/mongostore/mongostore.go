// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"YourWheels/models"
	"YourWheels/store"
)

type Store struct {
	accounts     *mongo.Collection
	listings     *mongo.Collection
	transactions *mongo.Collection
}

var _ store.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		accounts:     db.Collection(accountsCollection),
		listings:     db.Collection(listingsCollection),
		transactions: db.Collection(transactionsCollection),
	}
}

var (
	withoutPassword = options.FindOne().SetProjection(bson.M{"password": 0})
	returnAfter     = options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(bson.M{"password": 0})
)

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) CreateAccount(ctx context.Context, a *models.Account) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := s.accounts.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) FindAccountByID(ctx context.Context, role models.Role, id primitive.ObjectID) (*models.Account, error) {
	var a models.Account
	err := s.accounts.FindOne(ctx, bson.M{"_id": id, "role": role}, withoutPassword).Decode(&a)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Store) FindAccountByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error) {
	var a models.Account
	err := s.accounts.FindOne(ctx, bson.M{"email": email, "role": role}).Decode(&a)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Store) UpdateAccountProfile(ctx context.Context, role models.Role, id primitive.ObjectID, req models.UpdateAccountRequest) (*models.Account, error) {
	set := bson.M{"updatedAt": time.Now()}
	if req.FirstName != "" {
		set["firstName"] = req.FirstName
	}
	if req.LastName != "" {
		set["lastName"] = req.LastName
	}
	if req.Phone != "" {
		set["phone"] = req.Phone
	}

	var a models.Account
	err := s.accounts.FindOneAndUpdate(ctx, bson.M{"_id": id, "role": role}, bson.M{"$set": set}, returnAfter).Decode(&a)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (s *Store) updateAccount(ctx context.Context, role models.Role, id primitive.ObjectID, update bson.M) error {
	res, err := s.accounts.UpdateOne(ctx, bson.M{"_id": id, "role": role}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetGoogleID(ctx context.Context, role models.Role, id primitive.ObjectID, googleID string) error {
	return s.updateAccount(ctx, role, id, bson.M{"$set": bson.M{"googleId": googleID, "updatedAt": time.Now()}})
}

// SetMembership writes flag and plan together so they never disagree.
func (s *Store) SetMembership(ctx context.Context, role models.Role, id primitive.ObjectID, isMember bool, plan models.MembershipPlan) error {
	update := bson.M{
		"$set": bson.M{"isMember": true, "membershipPlan": plan, "updatedAt": time.Now()},
	}
	if !isMember {
		update = bson.M{
			"$set":   bson.M{"isMember": false, "updatedAt": time.Now()},
			"$unset": bson.M{"membershipPlan": ""},
		}
	}
	return s.updateAccount(ctx, role, id, update)
}

func (s *Store) ListAccounts(ctx context.Context, role models.Role) ([]models.Account, error) {
	opts := options.Find().SetProjection(bson.M{"password": 0}).SetSort(bson.M{"createdAt": 1})
	cursor, err := s.accounts.Find(ctx, bson.M{"role": role}, opts)
	if err != nil {
		return nil, err
	}
	accounts := make([]models.Account, 0)
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) DeleteAccount(ctx context.Context, role models.Role, id primitive.ObjectID) error {
	res, err := s.accounts.DeleteOne(ctx, bson.M{"_id": id, "role": role})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateListing(ctx context.Context, l *models.Listing) error {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.Images == nil {
		l.Images = []string{}
	}
	if l.Reviews == nil {
		l.Reviews = []models.Review{}
	}
	_, err := s.listings.InsertOne(ctx, l)
	return err
}

func (s *Store) FindListing(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	var l models.Listing
	if err := s.listings.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func listingQuery(f models.ListingFilter) bson.M {
	q := bson.M{}
	if f.Kind != "" {
		q["kind"] = f.Kind
	}
	if f.Seller != nil {
		q["seller"] = *f.Seller
	}
	if f.Buyer != nil {
		q["buyer"] = *f.Buyer
	}
	if f.IsSold != nil {
		q["isSold"] = *f.IsSold
	}
	if f.IsRented != nil {
		q["isRented"] = *f.IsRented
	}
	return q
}

func (s *Store) ListListings(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := s.listings.Find(ctx, listingQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	listings := make([]models.Listing, 0)
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

var listingAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (s *Store) UpdateListing(ctx context.Context, id primitive.ObjectID, u models.ListingUpdate) (*models.Listing, error) {
	set, err := bson.Marshal(u)
	if err != nil {
		return nil, err
	}
	var fields bson.M
	if err := bson.Unmarshal(set, &fields); err != nil {
		return nil, err
	}
	fields["updatedAt"] = time.Now()

	var l models.Listing
	err = s.listings.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, listingAfter).Decode(&l)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (s *Store) DeleteListing(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.listings.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// occupy runs a guarded update; when nothing matched it tells a missing
// listing apart from one whose guard failed.
func (s *Store) occupy(ctx context.Context, id primitive.ObjectID, kind models.ListingKind, guard string, set bson.M) (*models.Listing, error) {
	filter := bson.M{"_id": id, "kind": kind, guard: false}
	var l models.Listing
	err := s.listings.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, listingAfter).Decode(&l)
	if err == nil {
		return &l, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	n, err := s.listings.CountDocuments(ctx, bson.M{"_id": id, "kind": kind})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return nil, store.ErrConditionFailed
}

func (s *Store) MarkSold(ctx context.Context, id, buyer primitive.ObjectID) (*models.Listing, error) {
	return s.occupy(ctx, id, models.KindSale, "isSold", bson.M{
		"isSold":    true,
		"buyer":     buyer,
		"updatedAt": time.Now(),
	})
}

func (s *Store) MarkRented(ctx context.Context, id, buyer primitive.ObjectID, from, to time.Time) (*models.Listing, error) {
	return s.occupy(ctx, id, models.KindRental, "isRented", bson.M{
		"isRented":   true,
		"buyer":      buyer,
		"rentedFrom": from,
		"rentedTo":   to,
		"updatedAt":  time.Now(),
	})
}

func (s *Store) ReleaseRental(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	update := bson.M{
		"$set":   bson.M{"isRented": false, "updatedAt": time.Now()},
		"$unset": bson.M{"buyer": "", "rentedFrom": "", "rentedTo": ""},
	}
	var l models.Listing
	err := s.listings.FindOneAndUpdate(ctx, bson.M{"_id": id, "kind": models.KindRental}, update, listingAfter).Decode(&l)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// AddReview appends and recomputes the mean in one pipeline update, so the
// rating can never drift from the review list. The review is wrapped in
// $literal because comments may start with '$'.
func (s *Store) AddReview(ctx context.Context, id primitive.ObjectID, review models.Review) (*models.Listing, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.A{bson.M{"$literal": review}},
			}},
		}}},
		{{Key: "$set", Value: bson.M{
			"rating": bson.M{"$ifNull": bson.A{bson.M{"$avg": "$reviews.rating"}, 0}},
		}}},
	}
	var l models.Listing
	err := s.listings.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, listingAfter).Decode(&l)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

func (s *Store) AppendEntries(ctx context.Context, entries ...*models.LedgerEntry) error {
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		docs = append(docs, e)
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := s.transactions.InsertMany(ctx, docs)
	return err
}

func (s *Store) ListEntries(ctx context.Context, f models.EntryFilter) ([]models.LedgerEntry, error) {
	q := bson.M{}
	if f.AccountID != nil {
		q["accountId"] = *f.AccountID
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	cursor, err := s.transactions.Find(ctx, q, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	entries := make([]models.LedgerEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
