package store

import (
	"context"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserStore persists accounts.
type UserStore struct {
	coll *mongo.Collection
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, user)
	return translate(err)
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) FindByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"verification_token": token})
}

// MarkVerified flags the account verified and clears its token.
func (s *UserStore) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"is_verified":        true,
			"verification_token": "",
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// AddressStore persists saved shipping addresses.
type AddressStore struct {
	coll *mongo.Collection
}

func (s *AddressStore) Create(ctx context.Context, address *models.ShippingAddress) error {
	if address.ID.IsZero() {
		address.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, address)
	return translate(err)
}

// FindForUser returns the address only if it belongs to userID.
func (s *AddressStore) FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.ShippingAddress, error) {
	var address models.ShippingAddress
	if err := s.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&address); err != nil {
		return nil, translate(err)
	}
	return &address, nil
}

func (s *AddressStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ShippingAddress, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID}, newestFirst())
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	addresses := []models.ShippingAddress{}
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}
