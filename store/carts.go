package store

import (
	"context"
	"errors"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CartStore persists carts, one per user.
type CartStore struct {
	coll *mongo.Collection
}

// FindByUser returns the user's cart or ErrNotFound.
func (s *CartStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	if err := s.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart); err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

// Save inserts a new cart or replaces an existing one if its version is
// unchanged since it was read. On success cart.Version is advanced.
func (s *CartStore) Save(ctx context.Context, cart *models.Cart) error {
	if cart.ID.IsZero() {
		next := cart.Clone()
		next.ID = primitive.NewObjectID()
		next.Version = 1
		if _, err := s.coll.InsertOne(ctx, next); err != nil {
			if errors.Is(translate(err), ErrDuplicate) {
				// another request created this user's cart first
				return ErrVersionConflict
			}
			return err
		}
		cart.ID, cart.Version = next.ID, next.Version
		return nil
	}

	next := cart.Clone()
	next.Version = cart.Version + 1
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": cart.ID, "version": cart.Version}, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	cart.Version = next.Version
	return nil
}
