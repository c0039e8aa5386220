// Package store persists users, products, carts, orders and coupons in
// MongoDB. An in-memory implementation with the same behaviour backs tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection     = "users"
	addressesCollection = "shipping_addresses"
	productsCollection  = "products"
	cartsCollection     = "carts"
	ordersCollection    = "orders"
	couponsCollection   = "coupons"
)

// ConnectDB opens a client and verifies it with a ping.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// Stores bundles the Mongo repositories of one database.
type Stores struct {
	Users     *UserStore
	Addresses *AddressStore
	Products  *ProductStore
	Carts     *CartStore
	Orders    *OrderStore
	Coupons   *CouponStore
}

// NewStores builds every repository on db.
func NewStores(db *mongo.Database) *Stores {
	return &Stores{
		Users:     &UserStore{coll: db.Collection(usersCollection)},
		Addresses: &AddressStore{coll: db.Collection(addressesCollection)},
		Products:  &ProductStore{coll: db.Collection(productsCollection)},
		Carts:     &CartStore{coll: db.Collection(cartsCollection)},
		Orders:    &OrderStore{coll: db.Collection(ordersCollection)},
		Coupons:   &CouponStore{coll: db.Collection(couponsCollection)},
	}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		addressesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		cartsCollection: {
			// one active cart per user
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "order_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		couponsCollection: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}
