package store

import (
	"context"
	"testing"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestCartStore_Mongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by user returns not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecommerce.carts", mtest.FirstBatch))
		s := &CartStore{coll: mt.Coll}

		_, err := s.FindByUser(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("find by user decodes cart", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "ecommerce.carts", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "user_id", Value: userID},
			{Key: "quantity", Value: 2},
			{Key: "items_price", Value: 1200.0},
			{Key: "version", Value: int64(4)},
		}))
		s := &CartStore{coll: mt.Coll}

		cart, err := s.FindByUser(context.Background(), userID)
		require.NoError(mt, err)
		assert.Equal(mt, userID, cart.UserID)
		assert.Equal(mt, 2, cart.Quantity)
		assert.Equal(mt, 1200.0, cart.ItemsPrice)
		assert.Equal(mt, int64(4), cart.Version)
	})

	mt.Run("save inserts new cart at version one", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		s := &CartStore{coll: mt.Coll}
		cart := models.NewCart(primitive.NewObjectID())

		require.NoError(mt, s.Save(context.Background(), cart))
		assert.False(mt, cart.ID.IsZero())
		assert.Equal(mt, int64(1), cart.Version)
	})

	mt.Run("save of duplicate user cart is a conflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		s := &CartStore{coll: mt.Coll}

		err := s.Save(context.Background(), models.NewCart(primitive.NewObjectID()))
		assert.ErrorIs(mt, err, ErrVersionConflict)
	})

	mt.Run("save with stale version is a conflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		s := &CartStore{coll: mt.Coll}
		cart := models.NewCart(primitive.NewObjectID())
		cart.ID = primitive.NewObjectID()
		cart.Version = 3

		err := s.Save(context.Background(), cart)
		assert.ErrorIs(mt, err, ErrVersionConflict)
		assert.Equal(mt, int64(3), cart.Version)
	})

	mt.Run("save advances version", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		s := &CartStore{coll: mt.Coll}
		cart := models.NewCart(primitive.NewObjectID())
		cart.ID = primitive.NewObjectID()
		cart.Version = 3

		require.NoError(mt, s.Save(context.Background(), cart))
		assert.Equal(mt, int64(4), cart.Version)
	})
}

func TestOrderStore_Mongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create starts at version one", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		s := &OrderStore{coll: mt.Coll}
		order := &models.Order{Version: 7}

		require.NoError(mt, s.Create(context.Background(), order))
		assert.False(mt, order.ID.IsZero())
		assert.Equal(mt, int64(1), order.Version)
	})

	mt.Run("update with stale version is a conflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		s := &OrderStore{coll: mt.Coll}
		order := &models.Order{ID: primitive.NewObjectID(), Version: 2}

		err := s.Update(context.Background(), order)
		assert.ErrorIs(mt, err, ErrVersionConflict)
		assert.Equal(mt, int64(2), order.Version)
	})

	mt.Run("update advances version", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		s := &OrderStore{coll: mt.Coll}
		order := &models.Order{ID: primitive.NewObjectID(), Version: 2}

		require.NoError(mt, s.Update(context.Background(), order))
		assert.Equal(mt, int64(3), order.Version)
	})

	mt.Run("list by user decodes every batch document", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		first := mtest.CreateCursorResponse(1, "ecommerce.orders", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "user_id", Value: userID},
			{Key: "payment_method", Value: "COD"},
		})
		second := mtest.CreateCursorResponse(0, "ecommerce.orders", mtest.NextBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "user_id", Value: userID},
			{Key: "payment_method", Value: "Stripe"},
		})
		mt.AddMockResponses(first, second)
		s := &OrderStore{coll: mt.Coll}

		orders, err := s.ListByUser(context.Background(), userID)
		require.NoError(mt, err)
		require.Len(mt, orders, 2)
		assert.Equal(mt, models.PaymentMethodCOD, orders[0].PaymentMethod)
		assert.Equal(mt, models.PaymentMethodStripe, orders[1].PaymentMethod)
	})
}
