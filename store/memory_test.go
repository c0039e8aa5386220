package store

import (
	"context"
	"testing"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryCarts_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	carts := NewMemory().Carts
	userID := primitive.NewObjectID()

	cart := models.NewCart(userID)
	require.NoError(t, carts.Save(ctx, cart))
	assert.Equal(t, int64(1), cart.Version)

	// a second lazily created cart for the same user loses
	assert.ErrorIs(t, carts.Save(ctx, models.NewCart(userID)), ErrVersionConflict)

	stale, err := carts.FindByUser(ctx, userID)
	require.NoError(t, err)

	cart.Quantity = 1
	require.NoError(t, carts.Save(ctx, cart))
	assert.Equal(t, int64(2), cart.Version)

	stale.Quantity = 7
	assert.ErrorIs(t, carts.Save(ctx, stale), ErrVersionConflict)

	stored, err := carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Quantity)
}

func TestMemoryOrders_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	orders := NewMemory().Orders

	order := &models.Order{UserID: primitive.NewObjectID(), CheckoutStatus: models.CheckoutCreated}
	require.NoError(t, orders.Create(ctx, order))
	assert.Equal(t, int64(1), order.Version)

	stale, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)

	order.CheckoutStatus = models.CheckoutConfirmed
	require.NoError(t, orders.Update(ctx, order))
	assert.Equal(t, int64(2), order.Version)

	stale.CheckoutStatus = models.CheckoutAbandoned
	assert.ErrorIs(t, orders.Update(ctx, stale), ErrVersionConflict)

	stored, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, stored.CheckoutStatus)

	missing := &models.Order{ID: primitive.NewObjectID(), Version: 1}
	assert.ErrorIs(t, orders.Update(ctx, missing), ErrVersionConflict)
}

func TestMemoryCarts_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	carts := NewMemory().Carts
	userID := primitive.NewObjectID()

	cart := models.NewCart(userID)
	cart.Items = append(cart.Items, models.CartItem{Name: "Tee", Quantity: 1})
	require.NoError(t, carts.Save(ctx, cart))

	loaded, err := carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	loaded.Items[0].Quantity = 99

	again, err := carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestMemoryAddresses_FindForUserChecksOwner(t *testing.T) {
	ctx := context.Background()
	addresses := NewMemory().Addresses
	owner := primitive.NewObjectID()

	address := &models.ShippingAddress{UserID: owner, City: "Pune"}
	require.NoError(t, addresses.Create(ctx, address))

	_, err := addresses.FindForUser(ctx, address.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := addresses.FindForUser(ctx, address.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Pune", found.City)
}

func TestMemoryCoupons_CodeIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	coupons := NewMemory().Coupons

	require.NoError(t, coupons.Create(ctx, &models.Coupon{Code: "welcome10", Type: models.CouponPercentage, Value: 10}))
	assert.ErrorIs(t, coupons.Create(ctx, &models.Coupon{Code: "WELCOME10"}), ErrDuplicate)

	found, err := coupons.FindByCode(ctx, "Welcome10")
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", found.Code)
}
