package services

import (
	"context"
	"testing"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestAddItemCreatesCartAndPricesIt(t *testing.T) {
	f := newFixture(t)

	cart := f.add(t, f.shirt, "M", 1)

	require.Len(t, cart.Items, 1)
	item := cart.Items[0]
	assert.Equal(t, "Linen Shirt", item.Name)
	assert.Equal(t, 1000.0, item.Price)
	assert.Equal(t, "https://cdn.test/shirt.jpg", item.Image)
	assert.Equal(t, 1, item.Quantity)

	assert.Equal(t, 1, cart.Quantity)
	assert.Equal(t, 1000.0, cart.ItemsPrice)
	assert.Equal(t, 300.0, cart.TaxPrice)
	assert.Equal(t, 150.0, cart.ShippingPrice)
	assert.Equal(t, 1450.0, cart.TotalPrice)
	assert.Equal(t, int64(1), f.storedCart(t).Version)
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	f := newFixture(t)

	f.add(t, f.shirt, "M", 2)
	cart := f.add(t, f.shirt, "L", 1)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 2, cart.Items[cart.FindItem(f.shirt.ID, "M")].Quantity)
	assert.Equal(t, 1, cart.Items[cart.FindItem(f.shirt.ID, "L")].Quantity)
	assert.Equal(t, 3, cart.Quantity)
	assert.Equal(t, 250.0, cart.ShippingPrice)
}

func TestAddItemLocksPriceAtAddTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.shirt, "M", 1)

	f.shirt.Price = 1999
	require.NoError(t, f.mem.Products.Update(ctx, &f.shirt))

	cart := f.add(t, f.shirt, "M", 1)
	assert.Equal(t, 1000.0, cart.Items[0].Price)
	assert.Equal(t, 2000.0, cart.ItemsPrice)

	viewed, err := f.carts.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, viewed.Items[0].Price)
}

func TestAddItemRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, f.user.ID, f.shirt.ID, "")
	requireKind(t, err, KindValidation)

	_, err = f.carts.AddItem(ctx, f.user.ID, f.shirt.ID, "XXL")
	requireKind(t, err, KindValidation)

	_, err = f.carts.AddItem(ctx, f.user.ID, primitive.NewObjectID(), "M")
	requireKind(t, err, KindNotFound)

	_, err = f.mem.Carts.FindByUser(ctx, f.user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.shirt, "M", 1)

	cart, err := f.carts.UpdateItem(ctx, f.user.ID, f.shirt.ID, "M", intPtr(6))
	require.NoError(t, err)
	assert.Equal(t, 6, cart.Quantity)
	assert.Equal(t, 6000.0, cart.ItemsPrice)
	assert.Equal(t, 0.0, cart.ShippingPrice)

	// An empty size matches the product's first line.
	cart, err = f.carts.UpdateItem(ctx, f.user.ID, f.shirt.ID, "", intPtr(2))
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 150.0, cart.ShippingPrice)
}

func TestUpdateItemRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.UpdateItem(ctx, f.user.ID, f.shirt.ID, "M", intPtr(1))
	requireKind(t, err, KindNotFound)

	f.add(t, f.shirt, "M", 1)
	for _, q := range []*int{nil, intPtr(0), intPtr(-3)} {
		_, err = f.carts.UpdateItem(ctx, f.user.ID, f.shirt.ID, "M", q)
		requireKind(t, err, KindValidation)
	}

	_, err = f.carts.UpdateItem(ctx, f.user.ID, f.shirt.ID, "L", intPtr(2))
	requireKind(t, err, KindNotFound)
	assert.Equal(t, 1, f.storedCart(t).Quantity)
}

func TestAddThenRemoveZeroesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.shirt, "M", 1)

	cart, err := f.carts.RemoveItem(ctx, f.user.ID, f.shirt.ID, "M")
	require.NoError(t, err)

	assert.Empty(t, cart.Items)
	assert.NotNil(t, cart.Items)
	assert.Zero(t, cart.Quantity)
	assert.Zero(t, cart.ItemsPrice)
	assert.Zero(t, cart.TaxPrice)
	assert.Zero(t, cart.ShippingPrice)
	assert.Zero(t, cart.TotalPrice)
}

func TestRemoveMissingLineLeavesCartUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.shirt, "M", 2)
	before := f.storedCart(t)

	_, err := f.carts.RemoveItem(ctx, f.user.ID, f.shirt.ID, "L")
	requireKind(t, err, KindNotFound)
	_, err = f.carts.RemoveItem(ctx, f.user.ID, f.jeans.ID, "")
	requireKind(t, err, KindNotFound)

	assert.Equal(t, before, f.storedCart(t))
}

func TestRemoveWithoutSizeDropsEveryLineOfProduct(t *testing.T) {
	f := newFixture(t)
	f.add(t, f.shirt, "M", 1)
	f.add(t, f.shirt, "L", 1)
	f.add(t, f.jeans, "32", 1)

	cart, err := f.carts.RemoveItem(context.Background(), f.user.ID, f.shirt.ID, "")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, f.jeans.ID, cart.Items[0].ProductID)
	assert.Equal(t, 2500.0, cart.ItemsPrice)
}

func TestGetCartWithoutCart(t *testing.T) {
	f := newFixture(t)

	cart, err := f.carts.GetCart(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, f.user.ID, cart.UserID)
	assert.Zero(t, cart.TotalPrice)
}

func TestCartMutationRetriesAfterConcurrentWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.shirt, "M", 1)

	racing := &racingCarts{
		MemoryCarts: f.mem.Carts,
		races:       1,
		intrude: func(carts *store.MemoryCarts) {
			other := NewCartService(carts, f.mem.Products, zap.NewNop())
			_, err := other.AddItem(ctx, f.user.ID, f.jeans.ID, "34")
			require.NoError(t, err)
		},
	}
	svc := NewCartService(racing, f.mem.Products, zap.NewNop())

	cart, err := svc.AddItem(ctx, f.user.ID, f.shirt.ID, "M")
	require.NoError(t, err)

	assert.Equal(t, 3, cart.Quantity)
	assert.Equal(t, 2, cart.Items[cart.FindItem(f.shirt.ID, "M")].Quantity)
	assert.GreaterOrEqual(t, cart.FindItem(f.jeans.ID, "34"), 0)
	assert.Equal(t, 4500.0, cart.ItemsPrice)
}

func TestCartMutationGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, f.shirt, "M", 1)

	racing := &racingCarts{
		MemoryCarts: f.mem.Carts,
		races:       maxCartAttempts,
		intrude: func(carts *store.MemoryCarts) {
			cart, err := carts.FindByUser(ctx, f.user.ID)
			require.NoError(t, err)
			require.NoError(t, carts.Save(ctx, cart))
		},
	}
	svc := NewCartService(racing, f.mem.Products, zap.NewNop())

	_, err := svc.AddItem(ctx, f.user.ID, f.shirt.ID, "M")
	requireKind(t, err, KindStateConflict)
	assert.Equal(t, 1, f.storedCart(t).Quantity)
}

func TestRecalculateEmptyCart(t *testing.T) {
	cart := &models.Cart{Quantity: 4, ItemsPrice: 10, TaxPrice: 3, ShippingPrice: 250, TotalPrice: 263}
	Recalculate(cart)
	assert.Zero(t, cart.Quantity)
	assert.Zero(t, cart.ShippingPrice)
	assert.Zero(t, cart.TotalPrice)
}
