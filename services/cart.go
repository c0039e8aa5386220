package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/pricing"
	"github.com/RahulGosh/ecommerce-sub000/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxCartAttempts bounds the load-modify-save retries on a version conflict.
const maxCartAttempts = 3

// CartService owns the per-user cart and keeps its totals consistent with
// its lines after every mutation.
type CartService struct {
	carts    CartRepository
	products ProductRepository
	log      *zap.Logger
	now      func() time.Time
}

func NewCartService(carts CartRepository, products ProductRepository, log *zap.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		log:      log,
		now:      time.Now,
	}
}

// AddItem adds one unit of (productID, size) to the user's cart, creating
// the cart on first use. The product's name, price and first image are
// copied onto a new line.
func (s *CartService) AddItem(ctx context.Context, userID, productID primitive.ObjectID, size string) (*models.Cart, error) {
	if size == "" {
		return nil, Validation(ErrMsgSizeRequired)
	}
	product, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound(ErrMsgProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if !product.HasSize(size) {
		return nil, Validation(ErrMsgInvalidSize)
	}

	return s.mutate(ctx, userID, true, func(cart *models.Cart) error {
		if i := cart.FindItem(productID, size); i >= 0 {
			cart.Items[i].Quantity++
			return nil
		}
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Size:      size,
			Quantity:  1,
			Price:     product.Price,
			Image:     product.ImageURL(),
			AddedAt:   s.now(),
		})
		return nil
	})
}

// UpdateItem sets the quantity of an existing line. A nil or non-positive
// quantity is rejected; use RemoveItem to drop a line.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID primitive.ObjectID, size string, quantity *int) (*models.Cart, error) {
	if quantity == nil || *quantity < 1 {
		return nil, Validation(ErrMsgInvalidQuantity)
	}
	return s.mutate(ctx, userID, false, func(cart *models.Cart) error {
		i := cart.FindItem(productID, size)
		if i < 0 {
			return NotFound(ErrMsgItemNotFound)
		}
		cart.Items[i].Quantity = *quantity
		return nil
	})
}

// RemoveItem drops the (productID, size) line. An empty size drops every
// line of the product. Removing nothing leaves the cart untouched.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID, size string) (*models.Cart, error) {
	return s.mutate(ctx, userID, false, func(cart *models.Cart) error {
		kept := make([]models.CartItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.ProductID == productID && (size == "" || item.Size == size) {
				continue
			}
			kept = append(kept, item)
		}
		if len(kept) == len(cart.Items) {
			return NotFound(ErrMsgItemNotFound)
		}
		cart.Items = kept
		return nil
	})
}

// GetCart returns the user's cart, or an empty unsaved cart if they have none.
func (s *CartService) GetCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.NewCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// mutate runs fn against a freshly loaded cart, recomputes its totals and
// saves it, retrying when another writer got there first.
func (s *CartService) mutate(ctx context.Context, userID primitive.ObjectID, create bool, fn func(*models.Cart) error) (*models.Cart, error) {
	for attempt := 1; attempt <= maxCartAttempts; attempt++ {
		cart, err := s.carts.FindByUser(ctx, userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if !create {
				return nil, NotFound(ErrMsgCartNotFound)
			}
			cart = models.NewCart(userID)
			cart.CreatedAt = s.now()
		case err != nil:
			return nil, fmt.Errorf("load cart: %w", err)
		}

		if err := fn(cart); err != nil {
			return nil, err
		}
		Recalculate(cart)
		cart.UpdatedAt = s.now()

		err = s.carts.Save(ctx, cart)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		s.log.Debug("cart version conflict",
			zap.String("user_id", userID.Hex()),
			zap.Int("attempt", attempt))
	}
	return nil, Conflict(ErrMsgCartBusy)
}

// Recalculate rewrites the cart's quantity and money fields from its lines.
func Recalculate(cart *models.Cart) {
	totals := pricing.Compute(cartLines(cart.Items))
	cart.Quantity = totals.Quantity
	cart.ItemsPrice = pricing.Float(totals.ItemsPrice)
	cart.TaxPrice = pricing.Float(totals.TaxPrice)
	cart.ShippingPrice = pricing.Float(totals.ShippingPrice)
	cart.TotalPrice = pricing.Float(totals.TotalPrice)
}

func cartLines(items []models.CartItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{
			UnitPrice: pricing.FromFloat(item.Price),
			Quantity:  item.Quantity,
		})
	}
	return lines
}
