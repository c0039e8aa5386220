package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem represents an item in the cart. Name, price and image are copied
// from the product when the line is first added and are not re-synced.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Name      string             `bson:"name" json:"name"`
	Size      string             `bson:"size" json:"size"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Image     string             `bson:"image" json:"image"`
	AddedAt   time.Time          `bson:"added_at" json:"added_at"`
}

// Cart represents a user's shopping cart
type Cart struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Items         []CartItem          `bson:"items" json:"items"`
	Quantity      int                 `bson:"quantity" json:"quantity"`
	ItemsPrice    float64             `bson:"items_price" json:"items_price"`
	TaxPrice      float64             `bson:"tax_price" json:"tax_price"`
	ShippingPrice float64             `bson:"shipping_price" json:"shipping_price"`
	TotalPrice    float64             `bson:"total_price" json:"total_price"`
	PendingOrder  *primitive.ObjectID `bson:"pending_order_id,omitempty" json:"pending_order_id,omitempty"`
	Version       int64               `bson:"version" json:"-"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
}

// NewCart returns an empty, unsaved cart for userID.
func NewCart(userID primitive.ObjectID) *Cart {
	return &Cart{
		UserID: userID,
		Items:  []CartItem{},
	}
}

// FindItem returns the index of the (productID, size) line, or -1. An empty
// size matches the first line of the product.
func (c *Cart) FindItem(productID primitive.ObjectID, size string) int {
	for i, item := range c.Items {
		if item.ProductID != productID {
			continue
		}
		if size == "" || item.Size == size {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// HasPendingCheckout reports whether an order is currently claiming this cart.
func (c *Cart) HasPendingCheckout() bool {
	return c.PendingOrder != nil
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = append([]CartItem(nil), c.Items...)
	if c.PendingOrder != nil {
		id := *c.PendingOrder
		out.PendingOrder = &id
	}
	return &out
}
