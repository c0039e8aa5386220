package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string
type PaymentStatus string
type ShippingStatus string
type CheckoutStatus string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodStripe PaymentMethod = "Stripe"

	PaymentStatusUnpaid PaymentStatus = "Unpaid"
	PaymentStatusPaid   PaymentStatus = "Paid"

	ShippingOrderPlaced    ShippingStatus = "Order Placed"
	ShippingPacking        ShippingStatus = "Packing"
	ShippingShipped        ShippingStatus = "Shipped"
	ShippingOutForDelivery ShippingStatus = "Out for delivery"
	ShippingDelivered      ShippingStatus = "Delivered"

	// Checkout lifecycle: Created -> AwaitingPayment -> Confirmed | Abandoned.
	// Cash-on-delivery orders go straight from Created to Confirmed.
	CheckoutCreated         CheckoutStatus = "Created"
	CheckoutAwaitingPayment CheckoutStatus = "AwaitingPayment"
	CheckoutConfirmed       CheckoutStatus = "Confirmed"
	CheckoutAbandoned       CheckoutStatus = "Abandoned"
)

// ShippingStatuses lists the fulfillment progression in order.
var ShippingStatuses = []ShippingStatus{
	ShippingOrderPlaced,
	ShippingPacking,
	ShippingShipped,
	ShippingOutForDelivery,
	ShippingDelivered,
}

// OrderItem is a copy of a cart line taken at checkout.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Name      string             `bson:"name" json:"name"`
	Size      string             `bson:"size" json:"size"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Image     string             `bson:"image" json:"image"`
}

// Order represents a user's order
type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrderNumber      string             `bson:"order_number" json:"order_number"`
	UserID           primitive.ObjectID `bson:"user_id" json:"user_id"`
	Items            []OrderItem        `bson:"items" json:"items"`
	Address          ShippingAddress    `bson:"address" json:"address"`
	ItemsPrice       float64            `bson:"items_price" json:"items_price"`
	TaxPrice         float64            `bson:"tax_price" json:"tax_price"`
	ShippingPrice    float64            `bson:"shipping_price" json:"shipping_price"`
	DiscountPrice    float64            `bson:"discount_price" json:"discount_price"`
	TotalPrice       float64            `bson:"total_price" json:"total_price"`
	CouponCode       string             `bson:"coupon_code,omitempty" json:"coupon_code,omitempty"`
	PaymentMethod    PaymentMethod      `bson:"payment_method" json:"payment_method"`
	PaymentStatus    PaymentStatus      `bson:"payment_status" json:"payment_status"`
	ShippingStatus   ShippingStatus     `bson:"shipping_status" json:"shipping_status"`
	CheckoutStatus   CheckoutStatus     `bson:"checkout_status" json:"checkout_status"`
	PaymentSessionID string             `bson:"payment_session_id,omitempty" json:"-"`
	Version          int64              `bson:"version" json:"-"`
	PaidAt           *time.Time         `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	DeliveredAt      *time.Time         `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	out := *o
	out.Items = append([]OrderItem(nil), o.Items...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		out.PaidAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		out.DeliveredAt = &t
	}
	return &out
}

// OrderEvent is published to the message broker on order lifecycle changes.
type OrderEvent struct {
	OrderID  string    `json:"order_id"`
	UserID   string    `json:"user_id"`
	Type     string    `json:"type"`
	Status   string    `json:"status"`
	Total    float64   `json:"total"`
	Occurred time.Time `json:"occurred"`
}

const (
	EventOrderCreated      = "created"
	EventStatusUpdated     = "status_updated"
	EventPaymentConfirmed  = "payment_confirmed"
	EventCheckoutAbandoned = "checkout_abandoned"
	EventPaymentCheck      = "payment_check"
)
