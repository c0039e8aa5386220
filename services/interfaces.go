package services

import (
	"context"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartRepository interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
}

type AddressRepository interface {
	FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.ShippingAddress, error)
}

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// PaymentProvider creates hosted checkout sessions for card orders.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, order *models.Order) (*models.PaymentSession, error)
}

// OrderMailer sends customer notifications about an order.
type OrderMailer interface {
	SendOrderConfirmationEmail(toEmail string, order *models.Order) error
	SendPaymentConfirmedEmail(toEmail string, order *models.Order) error
}

// OrderNotifier pushes an order's current state to clients following the
// order or its owner.
type OrderNotifier interface {
	NotifyOrder(order *models.Order)
}

// EventPublisher sends order lifecycle events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
	PublishDelayed(ctx context.Context, event models.OrderEvent, delay time.Duration) error
}
