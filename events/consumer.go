package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/services"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CheckoutAbandoner gives up on checkouts that were never paid.
type CheckoutAbandoner interface {
	AbandonCheckout(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error)
}

// Consumer handles order events delivered from the broker.
type Consumer struct {
	abandoner CheckoutAbandoner
	log       *zap.Logger
	timeout   time.Duration
}

func NewConsumer(abandoner CheckoutAbandoner, log *zap.Logger) *Consumer {
	return &Consumer{
		abandoner: abandoner,
		log:       log,
		timeout:   10 * time.Second,
	}
}

// HandleDelivery processes one order event. Undecodable messages are dead
// lettered; a failed payment check is retried once before it is.
func (c *Consumer) HandleDelivery(ctx context.Context, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("recovered from panic in message processing", zap.Any("panic", r))
			c.nack(msg, false)
		}
	}()

	var event models.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.log.Warn("invalid order event", zap.ByteString("body", msg.Body), zap.Error(err))
		c.nack(msg, false)
		return
	}

	log := c.log.With(zap.String("order_id", event.OrderID), zap.String("type", event.Type))
	switch event.Type {
	case models.EventPaymentCheck:
		if err := c.paymentCheck(ctx, event); err != nil {
			log.Error("payment check failed", zap.Error(err))
			c.nack(msg, !msg.Redelivered)
			return
		}
	case models.EventOrderCreated, models.EventStatusUpdated, models.EventPaymentConfirmed, models.EventCheckoutAbandoned:
		log.Info("order event", zap.String("status", event.Status), zap.Float64("total", event.Total))
	default:
		log.Warn("unknown order event type")
	}

	if err := msg.Ack(false); err != nil {
		log.Error("failed to ack order event", zap.Error(err))
	}
}

// paymentCheck abandons the order if it is still waiting for payment.
func (c *Consumer) paymentCheck(ctx context.Context, event models.OrderEvent) error {
	orderID, err := primitive.ObjectIDFromHex(event.OrderID)
	if err != nil {
		c.log.Warn("payment check for invalid order id", zap.String("order_id", event.OrderID))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	order, err := c.abandoner.AbandonCheckout(ctx, orderID)
	if kind, ok := services.KindOf(err); ok && kind == services.KindNotFound {
		c.log.Warn("payment check for missing order", zap.String("order_id", event.OrderID))
		return nil
	}
	if err != nil {
		return err
	}
	c.log.Info("payment check done",
		zap.String("order_id", event.OrderID),
		zap.String("checkout_status", string(order.CheckoutStatus)))
	return nil
}

// HandleDeadLetter records a message that could not be processed.
func (c *Consumer) HandleDeadLetter(msg amqp.Delivery) {
	c.log.Error("received dead letter",
		zap.String("type", msg.Type),
		zap.ByteString("body", msg.Body))
	if err := msg.Ack(false); err != nil {
		c.log.Error("failed to ack dead letter", zap.Error(err))
	}
}

func (c *Consumer) nack(msg amqp.Delivery, requeue bool) {
	if err := msg.Nack(false, requeue); err != nil {
		c.log.Error("failed to nack order event", zap.Error(err))
	}
}
