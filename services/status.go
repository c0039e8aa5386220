package services

import (
	"context"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// shippingTransitions lists the statuses each shipping status may move to.
// Fulfillment only moves forward, though steps may be skipped.
var shippingTransitions = map[models.ShippingStatus][]models.ShippingStatus{
	models.ShippingOrderPlaced:    {models.ShippingPacking, models.ShippingShipped, models.ShippingOutForDelivery, models.ShippingDelivered},
	models.ShippingPacking:        {models.ShippingShipped, models.ShippingOutForDelivery, models.ShippingDelivered},
	models.ShippingShipped:        {models.ShippingOutForDelivery, models.ShippingDelivered},
	models.ShippingOutForDelivery: {models.ShippingDelivered},
	models.ShippingDelivered:      {},
}

// ParseShippingStatus returns the shipping status named by s.
func ParseShippingStatus(s string) (models.ShippingStatus, bool) {
	for _, status := range models.ShippingStatuses {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}

// CanTransition reports whether an order may move from one shipping status
// to another.
func CanTransition(from, to models.ShippingStatus) bool {
	for _, next := range shippingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SetShippingStatus moves a confirmed order along the fulfillment sequence.
func (s *OrderService) SetShippingStatus(ctx context.Context, orderID primitive.ObjectID, status string) (*models.Order, error) {
	next, ok := ParseShippingStatus(status)
	if !ok {
		return nil, Validation(ErrMsgInvalidShipping)
	}
	order, _, err := s.updateOrder(ctx, orderID, func(order *models.Order) (bool, error) {
		if order.CheckoutStatus != models.CheckoutConfirmed {
			return false, Conflict(ErrMsgOrderNotConfirmed)
		}
		if !CanTransition(order.ShippingStatus, next) {
			return false, Conflictf(ErrMsgInvalidTransition, order.ShippingStatus, next)
		}
		now := s.now()
		order.ShippingStatus = next
		if next == models.ShippingDelivered {
			order.DeliveredAt = &now
		}
		order.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("shipping status updated",
		zap.String("order_id", orderID.Hex()),
		zap.String("status", string(next)))
	s.announce(ctx, order, models.EventStatusUpdated)
	return order, nil
}

// SetCODPaymentStatus records payment for a cash on delivery order. Paying
// marks the order delivered; card orders are settled through the payment
// provider instead.
func (s *OrderService) SetCODPaymentStatus(ctx context.Context, orderID primitive.ObjectID, status string) (*models.Order, error) {
	paid := models.PaymentStatus(status)
	if paid != models.PaymentStatusPaid && paid != models.PaymentStatusUnpaid {
		return nil, Validation(ErrMsgInvalidPayment)
	}
	order, _, err := s.updateOrder(ctx, orderID, func(order *models.Order) (bool, error) {
		if order.PaymentMethod != models.PaymentMethodCOD {
			return false, Conflict(ErrMsgNotCashOnDelivery)
		}
		now := s.now()
		order.PaymentStatus = paid
		if paid == models.PaymentStatusPaid {
			order.PaidAt = &now
			order.ShippingStatus = models.ShippingDelivered
			order.DeliveredAt = &now
		} else {
			order.PaidAt = nil
		}
		order.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment status updated",
		zap.String("order_id", orderID.Hex()),
		zap.String("status", status))
	s.announce(ctx, order, models.EventStatusUpdated)
	return order, nil
}
