package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentSession is a hosted checkout session created with the payment provider.
type PaymentSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

// Coupon is a discount code redeemable at checkout.
type Coupon struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code      string             `bson:"code" json:"code"`
	Type      CouponType         `bson:"type" json:"type"`
	Value     float64            `bson:"value" json:"value"`
	MinOrder  float64            `bson:"min_order" json:"min_order"`
	Active    bool               `bson:"active" json:"active"`
	ExpiresAt *time.Time         `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Usable reports whether the coupon can be redeemed at now.
func (c *Coupon) Usable(now time.Time) bool {
	if !c.Active {
		return false
	}
	return c.ExpiresAt == nil || now.Before(*c.ExpiresAt)
}
