package store

import (
	"context"
	"strings"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CouponStore persists discount codes. Codes are stored upper-case.
type CouponStore struct {
	coll *mongo.Collection
}

func (s *CouponStore) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon.ID.IsZero() {
		coupon.ID = primitive.NewObjectID()
	}
	coupon.Code = strings.ToUpper(coupon.Code)
	_, err := s.coll.InsertOne(ctx, coupon)
	return translate(err)
}

func (s *CouponStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.coll.FindOne(ctx, bson.M{"code": strings.ToUpper(code)}).Decode(&coupon); err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}
