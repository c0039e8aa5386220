package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/pricing"
	"github.com/RahulGosh/ecommerce-sub000/store"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"go.uber.org/zap"
)

// CouponStore is the persistence the coupon handlers need.
type CouponStore interface {
	Create(ctx context.Context, coupon *models.Coupon) error
}

// CouponController handles discount code requests
type CouponController struct {
	base
	coupons CouponStore
	now     func() time.Time
}

func NewCouponController(coupons CouponStore, log *zap.Logger, timeout time.Duration) *CouponController {
	return &CouponController{base: newBase(log, timeout), coupons: coupons, now: time.Now}
}

type couponRequest struct {
	Code      string     `json:"code"`
	Type      string     `json:"type"`
	Value     float64    `json:"value"`
	MinOrder  float64    `json:"min_order"`
	Active    *bool      `json:"active"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// CreateCoupon adds a discount code (Admin only)
func (cc *CouponController) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		utils.RespondError(w, http.StatusBadRequest, "Coupon code is required")
		return
	}
	if req.MinOrder < 0 {
		utils.RespondError(w, http.StatusBadRequest, "Minimum order cannot be negative")
		return
	}
	// The discount on a zero subtotal only checks type and value ranges.
	if _, err := pricing.CouponDiscount(req.Type, pricing.FromFloat(req.Value), pricing.FromFloat(0)); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	coupon := &models.Coupon{
		Code:      code,
		Type:      models.CouponType(req.Type),
		Value:     req.Value,
		MinOrder:  req.MinOrder,
		Active:    req.Active == nil || *req.Active,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: cc.now().UTC(),
	}

	ctx, cancel := cc.context(r)
	defer cancel()
	if err := cc.coupons.Create(ctx, coupon); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.RespondError(w, http.StatusConflict, "Coupon code already exists")
			return
		}
		cc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"coupon": coupon})
}
