package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/middleware"
	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/services"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// OrderController handles order-related requests
type OrderController struct {
	base
	orders *services.OrderService
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.OrderService, log *zap.Logger, timeout time.Duration) *OrderController {
	return &OrderController{base: newBase(log, timeout), orders: orders}
}

type placeOrderRequest struct {
	ShippingID string `json:"shipping_id"`
	CouponCode string `json:"coupon_code"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// PlaceCODOrder places a cash-on-delivery order for the user's cart
func (oc *OrderController) PlaceCODOrder(w http.ResponseWriter, r *http.Request) {
	oc.placeOrder(w, r, models.PaymentMethodCOD)
}

// PlaceStripeOrder starts a card checkout for the user's cart
func (oc *OrderController) PlaceStripeOrder(w http.ResponseWriter, r *http.Request) {
	oc.placeOrder(w, r, models.PaymentMethodStripe)
}

func (oc *OrderController) placeOrder(w http.ResponseWriter, r *http.Request, method models.PaymentMethod) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	shippingID := primitive.NilObjectID
	if req.ShippingID != "" {
		if shippingID, ok = parseID(w, req.ShippingID, "Invalid shipping address ID"); !ok {
			return
		}
	}

	ctx, cancel := oc.context(r)
	defer cancel()
	checkout, err := oc.orders.PlaceOrder(ctx, services.PlaceOrderInput{
		UserID:     uid,
		ShippingID: shippingID,
		Method:     method,
		CouponCode: strings.TrimSpace(req.CouponCode),
	})
	operation := "place_" + strings.ToLower(string(method))
	middleware.RecordOrderOperation(operation, err == nil)
	if err != nil {
		oc.respondError(w, r, err)
		return
	}

	payload := map[string]interface{}{
		"message": "Order placed successfully",
		"order":   checkout.Order,
	}
	if checkout.CheckoutURL != "" {
		payload["message"] = "Checkout session created"
		payload["session_url"] = checkout.CheckoutURL
	}
	utils.RespondJSON(w, http.StatusCreated, payload)
}

// GetOrders retrieves the authenticated user's orders
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()
	orders, err := oc.orders.ListUserOrders(ctx, uid)
	if err != nil {
		oc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// GetOrder retrieves one of the authenticated user's orders
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "Invalid order ID")
	if !ok {
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()
	order, err := oc.orders.GetOrder(ctx, orderID, uid)
	if err != nil {
		oc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}

// CancelCheckout abandons the user's pending card checkout
func (oc *OrderController) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "Invalid order ID")
	if !ok {
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()
	order, err := oc.orders.CancelCheckout(ctx, uid, orderID)
	middleware.RecordOrderOperation("cancel_checkout", err == nil)
	if err != nil {
		oc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"message": "Checkout cancelled", "order": order})
}

// GetAllOrders lists every order (Admin only)
func (oc *OrderController) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := oc.context(r)
	defer cancel()
	orders, err := oc.orders.ListOrders(ctx)
	if err != nil {
		oc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// UpdateShippingStatus moves an order along its fulfillment progression (Admin only)
func (oc *OrderController) UpdateShippingStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "Invalid order ID")
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()
	order, err := oc.orders.SetShippingStatus(ctx, orderID, req.Status)
	middleware.RecordOrderOperation("shipping_status", err == nil)
	if err != nil {
		oc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"message": "Shipping status updated", "order": order})
}

// UpdateOrderPaymentStatus records payment of a cash-on-delivery order (Admin only)
func (oc *OrderController) UpdateOrderPaymentStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "Invalid order ID")
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := oc.context(r)
	defer cancel()
	order, err := oc.orders.SetCODPaymentStatus(ctx, orderID, req.Status)
	middleware.RecordOrderOperation("payment_status", err == nil)
	if err != nil {
		oc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"message": "Payment status updated successfully", "order": order})
}
