package controllers

import (
	"net/http"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/services"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"go.uber.org/zap"
)

// CartController handles cart-related requests
type CartController struct {
	base
	carts *services.CartService
}

// NewCartController creates a new CartController
func NewCartController(carts *services.CartService, log *zap.Logger, timeout time.Duration) *CartController {
	return &CartController{base: newBase(log, timeout), carts: carts}
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  *int   `json:"quantity"`
}

// AddToCart adds one unit of a product size to the user's cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req cartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	productID, ok := parseID(w, req.ProductID, "Invalid product ID")
	if !ok {
		return
	}

	ctx, cancel := cc.context(r)
	defer cancel()
	cart, err := cc.carts.AddItem(ctx, uid, productID, req.Size)
	if err != nil {
		cc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"message": "Item added to cart", "cart": cart})
}

// UpdateCart sets the quantity of a cart line
func (cc *CartController) UpdateCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req cartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	productID, ok := parseID(w, req.ProductID, "Invalid product ID")
	if !ok {
		return
	}

	ctx, cancel := cc.context(r)
	defer cancel()
	cart, err := cc.carts.UpdateItem(ctx, uid, productID, req.Size, req.Quantity)
	if err != nil {
		cc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"message": "Cart updated", "cart": cart})
}

// RemoveFromCart removes a product line from the user's cart. The line is
// named by the JSON body or, failing that, by the product_id and size query
// parameters.
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	req := cartItemRequest{
		ProductID: r.URL.Query().Get("product_id"),
		Size:      r.URL.Query().Get("size"),
	}
	if req.ProductID == "" && !decodeJSON(w, r, &req) {
		return
	}
	productID, ok := parseID(w, req.ProductID, "Invalid product ID")
	if !ok {
		return
	}

	ctx, cancel := cc.context(r)
	defer cancel()
	cart, err := cc.carts.RemoveItem(ctx, uid, productID, req.Size)
	if err != nil {
		cc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"message": "Item removed from cart", "cart": cart})
}

// GetCart retrieves the user's cart
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := cc.context(r)
	defer cancel()
	cart, err := cc.carts.GetCart(ctx, uid)
	if err != nil {
		cc.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"cart": cart})
}
