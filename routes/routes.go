package routes

import (
	"net/http"

	"github.com/RahulGosh/ecommerce-sub000/controllers"
	"github.com/RahulGosh/ecommerce-sub000/middleware"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers groups the handlers mounted on the router.
type Controllers struct {
	Users     *controllers.UserController
	Addresses *controllers.AddressController
	Products  *controllers.ProductController
	Carts     *controllers.CartController
	Orders    *controllers.OrderController
	Coupons   *controllers.CouponController
	Webhooks  *controllers.WebhookController
	// Realtime serves websocket upgrades. Nil leaves /ws unmounted.
	Realtime http.HandlerFunc
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, tokens middleware.TokenParser) {
	router.Use(middleware.PrometheusMiddleware)

	// Ops
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", health).Methods(http.MethodGet)
	if c.Realtime != nil {
		router.HandleFunc("/ws", c.Realtime).Methods(http.MethodGet)
	}

	// Public routes
	router.HandleFunc("/register", c.Users.Register).Methods(http.MethodPost)
	router.HandleFunc("/login", c.Users.Login).Methods(http.MethodPost)
	router.HandleFunc("/verify", c.Users.VerifyEmail).Methods(http.MethodGet)
	router.HandleFunc("/products", c.Products.GetProducts).Methods(http.MethodGet)
	router.HandleFunc("/products/{id}", c.Products.GetProductByID).Methods(http.MethodGet)
	router.HandleFunc("/webhooks/stripe", c.Webhooks.StripeWebhook).Methods(http.MethodPost)

	auth := middleware.AuthMiddleware(tokens)

	// Protected routes
	protected := router.NewRoute().Subrouter()
	protected.Use(auth)
	protected.HandleFunc("/profile", c.Users.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/addresses", c.Addresses.GetAddresses).Methods(http.MethodGet)
	protected.HandleFunc("/addresses", c.Addresses.CreateAddress).Methods(http.MethodPost)

	// Cart routes
	protected.HandleFunc("/cart", c.Carts.GetCart).Methods(http.MethodGet)
	protected.HandleFunc("/cart", c.Carts.AddToCart).Methods(http.MethodPost)
	protected.HandleFunc("/cart", c.Carts.UpdateCart).Methods(http.MethodPut)
	protected.HandleFunc("/cart", c.Carts.RemoveFromCart).Methods(http.MethodDelete)

	// Order routes
	protected.HandleFunc("/orders", c.Orders.GetOrders).Methods(http.MethodGet)
	protected.HandleFunc("/orders/cod", c.Orders.PlaceCODOrder).Methods(http.MethodPost)
	protected.HandleFunc("/orders/stripe", c.Orders.PlaceStripeOrder).Methods(http.MethodPost)
	protected.HandleFunc("/orders/{id}", c.Orders.GetOrder).Methods(http.MethodGet)
	protected.HandleFunc("/orders/{id}/checkout", c.Orders.CancelCheckout).Methods(http.MethodDelete)

	// Admin routes
	products := router.PathPrefix("/products").Subrouter()
	products.Use(auth, middleware.AdminMiddleware)
	products.HandleFunc("", c.Products.CreateProduct).Methods(http.MethodPost)
	products.HandleFunc("/{id}", c.Products.UpdateProduct).Methods(http.MethodPut)
	products.HandleFunc("/{id}", c.Products.DeleteProduct).Methods(http.MethodDelete)

	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(auth, middleware.AdminMiddleware)
	admin.HandleFunc("/orders", c.Orders.GetAllOrders).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{id}/shipping-status", c.Orders.UpdateShippingStatus).Methods(http.MethodPut)
	admin.HandleFunc("/orders/{id}/payment-status", c.Orders.UpdateOrderPaymentStatus).Methods(http.MethodPut)
	admin.HandleFunc("/coupons", c.Coupons.CreateCoupon).Methods(http.MethodPost)
}

func health(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
