package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/pricing"
	"github.com/RahulGosh/ecommerce-sub000/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxOrderAttempts bounds the load-modify-update retries on an order.
const maxOrderAttempts = 3

// OrderDeps holds the collaborators of an OrderService. Payments, Mailer,
// Notifier and Events are optional.
type OrderDeps struct {
	Carts     CartRepository
	Orders    OrderRepository
	Addresses AddressRepository
	Coupons   CouponRepository
	Users     UserRepository
	Payments  PaymentProvider
	Mailer    OrderMailer
	Notifier  OrderNotifier
	Events    EventPublisher
	Log       *zap.Logger

	// PaymentTimeout is how long a card checkout may wait for payment
	// before it is abandoned.
	PaymentTimeout time.Duration
}

// OrderService turns carts into orders and drives the order lifecycle.
type OrderService struct {
	carts          CartRepository
	orders         OrderRepository
	addresses      AddressRepository
	coupons        CouponRepository
	users          UserRepository
	payments       PaymentProvider
	mailer         OrderMailer
	notifier       OrderNotifier
	events         EventPublisher
	log            *zap.Logger
	paymentTimeout time.Duration
	now            func() time.Time

	// mails tracks in-flight notification emails.
	mails sync.WaitGroup
}

func NewOrderService(deps OrderDeps) *OrderService {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		carts:          deps.Carts,
		orders:         deps.Orders,
		addresses:      deps.Addresses,
		coupons:        deps.Coupons,
		users:          deps.Users,
		payments:       deps.Payments,
		mailer:         deps.Mailer,
		notifier:       deps.Notifier,
		events:         deps.Events,
		log:            log,
		paymentTimeout: deps.PaymentTimeout,
		now:            time.Now,
	}
}

// PlaceOrderInput is a checkout request for the user's current cart.
type PlaceOrderInput struct {
	UserID     primitive.ObjectID
	ShippingID primitive.ObjectID
	Method     models.PaymentMethod
	CouponCode string
}

// Checkout is the result of placing an order. CheckoutURL is set for card
// payments only.
type Checkout struct {
	Order       *models.Order
	CheckoutURL string
}

// PlaceOrder materializes the user's cart into an order. Cash orders are
// confirmed immediately and the purchased lines leave the cart. Card orders
// wait for payment with the cart claimed, so a second checkout of the same
// cart is refused until the first one is confirmed or abandoned.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Checkout, error) {
	if in.Method != models.PaymentMethodCOD && in.Method != models.PaymentMethodStripe {
		return nil, Validation(ErrMsgInvalidMethod)
	}
	if in.Method == models.PaymentMethodStripe && s.payments == nil {
		return nil, External(ErrMsgPaymentsDisabled, nil)
	}

	cart, err := s.carts.FindByUser(ctx, in.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Conflict(ErrMsgCartEmpty)
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, Conflict(ErrMsgCartEmpty)
	}
	if cart.HasPendingCheckout() {
		stale, err := s.staleClaim(ctx, *cart.PendingOrder)
		if err != nil {
			return nil, err
		}
		if !stale {
			return nil, Conflict(ErrMsgCheckoutPending)
		}
		s.log.Warn("clearing stale checkout claim",
			zap.String("user_id", in.UserID.Hex()),
			zap.String("order_id", cart.PendingOrder.Hex()))
		cart.PendingOrder = nil
	}

	address, err := s.addresses.FindForUser(ctx, in.ShippingID, in.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Conflict(ErrMsgNoShippingAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("load address: %w", err)
	}

	totals := pricing.Compute(cartLines(cart.Items))
	if in.CouponCode != "" {
		discount, err := s.couponDiscount(ctx, in.CouponCode, totals.ItemsPrice)
		if err != nil {
			return nil, err
		}
		totals = totals.WithDiscount(discount)
	}

	now := s.now()
	order := &models.Order{
		ID:             primitive.NewObjectID(),
		OrderNumber:    newOrderNumber(now),
		UserID:         in.UserID,
		Items:          orderItems(cart.Items),
		Address:        *address,
		ItemsPrice:     pricing.Float(totals.ItemsPrice),
		TaxPrice:       pricing.Float(totals.TaxPrice),
		ShippingPrice:  pricing.Float(totals.ShippingPrice),
		DiscountPrice:  pricing.Float(totals.Discount),
		TotalPrice:     pricing.Float(totals.TotalPrice),
		CouponCode:     strings.ToUpper(in.CouponCode),
		PaymentMethod:  in.Method,
		PaymentStatus:  models.PaymentStatusUnpaid,
		ShippingStatus: models.ShippingOrderPlaced,
		CheckoutStatus: models.CheckoutCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Claim the cart before the order exists so two checkouts cannot both
	// materialize it.
	cart.PendingOrder = &order.ID
	if err := s.carts.Save(ctx, cart); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, Conflict(ErrMsgCartBusy)
		}
		return nil, fmt.Errorf("claim cart: %w", err)
	}

	if in.Method == models.PaymentMethodCOD {
		order.CheckoutStatus = models.CheckoutConfirmed
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.releaseCart(ctx, in.UserID, order.ID, nil)
		return nil, fmt.Errorf("create order: %w", err)
	}

	if in.Method == models.PaymentMethodCOD {
		s.releaseCart(ctx, in.UserID, order.ID, order.Items)
		s.log.Info("order placed",
			zap.String("order_id", order.ID.Hex()),
			zap.String("payment_method", string(order.PaymentMethod)),
			zap.Float64("total", order.TotalPrice))
		s.announce(ctx, order, models.EventOrderCreated)
		s.sendMail(order, s.mailOrderConfirmation)
		return &Checkout{Order: order}, nil
	}

	session, err := s.payments.CreateCheckoutSession(ctx, order)
	if err != nil {
		_, _, uerr := s.updateOrder(ctx, order.ID, func(o *models.Order) (bool, error) {
			if o.CheckoutStatus != models.CheckoutCreated {
				return false, nil
			}
			o.CheckoutStatus = models.CheckoutAbandoned
			o.UpdatedAt = s.now()
			return true, nil
		})
		if uerr != nil {
			s.log.Error("failed to abandon order", zap.String("order_id", order.ID.Hex()), zap.Error(uerr))
		}
		s.releaseCart(ctx, in.UserID, order.ID, nil)
		return nil, External(ErrMsgPaymentSession, err)
	}

	stored, _, err := s.updateOrder(ctx, order.ID, func(o *models.Order) (bool, error) {
		if o.CheckoutStatus != models.CheckoutCreated {
			return false, nil
		}
		o.CheckoutStatus = models.CheckoutAwaitingPayment
		o.PaymentSessionID = session.ID
		o.UpdatedAt = s.now()
		return true, nil
	})
	if err != nil {
		// The stored order is still Created; the payment check abandons it.
		s.schedulePaymentCheck(ctx, order)
		return nil, fmt.Errorf("store payment session: %w", err)
	}
	order = stored

	s.log.Info("checkout awaiting payment",
		zap.String("order_id", order.ID.Hex()),
		zap.String("session_id", session.ID),
		zap.Float64("total", order.TotalPrice))
	s.announce(ctx, order, models.EventOrderCreated)
	s.schedulePaymentCheck(ctx, order)
	return &Checkout{Order: order, CheckoutURL: session.URL}, nil
}

// ConfirmPayment completes a card checkout. Confirming an already confirmed
// order is a no-op. A payment that arrives after the checkout was abandoned
// still confirms the order, but the cart is only touched while this order
// holds its claim.
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID primitive.ObjectID, sessionID string) (*models.Order, error) {
	order, changed, err := s.updateOrder(ctx, orderID, func(order *models.Order) (bool, error) {
		if order.PaymentMethod != models.PaymentMethodStripe {
			return false, Conflict(ErrMsgNotStripeOrder)
		}
		if order.CheckoutStatus == models.CheckoutConfirmed {
			return false, nil
		}
		if sessionID != "" && order.PaymentSessionID != "" && sessionID != order.PaymentSessionID {
			return false, Conflict(ErrMsgSessionMismatch)
		}
		if order.CheckoutStatus == models.CheckoutAbandoned {
			s.log.Warn("payment received for abandoned checkout", zap.String("order_id", orderID.Hex()))
		}
		now := s.now()
		order.PaymentStatus = models.PaymentStatusPaid
		order.PaidAt = &now
		order.CheckoutStatus = models.CheckoutConfirmed
		order.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	s.releaseCart(ctx, order.UserID, order.ID, order.Items)
	s.log.Info("payment confirmed", zap.String("order_id", orderID.Hex()))
	s.announce(ctx, order, models.EventPaymentConfirmed)
	s.sendMail(order, s.mailPaymentConfirmed)
	return order, nil
}

// AbandonCheckout gives up on an unpaid checkout and releases the cart with
// its items intact. Confirmed or already abandoned orders are returned as is.
func (s *OrderService) AbandonCheckout(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	return s.abandon(ctx, orderID, nil)
}

// CancelCheckout abandons a pending checkout on behalf of its owner.
func (s *OrderService) CancelCheckout(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	return s.abandon(ctx, orderID, func(order *models.Order) error {
		if order.UserID != userID {
			return NotFound(ErrMsgOrderNotFound)
		}
		if order.CheckoutStatus == models.CheckoutConfirmed {
			return Conflict(ErrMsgOrderConfirmed)
		}
		return nil
	})
}

func (s *OrderService) abandon(ctx context.Context, orderID primitive.ObjectID, check func(*models.Order) error) (*models.Order, error) {
	order, changed, err := s.updateOrder(ctx, orderID, func(order *models.Order) (bool, error) {
		if check != nil {
			if err := check(order); err != nil {
				return false, err
			}
		}
		switch order.CheckoutStatus {
		case models.CheckoutCreated, models.CheckoutAwaitingPayment:
		default:
			return false, nil
		}
		order.CheckoutStatus = models.CheckoutAbandoned
		order.UpdatedAt = s.now()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	s.releaseCart(ctx, order.UserID, order.ID, nil)
	s.log.Info("checkout abandoned", zap.String("order_id", order.ID.Hex()))
	s.announce(ctx, order, models.EventCheckoutAbandoned)
	return order, nil
}

// ListUserOrders returns the user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListOrders returns every order, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns one of the user's orders. Orders of other users are
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID primitive.ObjectID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, NotFound(ErrMsgOrderNotFound)
	}
	return order, nil
}

// Wait blocks until queued notification emails have been handed off.
func (s *OrderService) Wait() {
	s.mails.Wait()
}

// updateOrder applies change to a freshly loaded order and stores it if
// nobody wrote the order in between. On a version conflict the order is
// reloaded and change runs again against the new state. change returns
// false to leave the order as it is.
func (s *OrderService) updateOrder(ctx context.Context, orderID primitive.ObjectID, change func(*models.Order) (bool, error)) (*models.Order, bool, error) {
	for attempt := 1; attempt <= maxOrderAttempts; attempt++ {
		order, err := s.loadOrder(ctx, orderID)
		if err != nil {
			return nil, false, err
		}
		changed, err := change(order)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return order, false, nil
		}

		err = s.orders.Update(ctx, order)
		if err == nil {
			return order, true, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return nil, false, fmt.Errorf("update order: %w", err)
		}
		s.log.Debug("order changed concurrently, retrying",
			zap.String("order_id", orderID.Hex()),
			zap.Int("attempt", attempt))
	}
	return nil, false, Conflict(ErrMsgOrderBusy)
}

func (s *OrderService) loadOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NotFound(ErrMsgOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

// staleClaim reports whether a cart's pending order no longer needs the cart.
func (s *OrderService) staleClaim(ctx context.Context, orderID primitive.ObjectID) (bool, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("load pending order: %w", err)
	}
	switch order.CheckoutStatus {
	case models.CheckoutCreated, models.CheckoutAwaitingPayment:
		return false, nil
	}
	return true, nil
}

// releaseCart drops orderID's claim on the user's cart and takes the
// purchased lines out of it. Lines added after checkout stay in the cart.
// Nothing happens if the cart is claimed by another order or not claimed
// at all.
func (s *OrderService) releaseCart(ctx context.Context, userID, orderID primitive.ObjectID, purchased []models.OrderItem) {
	for attempt := 1; attempt <= maxCartAttempts; attempt++ {
		cart, err := s.carts.FindByUser(ctx, userID)
		if err != nil {
			s.log.Error("failed to load cart for release", zap.String("order_id", orderID.Hex()), zap.Error(err))
			return
		}
		if cart.PendingOrder == nil || *cart.PendingOrder != orderID {
			return
		}
		cart.PendingOrder = nil
		cart.Items = subtractPurchased(cart.Items, purchased)
		Recalculate(cart)
		cart.UpdatedAt = s.now()

		err = s.carts.Save(ctx, cart)
		if err == nil {
			return
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			s.log.Error("failed to release cart", zap.String("order_id", orderID.Hex()), zap.Error(err))
			return
		}
	}
	s.log.Error("gave up releasing cart", zap.String("order_id", orderID.Hex()))
}

func (s *OrderService) couponDiscount(ctx context.Context, code string, itemsPrice decimal.Decimal) (decimal.Decimal, error) {
	if s.coupons == nil {
		return decimal.Zero, Validation(ErrMsgInvalidCoupon)
	}
	coupon, err := s.coupons.FindByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Zero, Validation(ErrMsgInvalidCoupon)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load coupon: %w", err)
	}
	if !coupon.Usable(s.now()) {
		return decimal.Zero, Validation(ErrMsgCouponUnusable)
	}
	if itemsPrice.LessThan(pricing.FromFloat(coupon.MinOrder)) {
		return decimal.Zero, Validation(fmt.Sprintf(ErrMsgMinimumOrderForCode, coupon.MinOrder))
	}
	discount, err := pricing.CouponDiscount(string(coupon.Type), pricing.FromFloat(coupon.Value), itemsPrice)
	if err != nil {
		return decimal.Zero, Validation(err.Error())
	}
	return discount, nil
}

// announce pushes the order to realtime subscribers and publishes a
// lifecycle event. Neither failure affects the caller.
func (s *OrderService) announce(ctx context.Context, order *models.Order, eventType string) {
	if s.notifier != nil {
		s.notifier.NotifyOrder(order)
	}
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, s.orderEvent(order, eventType)); err != nil {
		s.log.Error("failed to publish order event",
			zap.String("order_id", order.ID.Hex()),
			zap.String("type", eventType),
			zap.Error(err))
	}
}

func (s *OrderService) schedulePaymentCheck(ctx context.Context, order *models.Order) {
	if s.events == nil || s.paymentTimeout <= 0 {
		return
	}
	event := s.orderEvent(order, models.EventPaymentCheck)
	if err := s.events.PublishDelayed(ctx, event, s.paymentTimeout); err != nil {
		s.log.Error("failed to schedule payment check", zap.String("order_id", order.ID.Hex()), zap.Error(err))
	}
}

func (s *OrderService) orderEvent(order *models.Order, eventType string) models.OrderEvent {
	status := string(order.CheckoutStatus)
	if eventType == models.EventStatusUpdated {
		status = string(order.ShippingStatus)
	}
	return models.OrderEvent{
		OrderID:  order.ID.Hex(),
		UserID:   order.UserID.Hex(),
		Type:     eventType,
		Status:   status,
		Total:    order.TotalPrice,
		Occurred: s.now(),
	}
}

// sendMail looks up the order's owner and sends an email on its own
// goroutine. Failures are logged only.
func (s *OrderService) sendMail(order *models.Order, send func(to string, order *models.Order) error) {
	if s.mailer == nil || s.users == nil {
		return
	}
	snapshot := order.Clone()
	s.mails.Add(1)
	go func() {
		defer s.mails.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := s.users.FindByID(ctx, snapshot.UserID)
		if err != nil {
			s.log.Error("failed to load order owner for email", zap.String("order_id", snapshot.ID.Hex()), zap.Error(err))
			return
		}
		if err := send(user.Email, snapshot); err != nil {
			s.log.Error("failed to send order email", zap.String("order_id", snapshot.ID.Hex()), zap.Error(err))
		}
	}()
}

func (s *OrderService) mailOrderConfirmation(to string, order *models.Order) error {
	return s.mailer.SendOrderConfirmationEmail(to, order)
}

func (s *OrderService) mailPaymentConfirmed(to string, order *models.Order) error {
	return s.mailer.SendPaymentConfirmedEmail(to, order)
}

type lineKey struct {
	productID primitive.ObjectID
	size      string
}

// subtractPurchased lowers cart lines by the purchased quantities and drops
// lines that reach zero.
func subtractPurchased(items []models.CartItem, purchased []models.OrderItem) []models.CartItem {
	bought := make(map[lineKey]int, len(purchased))
	for _, p := range purchased {
		bought[lineKey{p.ProductID, p.Size}] += p.Quantity
	}
	kept := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		key := lineKey{item.ProductID, item.Size}
		if n := bought[key]; n > 0 {
			take := min(n, item.Quantity)
			item.Quantity -= take
			bought[key] = n - take
		}
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	return kept
}

func newOrderNumber(now time.Time) string {
	return "ORD-" + now.Format("20060102") + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func orderItems(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Image:     item.Image,
		})
	}
	return out
}
