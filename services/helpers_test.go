package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/store"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeMailer struct {
	mu            sync.Mutex
	confirmations []string
	payments      []string
	err           error
}

func (m *fakeMailer) SendOrderConfirmationEmail(to string, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, to+"|"+order.OrderNumber)
	return m.err
}

func (m *fakeMailer) SendPaymentConfirmedEmail(to string, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, to+"|"+order.OrderNumber)
	return m.err
}

func (m *fakeMailer) sent() (confirmations, payments int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.confirmations), len(m.payments)
}

type fakeNotifier struct {
	mu     sync.Mutex
	orders []models.Order
}

func (n *fakeNotifier) NotifyOrder(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, *order.Clone())
}

func (n *fakeNotifier) last() models.Order {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.orders[len(n.orders)-1]
}

type fakePublisher struct {
	mu      sync.Mutex
	events  []models.OrderEvent
	delayed []models.OrderEvent
	delays  []time.Duration
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, event models.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) PublishDelayed(_ context.Context, event models.OrderEvent, delay time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delayed = append(p.delayed, event)
	p.delays = append(p.delays, delay)
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakePayments struct {
	calls int
	err   error
}

func (p *fakePayments) CreateCheckoutSession(_ context.Context, order *models.Order) (*models.PaymentSession, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &models.PaymentSession{
		ID:  "cs_test_" + order.ID.Hex(),
		URL: "https://checkout.stripe.test/" + order.ID.Hex(),
	}, nil
}

// racingCarts lets another writer update the cart right before the next
// Save, so that Save hits a version conflict.
type racingCarts struct {
	*store.MemoryCarts
	races   int
	intrude func(*store.MemoryCarts)
}

func (r *racingCarts) Save(ctx context.Context, cart *models.Cart) error {
	if r.races > 0 {
		r.races--
		r.intrude(r.MemoryCarts)
	}
	return r.MemoryCarts.Save(ctx, cart)
}

// racingOrders runs intrude right after the next reads of an order, so the
// write that follows finds the order already changed by someone else.
type racingOrders struct {
	*store.MemoryOrders
	races   int
	intrude func()
}

func (r *racingOrders) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := r.MemoryOrders.FindByID(ctx, id)
	if err == nil && r.races > 0 {
		r.races--
		r.intrude()
	}
	return order, err
}

type fixture struct {
	mem       *store.Memory
	carts     *CartService
	orders    *OrderService
	mailer    *fakeMailer
	notifier  *fakeNotifier
	publisher *fakePublisher
	payments  *fakePayments
	user      models.User
	address   models.ShippingAddress
	shirt     models.Product
	jeans     models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		mem:       store.NewMemory(),
		mailer:    &fakeMailer{},
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
		payments:  &fakePayments{},
	}

	f.user = models.User{Name: "Asha", Email: "asha@example.com", Role: "user", IsVerified: true}
	require.NoError(t, f.mem.Users.Create(ctx, &f.user))
	f.address = models.ShippingAddress{
		UserID:   f.user.ID,
		FullName: "Asha Rao",
		Phone:    "9876543210",
		Street:   "12 MG Road",
		City:     "Bengaluru",
		State:    "KA",
		ZipCode:  "560001",
		Country:  "India",
	}
	require.NoError(t, f.mem.Addresses.Create(ctx, &f.address))

	f.shirt = models.Product{
		Name:   "Linen Shirt",
		Price:  1000,
		Sizes:  []string{"S", "M", "L"},
		Images: []models.Image{{URL: "https://cdn.test/shirt.jpg", PublicID: "shirt"}},
	}
	require.NoError(t, f.mem.Products.Create(ctx, &f.shirt))
	f.jeans = models.Product{Name: "Jeans", Price: 2500, Sizes: []string{"32", "34"}}
	require.NoError(t, f.mem.Products.Create(ctx, &f.jeans))

	f.carts = NewCartService(f.mem.Carts, f.mem.Products, zap.NewNop())
	f.orders = NewOrderService(OrderDeps{
		Carts:          f.mem.Carts,
		Orders:         f.mem.Orders,
		Addresses:      f.mem.Addresses,
		Coupons:        f.mem.Coupons,
		Users:          f.mem.Users,
		Payments:       f.payments,
		Mailer:         f.mailer,
		Notifier:       f.notifier,
		Events:         f.publisher,
		Log:            zap.NewNop(),
		PaymentTimeout: 30 * time.Minute,
	})
	return f
}

func (f *fixture) add(t *testing.T, product models.Product, size string, times int) *models.Cart {
	t.Helper()
	var cart *models.Cart
	var err error
	for i := 0; i < times; i++ {
		cart, err = f.carts.AddItem(context.Background(), f.user.ID, product.ID, size)
		require.NoError(t, err)
	}
	return cart
}

func (f *fixture) place(t *testing.T, method models.PaymentMethod) *Checkout {
	t.Helper()
	checkout, err := f.orders.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:     f.user.ID,
		ShippingID: f.address.ID,
		Method:     method,
	})
	require.NoError(t, err)
	return checkout
}

func (f *fixture) storedCart(t *testing.T) *models.Cart {
	t.Helper()
	cart, err := f.mem.Carts.FindByUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	return cart
}

func (f *fixture) storedOrder(t *testing.T, id primitive.ObjectID) *models.Order {
	t.Helper()
	order, err := f.mem.Orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	return order
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	var se *Error
	require.True(t, errors.As(err, &se), "expected a service error, got %v", err)
	require.Equal(t, kind, se.Kind, se.Message)
}

func intPtr(n int) *int { return &n }
