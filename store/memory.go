package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory holds in-memory repositories that behave like the Mongo ones:
// documents are copied on the way in and out, carts use the same version
// compare-and-swap and unique keys are enforced.
type Memory struct {
	Users     *MemoryUsers
	Addresses *MemoryAddresses
	Products  *MemoryProducts
	Carts     *MemoryCarts
	Orders    *MemoryOrders
	Coupons   *MemoryCoupons
}

// NewMemory returns empty in-memory repositories.
func NewMemory() *Memory {
	return &Memory{
		Users:     &MemoryUsers{byID: map[primitive.ObjectID]models.User{}},
		Addresses: &MemoryAddresses{byID: map[primitive.ObjectID]models.ShippingAddress{}},
		Products:  &MemoryProducts{byID: map[primitive.ObjectID]models.Product{}},
		Carts:     &MemoryCarts{byUser: map[primitive.ObjectID]*models.Cart{}},
		Orders:    &MemoryOrders{byID: map[primitive.ObjectID]*models.Order{}},
		Coupons:   &MemoryCoupons{byCode: map[string]models.Coupon{}},
	}
}

type MemoryCarts struct {
	mu     sync.Mutex
	byUser map[primitive.ObjectID]*models.Cart
}

func (s *MemoryCarts) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.byUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cart.Clone(), nil
}

func (s *MemoryCarts) Save(_ context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.byUser[cart.UserID]
	if cart.ID.IsZero() {
		if exists {
			return ErrVersionConflict
		}
		cart.ID = primitive.NewObjectID()
		cart.Version = 1
		s.byUser[cart.UserID] = cart.Clone()
		return nil
	}
	if !exists || current.ID != cart.ID || current.Version != cart.Version {
		return ErrVersionConflict
	}
	cart.Version++
	s.byUser[cart.UserID] = cart.Clone()
	return nil
}

type MemoryOrders struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Order
}

func (s *MemoryOrders) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, ok := s.byID[order.ID]; ok {
		return ErrDuplicate
	}
	order.Version = 1
	s.byID[order.ID] = order.Clone()
	return nil
}

func (s *MemoryOrders) Update(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[order.ID]
	if !ok || current.Version != order.Version {
		return ErrVersionConflict
	}
	order.Version++
	s.byID[order.ID] = order.Clone()
	return nil
}

func (s *MemoryOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return order.Clone(), nil
}

func (s *MemoryOrders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.list(func(o *models.Order) bool { return o.UserID == userID }), nil
}

func (s *MemoryOrders) List(_ context.Context) ([]models.Order, error) {
	return s.list(func(*models.Order) bool { return true }), nil
}

// Count returns the number of stored orders.
func (s *MemoryOrders) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *MemoryOrders) list(keep func(*models.Order) bool) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := []models.Order{}
	for _, o := range s.byID {
		if keep(o) {
			orders = append(orders, *o.Clone())
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

type MemoryProducts struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.Product
}

func (s *MemoryProducts) Create(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	s.byID[product.ID] = *product
	return nil
}

func (s *MemoryProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &product, nil
}

func (s *MemoryProducts) List(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make([]models.Product, 0, len(s.byID))
	for _, p := range s.byID {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (s *MemoryProducts) Update(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[product.ID]; !ok {
		return ErrNotFound
	}
	s.byID[product.ID] = *product
	return nil
}

func (s *MemoryProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

type MemoryUsers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.User
}

func (s *MemoryUsers) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.byID[user.ID] = *user
	return nil
}

func (s *MemoryUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.ID == id })
}

func (s *MemoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *MemoryUsers) FindByVerificationToken(_ context.Context, token string) (*models.User, error) {
	return s.find(func(u models.User) bool { return token != "" && u.VerificationToken == token })
}

func (s *MemoryUsers) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	user.IsVerified = true
	user.VerificationToken = ""
	s.byID[id] = user
	return nil
}

func (s *MemoryUsers) find(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

type MemoryAddresses struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.ShippingAddress
}

func (s *MemoryAddresses) Create(_ context.Context, address *models.ShippingAddress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if address.ID.IsZero() {
		address.ID = primitive.NewObjectID()
	}
	s.byID[address.ID] = *address
	return nil
}

func (s *MemoryAddresses) FindForUser(_ context.Context, id, userID primitive.ObjectID) (*models.ShippingAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	address, ok := s.byID[id]
	if !ok || address.UserID != userID {
		return nil, ErrNotFound
	}
	return &address, nil
}

func (s *MemoryAddresses) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.ShippingAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	addresses := []models.ShippingAddress{}
	for _, a := range s.byID {
		if a.UserID == userID {
			addresses = append(addresses, a)
		}
	}
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].CreatedAt.After(addresses[j].CreatedAt)
	})
	return addresses, nil
}

type MemoryCoupons struct {
	mu     sync.Mutex
	byCode map[string]models.Coupon
}

func (s *MemoryCoupons) Create(_ context.Context, coupon *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon.Code = strings.ToUpper(coupon.Code)
	if _, ok := s.byCode[coupon.Code]; ok {
		return ErrDuplicate
	}
	if coupon.ID.IsZero() {
		coupon.ID = primitive.NewObjectID()
	}
	s.byCode[coupon.Code] = *coupon
	return nil
}

func (s *MemoryCoupons) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon, ok := s.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, ErrNotFound
	}
	return &coupon, nil
}
