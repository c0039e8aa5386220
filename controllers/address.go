package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/RahulGosh/ecommerce-sub000/models"
	"github.com/RahulGosh/ecommerce-sub000/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AddressStore is the persistence the address handlers need.
type AddressStore interface {
	Create(ctx context.Context, address *models.ShippingAddress) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ShippingAddress, error)
}

// AddressController handles shipping address requests
type AddressController struct {
	base
	addresses AddressStore
	now       func() time.Time
}

func NewAddressController(addresses AddressStore, log *zap.Logger, timeout time.Duration) *AddressController {
	return &AddressController{base: newBase(log, timeout), addresses: addresses, now: time.Now}
}

// CreateAddress saves a shipping address for the authenticated user.
func (ac *AddressController) CreateAddress(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var address models.ShippingAddress
	if !decodeJSON(w, r, &address) {
		return
	}
	for _, field := range []string{address.FullName, address.Street, address.City, address.Country} {
		if strings.TrimSpace(field) == "" {
			utils.RespondError(w, http.StatusBadRequest, "Full name, street, city and country are required")
			return
		}
	}
	address.ID = primitive.NilObjectID
	address.UserID = uid
	address.CreatedAt = ac.now().UTC()

	ctx, cancel := ac.context(r)
	defer cancel()
	if err := ac.addresses.Create(ctx, &address); err != nil {
		ac.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"address": address})
}

// GetAddresses lists the authenticated user's addresses.
func (ac *AddressController) GetAddresses(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := ac.context(r)
	defer cancel()
	addresses, err := ac.addresses.ListByUser(ctx, uid)
	if err != nil {
		ac.respondError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"addresses": addresses})
}
