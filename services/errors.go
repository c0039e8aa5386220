package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. Every kind except KindExternal is a
// client error.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindStateConflict
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindStateConflict:
		return "STATE_CONFLICT"
	case KindExternal:
		return "EXTERNAL_SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Error message constants for the cart and order domain.
const (
	ErrMsgSizeRequired        = "Size is required"
	ErrMsgInvalidSize         = "Invalid size for this product"
	ErrMsgInvalidQuantity     = "Quantity must be at least 1"
	ErrMsgProductNotFound     = "Product not found"
	ErrMsgCartNotFound        = "Cart not found"
	ErrMsgItemNotFound        = "Item not found in cart"
	ErrMsgCartBusy            = "Cart was modified concurrently, please retry"
	ErrMsgCartEmpty           = "Cart is empty"
	ErrMsgCheckoutPending     = "A checkout for this cart is already awaiting payment"
	ErrMsgNoShippingAddress   = "No shipping address on file"
	ErrMsgInvalidMethod       = "Invalid payment method"
	ErrMsgInvalidCoupon       = "Invalid coupon code"
	ErrMsgCouponUnusable      = "Coupon is inactive or expired"
	ErrMsgPaymentsDisabled    = "Card payments are not available"
	ErrMsgPaymentSession      = "Failed to create payment session"
	ErrMsgOrderNotFound       = "Order not found"
	ErrMsgNotStripeOrder      = "Order was not paid by card"
	ErrMsgSessionMismatch     = "Payment session does not match order"
	ErrMsgOrderConfirmed      = "Order is already confirmed"
	ErrMsgOrderBusy           = "Order was modified concurrently, please retry"
	ErrMsgInvalidShipping     = "Invalid shipping status"
	ErrMsgOrderNotConfirmed   = "Order is awaiting payment"
	ErrMsgInvalidTransition   = "Shipping status cannot move from %q to %q"
	ErrMsgInvalidPayment      = "Invalid payment status"
	ErrMsgNotCashOnDelivery   = "Payment status can only be set for cash on delivery orders"
	ErrMsgMinimumOrderForCode = "Coupon requires a minimum order of %.2f"
)

// Error is a classified service failure with a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a missing or malformed input.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound reports that a referenced cart, order, product or item does not exist.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict reports an operation the current state of an order or cart forbids.
func Conflict(message string) *Error {
	return &Error{Kind: KindStateConflict, Message: message}
}

// Conflictf is Conflict with a formatted message.
func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindStateConflict, Message: fmt.Sprintf(format, args...)}
}

// External reports a failure of the payment provider or another outside service.
func External(message string, err error) *Error {
	return &Error{Kind: KindExternal, Message: message, Err: err}
}

// KindOf returns the kind of a service error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}
