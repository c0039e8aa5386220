// Package pricing computes cart and order money amounts. Every call site
// (cart mutation, checkout) goes through Compute so the formula lives once.
package pricing

import "github.com/shopspring/decimal"

var (
	// FreeShippingThreshold is inclusive: a subtotal of exactly 5000 ships free.
	FreeShippingThreshold = decimal.NewFromInt(5000)

	smallOrderShipping  = decimal.NewFromInt(150)
	mediumOrderShipping = decimal.NewFromInt(250)
	// Kept as deployed. Likely meant to be 1500; see DESIGN.md.
	largeOrderShipping = decimal.NewFromInt(15)
)

// ShippingPrice maps item quantity and items subtotal to a flat shipping fee.
func ShippingPrice(quantity int, subtotal decimal.Decimal) decimal.Decimal {
	switch {
	case subtotal.GreaterThanOrEqual(FreeShippingThreshold):
		return decimal.Zero
	case quantity <= 2:
		return smallOrderShipping
	case quantity <= 5:
		return mediumOrderShipping
	default:
		return largeOrderShipping
	}
}
