package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// TaxRate is applied to the items subtotal regardless of jurisdiction.
var TaxRate = decimal.RequireFromString("0.3")

// Line is one priced cart or order line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals aggregates the derived money fields of a cart or order.
type Totals struct {
	Quantity      int
	ItemsPrice    decimal.Decimal
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	Discount      decimal.Decimal
	TotalPrice    decimal.Decimal
}

// Compute derives quantity, items, tax, shipping and total from lines.
// When the lines hold no units every amount is zero.
func Compute(lines []Line) Totals {
	quantity := 0
	items := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		quantity += l.Quantity
		items = items.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	if quantity == 0 {
		return Totals{
			ItemsPrice:    decimal.Zero,
			TaxPrice:      decimal.Zero,
			ShippingPrice: decimal.Zero,
			Discount:      decimal.Zero,
			TotalPrice:    decimal.Zero,
		}
	}

	items = items.Round(2)
	tax := items.Mul(TaxRate).Round(2)
	shipping := ShippingPrice(quantity, items)
	return Totals{
		Quantity:      quantity,
		ItemsPrice:    items,
		TaxPrice:      tax,
		ShippingPrice: shipping,
		Discount:      decimal.Zero,
		TotalPrice:    items.Add(tax).Add(shipping).Round(2),
	}
}

// WithDiscount subtracts discount from the total. The discount is capped so
// the total never goes below zero.
func (t Totals) WithDiscount(discount decimal.Decimal) Totals {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	gross := t.ItemsPrice.Add(t.TaxPrice).Add(t.ShippingPrice)
	if discount.GreaterThan(gross) {
		discount = gross
	}
	t.Discount = discount.Round(2)
	t.TotalPrice = gross.Sub(t.Discount).Round(2)
	return t
}

var (
	ErrPercentageRange = errors.New("percentage must be between 0 and 100")
	ErrNegativeAmount  = errors.New("discount amount cannot be negative")
	ErrCouponType      = errors.New("invalid coupon type")
)

// CouponDiscount returns the discount a coupon grants on an items subtotal.
// Percentage coupons take value percent of the subtotal; fixed coupons take
// value, capped at the subtotal.
func CouponDiscount(couponType string, value, itemsPrice decimal.Decimal) (decimal.Decimal, error) {
	switch couponType {
	case "percentage":
		if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
			return decimal.Zero, ErrPercentageRange
		}
		return itemsPrice.Mul(value).Div(decimal.NewFromInt(100)).Round(2), nil
	case "fixed":
		if value.IsNegative() {
			return decimal.Zero, ErrNegativeAmount
		}
		if value.GreaterThan(itemsPrice) {
			return itemsPrice, nil
		}
		return value, nil
	default:
		return decimal.Zero, ErrCouponType
	}
}

// Float converts an amount to the float64 stored on documents.
func Float(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// FromFloat converts a stored float64 amount to a decimal.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
