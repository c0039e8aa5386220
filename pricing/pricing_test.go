package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestShippingPrice(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		subtotal string
		want     string
	}{
		{"free at threshold", 1, "5000", "0"},
		{"free above threshold", 9, "7200.50", "0"},
		{"one unit", 1, "100", "150"},
		{"two units", 2, "4999.99", "150"},
		{"three units", 3, "300", "250"},
		{"five units", 5, "300", "250"},
		{"six units", 6, "4000", "15"},
		{"zero units", 0, "0", "150"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShippingPrice(tt.quantity, d(tt.subtotal))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestCompute_SingleItem(t *testing.T) {
	totals := Compute([]Line{{UnitPrice: d("1000"), Quantity: 1}})

	assert.Equal(t, 1, totals.Quantity)
	assert.True(t, totals.ItemsPrice.Equal(d("1000")))
	assert.True(t, totals.TaxPrice.Equal(d("300.00")))
	assert.True(t, totals.ShippingPrice.Equal(d("150")))
	assert.True(t, totals.TotalPrice.Equal(d("1450")))
}

func TestCompute_LargeQuantityShipping(t *testing.T) {
	totals := Compute([]Line{
		{UnitPrice: d("500"), Quantity: 4},
		{UnitPrice: d("1000"), Quantity: 2},
	})

	assert.Equal(t, 6, totals.Quantity)
	assert.True(t, totals.ItemsPrice.Equal(d("4000")))
	assert.True(t, totals.ShippingPrice.Equal(d("15")))
	assert.True(t, totals.TotalPrice.Equal(d("5215")))
}

func TestCompute_TaxRoundsToCents(t *testing.T) {
	totals := Compute([]Line{{UnitPrice: d("33.33"), Quantity: 1}})

	assert.True(t, totals.TaxPrice.Equal(d("10.00")), "tax %s", totals.TaxPrice)
	assert.True(t, totals.TotalPrice.Equal(d("193.33")), "total %s", totals.TotalPrice)
}

func TestCompute_ItemsRoundToCents(t *testing.T) {
	totals := Compute([]Line{{UnitPrice: d("1.0149"), Quantity: 1}})

	assert.True(t, totals.ItemsPrice.Equal(d("1.01")), "items %s", totals.ItemsPrice)
	assert.True(t, totals.TaxPrice.Equal(d("0.30")), "tax %s", totals.TaxPrice)
	assert.True(t, totals.ShippingPrice.Equal(d("150")))
	assert.True(t, totals.TotalPrice.Equal(d("151.31")), "total %s", totals.TotalPrice)
	sum := totals.ItemsPrice.Add(totals.TaxPrice).Add(totals.ShippingPrice)
	assert.True(t, totals.TotalPrice.Equal(sum))
}

func TestCompute_EmptyIsZero(t *testing.T) {
	for _, lines := range [][]Line{nil, {}, {{UnitPrice: d("10"), Quantity: 0}}} {
		totals := Compute(lines)
		assert.Equal(t, 0, totals.Quantity)
		assert.True(t, totals.ItemsPrice.IsZero())
		assert.True(t, totals.TaxPrice.IsZero())
		assert.True(t, totals.ShippingPrice.IsZero())
		assert.True(t, totals.TotalPrice.IsZero())
	}
}

func TestWithDiscount(t *testing.T) {
	totals := Compute([]Line{{UnitPrice: d("1000"), Quantity: 1}})

	discounted := totals.WithDiscount(d("100"))
	assert.True(t, discounted.Discount.Equal(d("100")))
	assert.True(t, discounted.TotalPrice.Equal(d("1350")))

	capped := totals.WithDiscount(d("99999"))
	assert.True(t, capped.Discount.Equal(d("1450")))
	assert.True(t, capped.TotalPrice.IsZero())
}

func TestCouponDiscount(t *testing.T) {
	got, err := CouponDiscount("percentage", d("10"), d("2500"))
	require.NoError(t, err)
	assert.True(t, got.Equal(d("250")))

	got, err = CouponDiscount("fixed", d("300"), d("200"))
	require.NoError(t, err)
	assert.True(t, got.Equal(d("200")))

	_, err = CouponDiscount("percentage", d("120"), d("100"))
	assert.ErrorIs(t, err, ErrPercentageRange)

	_, err = CouponDiscount("fixed", d("-1"), d("100"))
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = CouponDiscount("bogo", d("1"), d("100"))
	assert.ErrorIs(t, err, ErrCouponType)
}
