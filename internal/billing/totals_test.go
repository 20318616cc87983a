package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulins/invoice-api/internal/model"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func item(qty, price, discount, rate string, inclusive bool) model.Item {
	return model.Item{
		Name:           "line",
		Qty:            d(qty),
		UnitPrice:      d(price),
		Discount:       d(discount),
		TaxRate:        d(rate),
		IsTaxInclusive: inclusive,
	}
}

func TestCalculateTaxExclusive(t *testing.T) {
	got := Calculate(
		[]model.Item{item("2", "50000", "0", "0.11", false)},
		model.Charges{Shipping: d("10000")},
		decimal.Zero,
	)

	assert.Equal(t, int64(100000), got.Subtotal)
	assert.Equal(t, int64(11000), got.TaxTotal)
	assert.Equal(t, int64(121000), got.GrandTotal)
}

func TestCalculateTaxInclusive(t *testing.T) {
	// Inclusive line: tax is extracted from the base, the subtotal keeps
	// the tax-inclusive base unchanged.
	got := Calculate(
		[]model.Item{item("2", "50000", "0", "0.11", true)},
		model.Charges{Shipping: d("10000")},
		decimal.Zero,
	)

	assert.Equal(t, int64(100000), got.Subtotal)
	assert.Equal(t, int64(9910), got.TaxTotal) // 100000 - 100000/1.11
	assert.Equal(t, int64(119910), got.GrandTotal)
}

func TestCalculateInclusiveZeroRate(t *testing.T) {
	got := Calculate(
		[]model.Item{item("1", "5000", "0", "0", true)},
		model.Charges{},
		decimal.Zero,
	)

	assert.Equal(t, int64(5000), got.Subtotal)
	assert.Equal(t, int64(0), got.TaxTotal)
	assert.Equal(t, int64(5000), got.GrandTotal)
}

func TestCalculateExclusiveTaxIsExact(t *testing.T) {
	cases := []struct {
		qty, price, discount, rate string
		wantTax                    int64
	}{
		{"1", "1000", "0", "0.1", 100},
		{"3", "333", "99", "0.2", 180},   // (999-99)*0.2
		{"2.5", "100", "0", "0.07", 18},  // 250*0.07 = 17.5 -> 18 (half away from zero)
		{"10", "1", "0", "0", 0},
	}

	for _, tc := range cases {
		got := Calculate(
			[]model.Item{item(tc.qty, tc.price, tc.discount, tc.rate, false)},
			model.Charges{},
			decimal.Zero,
		)
		assert.Equalf(t, tc.wantTax, got.TaxTotal, "qty=%s price=%s rate=%s", tc.qty, tc.price, tc.rate)
	}
}

func TestCalculateLineDiscountAndInvoiceDiscount(t *testing.T) {
	got := Calculate(
		[]model.Item{
			item("2", "1500", "500", "0.1", false), // base 2500, tax 250
			item("1", "1000", "0", "0", false),     // base 1000
		},
		model.Charges{Service: d("100"), Rounding: d("-50")},
		d("300"),
	)

	assert.Equal(t, int64(3500), got.Subtotal)
	assert.Equal(t, int64(250), got.TaxTotal)
	// 3500 + 250 + 100 - 50 - 300
	assert.Equal(t, int64(3500), got.GrandTotal)
}

func TestCalculateMixedInclusiveExclusive(t *testing.T) {
	got := Calculate(
		[]model.Item{
			item("1", "11100", "0", "0.11", true),  // base 11100, tax 1100
			item("1", "10000", "0", "0.11", false), // base 10000, tax 1100
		},
		model.Charges{},
		decimal.Zero,
	)

	assert.Equal(t, int64(21100), got.Subtotal)
	assert.Equal(t, int64(2200), got.TaxTotal)
	assert.Equal(t, int64(23300), got.GrandTotal)
}

func TestCalculateEmptyItems(t *testing.T) {
	got := Calculate(nil, model.Charges{Shipping: d("700")}, decimal.Zero)

	assert.Equal(t, int64(0), got.Subtotal)
	assert.Equal(t, int64(0), got.TaxTotal)
	assert.Equal(t, int64(700), got.GrandTotal)
}

func TestCalculateIsDeterministic(t *testing.T) {
	items := []model.Item{
		item("7", "1234.5", "10", "0.11", true),
		item("2", "999.99", "0", "0.05", false),
	}
	charges := model.Charges{Shipping: d("1500"), Service: d("250")}

	first := Calculate(items, charges, d("123"))
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Calculate(items, charges, d("123")))
	}
}
