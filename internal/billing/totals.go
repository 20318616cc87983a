// Package billing computes invoice totals. Pure functions only: no I/O,
// no persisted state, safe to recompute for display.
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/aulins/invoice-api/internal/model"
)

var one = decimal.NewFromInt(1)

// Calculate aggregates line items, flat charges and an invoice-level
// discount into whole-currency-unit totals.
//
// Per line: base = unit_price*qty - discount. Tax-exclusive lines add
// base*tax_rate of tax. Tax-inclusive lines already contain tax in their
// base, so the tax share is extracted (base - base/(1+rate)) while the
// subtotal keeps the tax-inclusive base unchanged.
//
// Each of the three outputs is rounded independently to the nearest whole
// unit, half away from zero (decimal.Round semantics). Callers comparing
// re-computed totals must use the same rule.
func Calculate(items []model.Item, charges model.Charges, discountTotal decimal.Decimal) model.Totals {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero

	for _, it := range items {
		base := it.UnitPrice.Mul(it.Qty).Sub(it.Discount)
		subtotal = subtotal.Add(base)
		taxTotal = taxTotal.Add(lineTax(base, it))
	}

	grand := subtotal.Add(taxTotal).
		Add(charges.Shipping).
		Add(charges.Service).
		Add(charges.Rounding).
		Sub(discountTotal)

	return model.Totals{
		Subtotal:   subtotal.Round(0).IntPart(),
		TaxTotal:   taxTotal.Round(0).IntPart(),
		GrandTotal: grand.Round(0).IntPart(),
	}
}

func lineTax(base decimal.Decimal, it model.Item) decimal.Decimal {
	if it.IsTaxInclusive {
		if it.TaxRate.IsZero() {
			return decimal.Zero
		}
		return base.Sub(base.Div(one.Add(it.TaxRate)))
	}
	return base.Mul(it.TaxRate)
}
