package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceNumber renders the human-readable sequence identifier, unique per
// merchant per month: INV/YYYY/MM/NNNN.
func InvoiceNumber(year int, month time.Month, seq int) string {
	return fmt.Sprintf("INV/%04d/%02d/%04d", year, int(month), seq)
}

type InvoiceStatus string

const (
	StatusIssued InvoiceStatus = "issued"
	StatusPaid   InvoiceStatus = "paid"
	StatusVoid   InvoiceStatus = "void"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Valid() bool {
	return s == StatusIssued || s == StatusPaid || s == StatusVoid
}

// Item is one invoice line. Amounts are whole currency units (no minor
// units); qty may be fractional.
type Item struct {
	Name           string          `json:"name"`
	Qty            decimal.Decimal `json:"qty"`
	Unit           string          `json:"unit,omitempty"` // default "pcs"
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       decimal.Decimal `json:"discount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	IsTaxInclusive bool            `json:"is_tax_inclusive"`
}

// Charges are flat additive adjustments applied to the grand total.
type Charges struct {
	Shipping decimal.Decimal `json:"shipping"`
	Service  decimal.Decimal `json:"service"`
	Rounding decimal.Decimal `json:"rounding"`
}

// InvoicePayload is the validated create-invoice body. The raw JSON is kept
// verbatim on the invoice row for audit; this struct only drives validation
// and totals.
type InvoicePayload struct {
	Customer      json.RawMessage `json:"customer"`
	Items         []Item          `json:"items"`
	Charges       Charges         `json:"charges"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxStrategy   string          `json:"tax_strategy,omitempty"` // "per_item"
	Currency      string          `json:"currency,omitempty"`     // default "IDR"
	IssueDate     string          `json:"issue_date"`
	DueDate       string          `json:"due_date,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// Totals are whole currency units, each rounded half away from zero.
type Totals struct {
	Subtotal   int64 `json:"subtotal"`
	TaxTotal   int64 `json:"tax_total"`
	GrandTotal int64 `json:"grand_total"`
}

// Invoice is the DB entity persisted in the invoices table.
type Invoice struct {
	ID         string          `db:"id" json:"id"`
	MerchantID string          `db:"merchant_id" json:"merchant_id"`
	Number     string          `db:"number" json:"number"`
	Status     InvoiceStatus   `db:"status" json:"status"`
	Currency   string          `db:"currency" json:"currency"`
	Payload    json.RawMessage `db:"payload" json:"payload"`
	Subtotal   int64           `db:"subtotal" json:"subtotal"`
	TaxTotal   int64           `db:"tax_total" json:"tax_total"`
	GrandTotal int64           `db:"grand_total" json:"grand_total"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

func (i *Invoice) Totals() Totals {
	return Totals{Subtotal: i.Subtotal, TaxTotal: i.TaxTotal, GrandTotal: i.GrandTotal}
}
