package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cleanpro-backend/utils"
)

// InvoiceStatus is the closed set of invoice states.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// PaymentMethod enumerates accepted payment channels. Empty means unset.
type PaymentMethod string

const (
	PaymentZelle PaymentMethod = "zelle"
	PaymentCash  PaymentMethod = "cash"
	PaymentCheck PaymentMethod = "check"
)

// LateFeeRate is the one-time surcharge applied when an invoice goes overdue.
const LateFeeRate = 0.05

// lateFeeMarker tags the late-fee line item so re-application is detectable.
const lateFeeMarker = "Late Fee"

// LineItem is one billable row. Amount is always quantity x rate, rounded at
// persistence; it is never edited independently of its inputs.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// IsLateFee reports whether this row is the overdue surcharge.
func (li LineItem) IsLateFee() bool {
	return strings.Contains(li.Description, lateFeeMarker)
}

type Invoice struct {
	Id            string `json:"id" gorm:"primaryKey"`
	InvoiceNumber string `json:"invoice_number" gorm:"unique;not null"`
	CustomerID    string `json:"customer_id" gorm:"index;not null"`

	// Items is the ordered line-item list, embedded on the invoice row.
	Items     datatypes.JSONSlice[LineItem] `json:"line_items"`
	TaxRate   float64                       `json:"tax_rate"`
	Subtotal  float64                       `json:"subtotal" gorm:"type:numeric(12,2)"`
	TaxAmount float64                       `json:"tax_amount" gorm:"type:numeric(12,2)"`
	Total     float64                       `json:"total" gorm:"type:numeric(12,2)"`

	Status        InvoiceStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	PaymentMethod PaymentMethod `json:"payment_method" gorm:"type:varchar(10)"`
	Archived      bool          `json:"archived" gorm:"index"`

	DueDate       *string `json:"due_date" gorm:"type:varchar(10)"`
	Notes         string  `json:"notes"`
	CreditApplied float64 `json:"credit_applied" gorm:"type:numeric(12,2)"`
	RefundAmount  float64 `json:"refund_amount" gorm:"type:numeric(12,2)"`
	Disputed      bool    `json:"disputed"`

	// Version guards concurrent updates (optimistic lock).
	Version int `json:"-" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (inv *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if inv.Id == "" {
		inv.Id = uuid.NewString()
	}
	return
}

// ParseInvoiceStatus validates a raw status string against the closed enum.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch st := InvoiceStatus(strings.TrimSpace(s)); st {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown invoice status %q", s)
	}
}

// ParsePaymentMethod validates a raw payment method string.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.TrimSpace(s)); m {
	case PaymentZelle, PaymentCash, PaymentCheck:
		return m, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// invoiceTransitions is the single source of truth for legal status moves.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:   {InvoiceSent, InvoiceCancelled},
	InvoiceSent:    {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue: {InvoicePaid, InvoiceCancelled},
}

// CanTransition reports whether an invoice may move from to next.
func (s InvoiceStatus) CanTransition(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s InvoiceStatus) IsTerminal() bool {
	return len(invoiceTransitions[s]) == 0
}

// NewLineItem computes the derived amount for a row. Quantity and rate are
// kept at full precision; the amount is rounded at the point of storage.
func NewLineItem(description string, quantity, rate float64) LineItem {
	return LineItem{
		Description: strings.TrimSpace(description),
		Quantity:    quantity,
		Rate:        rate,
		Amount:      utils.Round2(quantity * rate),
	}
}

// Recompute rebuilds subtotal, tax amount and total from the line items.
// The three derived fields are always written together. The late-fee row
// counts toward the subtotal and total but is not taxed: the fee is 5% of a
// total that already included tax, so taxing it again would compound.
func (inv *Invoice) Recompute() {
	var subtotal, taxable float64
	for _, li := range inv.Items {
		subtotal += li.Quantity * li.Rate
		if !li.IsLateFee() {
			taxable += li.Quantity * li.Rate
		}
	}
	inv.Subtotal = utils.Round2(subtotal)
	inv.TaxAmount = utils.Round2(taxable * inv.TaxRate / 100)
	inv.Total = utils.Round2(inv.Subtotal + inv.TaxAmount)
}

// HasLateFee reports whether a late-fee row is already present.
func (inv *Invoice) HasLateFee() bool {
	for _, li := range inv.Items {
		if li.IsLateFee() {
			return true
		}
	}
	return false
}

// RemainingBalance is the amount still owed after applied credit, floored at 0.
func (inv *Invoice) RemainingBalance() float64 {
	rem := utils.Round2(inv.Total - inv.CreditApplied)
	if rem < 0 {
		return 0
	}
	return rem
}
