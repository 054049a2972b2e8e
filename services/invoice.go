package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cleanpro-backend/models"
	"cleanpro-backend/utils"
)

// InvoiceService owns the invoice status state machine and all monetary
// computation. Subtotal, tax amount and total are derived from the line items
// and persisted together; no operation edits them independently.
type InvoiceService struct {
	repo      InvoiceRepository
	directory CustomerDirectory
	numbers   InvoiceNumberAllocator
	ledger    CreditLedger
	notifier  Notifier
	log       zerolog.Logger
	now       func() time.Time
}

func NewInvoiceService(repo InvoiceRepository, directory CustomerDirectory, numbers InvoiceNumberAllocator, ledger CreditLedger, notifier Notifier, log zerolog.Logger) *InvoiceService {
	return &InvoiceService{
		repo:      repo,
		directory: directory,
		numbers:   numbers,
		ledger:    ledger,
		notifier:  notifier,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LineItemInput is one billable row as submitted by the admin.
type LineItemInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	Rate        float64 `json:"rate" validate:"gte=0"`
}

// CreateInvoiceParams carries the "create invoice" input.
type CreateInvoiceParams struct {
	CustomerID string
	Items      []LineItemInput
	TaxRate    float64
	DueDate    *string
	Notes      string
}

// CreditResult reports the outcome of a credit application.
type CreditResult struct {
	IsFullyPaid      bool    `json:"is_fully_paid"`
	RemainingBalance float64 `json:"remaining_balance"`
}

func validateLineItem(i int, item LineItemInput) error {
	if item.Quantity <= 0 {
		return validationf("line item %d: quantity must be positive", i)
	}
	if item.Rate < 0 {
		return validationf("line item %d: rate must not be negative", i)
	}
	return nil
}

// Create allocates the next invoice number and stores a draft invoice.
func (s *InvoiceService) Create(ctx context.Context, p CreateInvoiceParams) (*models.Invoice, error) {
	if p.CustomerID == "" {
		return nil, validationf("customer is required")
	}
	if len(p.Items) == 0 {
		return nil, validationf("at least one line item is required")
	}
	if strings.TrimSpace(p.Items[0].Description) == "" {
		return nil, validationf("first line item needs a description")
	}
	for i, item := range p.Items {
		if err := validateLineItem(i, item); err != nil {
			return nil, err
		}
	}
	if p.TaxRate < 0 {
		return nil, validationf("tax rate must not be negative")
	}
	if p.DueDate != nil {
		if err := models.ValidDate(*p.DueDate); err != nil {
			return nil, validationf("%v", err)
		}
	}
	if _, err := s.directory.GetCustomer(ctx, p.CustomerID); err != nil {
		return nil, err
	}

	number, err := s.numbers.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		InvoiceNumber: number,
		CustomerID:    p.CustomerID,
		TaxRate:       p.TaxRate,
		Status:        models.InvoiceDraft,
		DueDate:       p.DueDate,
		Notes:         p.Notes,
	}
	for _, item := range p.Items {
		inv.Items = append(inv.Items, models.NewLineItem(item.Description, item.Quantity, item.Rate))
	}
	inv.Recompute()
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Get returns a single invoice.
func (s *InvoiceService) Get(ctx context.Context, id string) (*models.Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *InvoiceService) editableInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvoiceDraft {
		return nil, invalidStatef("invoice %s is %s; line items can only be edited while draft", inv.InvoiceNumber, inv.Status)
	}
	return inv, nil
}

// AddLineItem appends a row to a draft invoice and recomputes the totals.
func (s *InvoiceService) AddLineItem(ctx context.Context, id string, item LineItemInput) (*models.Invoice, error) {
	if strings.TrimSpace(item.Description) == "" {
		return nil, validationf("line item needs a description")
	}
	if err := validateLineItem(0, item); err != nil {
		return nil, err
	}
	inv, err := s.editableInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = append(inv.Items, models.NewLineItem(item.Description, item.Quantity, item.Rate))
	inv.Recompute()
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateLineItem replaces the row at index on a draft invoice. The amount is
// recomputed from quantity and rate, never taken from the caller.
func (s *InvoiceService) UpdateLineItem(ctx context.Context, id string, index int, item LineItemInput) (*models.Invoice, error) {
	if strings.TrimSpace(item.Description) == "" {
		return nil, validationf("line item needs a description")
	}
	if err := validateLineItem(index, item); err != nil {
		return nil, err
	}
	inv, err := s.editableInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(inv.Items) {
		return nil, validationf("line item index %d out of range", index)
	}
	inv.Items[index] = models.NewLineItem(item.Description, item.Quantity, item.Rate)
	inv.Recompute()
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// RemoveLineItem deletes the row at index on a draft invoice. The last
// remaining row cannot be removed; an invoice never bills nothing.
func (s *InvoiceService) RemoveLineItem(ctx context.Context, id string, index int) (*models.Invoice, error) {
	inv, err := s.editableInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(inv.Items) {
		return nil, validationf("line item index %d out of range", index)
	}
	if len(inv.Items) == 1 {
		return nil, validationf("an invoice must keep at least one line item")
	}
	inv.Items = append(inv.Items[:index], inv.Items[index+1:]...)
	inv.Recompute()
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Send delivers the invoice to the customer. The first send moves draft to
// sent; sending again from sent or overdue is an idempotent resend that only
// re-delivers. Paid and cancelled invoices cannot be sent.
func (s *InvoiceService) Send(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch inv.Status {
	case models.InvoiceDraft:
		inv.Status = models.InvoiceSent
		if err := s.repo.Update(ctx, inv); err != nil {
			return nil, err
		}
	case models.InvoiceSent, models.InvoiceOverdue:
		// resend: no status change, no new invoice number
	default:
		return nil, invalidStatef("invoice %s is %s and cannot be sent", inv.InvoiceNumber, inv.Status)
	}

	s.dispatch(ctx, inv, models.NotifyInvoiceSent,
		fmt.Sprintf("Invoice %s for $%.2f is ready. Thank you for your business!", inv.InvoiceNumber, inv.Total))
	return inv, nil
}

// MarkOverdue transitions a sent invoice to overdue and applies the one-time
// 5% late fee as a visible line item. If the fee is already present the call
// only ensures the overdue status: the fee is applied at most once, and a
// repeat call leaves the totals identical.
func (s *InvoiceService) MarkOverdue(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceOverdue && inv.HasLateFee() {
		return inv, nil
	}
	if !inv.Status.CanTransition(models.InvoiceOverdue) {
		return nil, transitionf("invoice %s: %s -> %s", inv.InvoiceNumber, inv.Status, models.InvoiceOverdue)
	}
	if !inv.HasLateFee() {
		// 5% of the current total, which already includes tax and any edits
		fee := utils.Round2(inv.Total * models.LateFeeRate)
		inv.Items = append(inv.Items, models.NewLineItem("Late Fee (5%)", 1, fee))
		inv.Recompute()
	}
	inv.Status = models.InvoiceOverdue
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// MarkPaid records the payment method and settles the invoice.
func (s *InvoiceService) MarkPaid(ctx context.Context, id, rawMethod string) (*models.Invoice, error) {
	method, err := models.ParsePaymentMethod(rawMethod)
	if err != nil {
		return nil, validationf("%v", err)
	}
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.Status.CanTransition(models.InvoicePaid) {
		return nil, transitionf("invoice %s: %s -> %s", inv.InvoiceNumber, inv.Status, models.InvoicePaid)
	}
	inv.PaymentMethod = method
	inv.Status = models.InvoicePaid
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.dispatch(ctx, inv, models.NotifyPaymentReceived,
		fmt.Sprintf("We received your %s payment for invoice %s. Thank you!", method, inv.InvoiceNumber))
	return inv, nil
}

// ApplyCredit deducts from the customer's credit balance and applies the
// amount to this invoice. A credit that clears the remaining balance settles
// the invoice; otherwise the status is unchanged and the caller learns the
// remainder.
func (s *InvoiceService) ApplyCredit(ctx context.Context, id string, amount float64) (*models.Invoice, CreditResult, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, CreditResult{}, err
	}
	if inv.Status != models.InvoiceSent && inv.Status != models.InvoiceOverdue {
		return nil, CreditResult{}, invalidStatef("invoice %s is %s; credit applies to sent or overdue invoices", inv.InvoiceNumber, inv.Status)
	}
	if amount <= 0 {
		return nil, CreditResult{}, validationf("credit amount must be positive")
	}
	outstanding := inv.RemainingBalance()
	if amount > outstanding {
		return nil, CreditResult{}, validationf("credit %.2f exceeds balance due %.2f", amount, outstanding)
	}

	if err := s.ledger.DeductCredit(ctx, inv.CustomerID, amount); err != nil {
		return nil, CreditResult{}, err
	}

	inv.CreditApplied = utils.Round2(inv.CreditApplied + amount)
	remaining := inv.RemainingBalance()
	fullyPaid := remaining == 0
	if fullyPaid {
		inv.Status = models.InvoicePaid
	}
	if err := s.repo.Update(ctx, inv); err != nil {
		// the deduction already landed; put it back so a retry does not
		// debit the customer twice
		if refundErr := s.ledger.RefundCredit(ctx, inv.CustomerID, amount); refundErr != nil {
			s.log.Error().Err(refundErr).
				Str("invoice_id", inv.Id).
				Str("customer_id", inv.CustomerID).
				Float64("amount", amount).
				Msg("credit refund after failed invoice update")
		}
		return nil, CreditResult{}, err
	}

	if fullyPaid {
		s.dispatch(ctx, inv, models.NotifyPaymentReceived,
			fmt.Sprintf("Your credit covered invoice %s in full. Thank you!", inv.InvoiceNumber))
	}
	return inv, CreditResult{IsFullyPaid: fullyPaid, RemainingBalance: remaining}, nil
}

// Cancel voids the invoice. Paid invoices cannot be cancelled; cancelling an
// already-cancelled invoice is a no-op.
func (s *InvoiceService) Cancel(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoicePaid {
		return nil, invalidStatef("invoice %s is paid and cannot be cancelled", inv.InvoiceNumber)
	}
	if inv.Status == models.InvoiceCancelled {
		return inv, nil
	}
	inv.Status = models.InvoiceCancelled
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Archive hides the invoice from default views without deleting it. The flag
// is one-way and orthogonal to status.
func (s *InvoiceService) Archive(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Archived {
		return inv, nil
	}
	inv.Archived = true
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ClaimZelle records a customer-asserted, unverified Zelle payment claim.
func (s *InvoiceService) ClaimZelle(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvoiceSent && inv.Status != models.InvoiceOverdue {
		return nil, invalidStatef("invoice %s is %s; a zelle claim needs an open invoice", inv.InvoiceNumber, inv.Status)
	}
	inv.PaymentMethod = models.PaymentZelle
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// VerifyZelle confirms a Zelle claim; it settles the invoice exactly like
// MarkPaid with the zelle method.
func (s *InvoiceService) VerifyZelle(ctx context.Context, id string) (*models.Invoice, error) {
	return s.MarkPaid(ctx, id, string(models.PaymentZelle))
}

// RejectZelle clears an unverified Zelle claim. The status is unchanged and
// payment remains owed; a timestamped note records the rejection. Once a claim
// is verified the invoice is paid and the recorded method is settled fact, so
// rejection only applies while the invoice is still open.
func (s *InvoiceService) RejectZelle(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvoiceSent && inv.Status != models.InvoiceOverdue {
		return nil, invalidStatef("invoice %s is %s; only an unverified claim on an open invoice can be rejected", inv.InvoiceNumber, inv.Status)
	}
	if inv.PaymentMethod != models.PaymentZelle {
		return nil, invalidStatef("invoice %s has no zelle claim to reject", inv.InvoiceNumber)
	}
	inv.PaymentMethod = ""
	note := fmt.Sprintf("[%s] Zelle payment claim rejected", s.now().Format(time.RFC3339))
	if inv.Notes != "" {
		inv.Notes += "\n"
	}
	inv.Notes += note
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.dispatch(ctx, inv, models.NotifyZelleRejected,
		fmt.Sprintf("We could not verify your Zelle payment for invoice %s. The balance of $%.2f is still due.", inv.InvoiceNumber, inv.RemainingBalance()))
	return inv, nil
}

// RecordRefund notes a refunded amount on a paid invoice. A single recorded
// amount; this is not a ledger.
func (s *InvoiceService) RecordRefund(ctx context.Context, id string, amount float64) (*models.Invoice, error) {
	if amount <= 0 {
		return nil, validationf("refund amount must be positive")
	}
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvoicePaid {
		return nil, invalidStatef("invoice %s is %s; refunds apply to paid invoices", inv.InvoiceNumber, inv.Status)
	}
	if amount > inv.Total {
		return nil, validationf("refund %.2f exceeds invoice total %.2f", amount, inv.Total)
	}
	inv.RefundAmount = utils.Round2(amount)
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// SetDisputed flags or clears a customer dispute. No status authority.
func (s *InvoiceService) SetDisputed(ctx context.Context, id string, disputed bool) (*models.Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Disputed == disputed {
		return inv, nil
	}
	inv.Disputed = disputed
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// SweepOverdue marks every sent invoice whose due date has passed as overdue.
// Run daily; the at-most-once late-fee guard makes repeats safe.
func (s *InvoiceService) SweepOverdue(ctx context.Context) (int, error) {
	invoices, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	today := s.now().Format("2006-01-02")
	swept := 0
	for _, inv := range invoices {
		if inv.Status != models.InvoiceSent || inv.Archived || inv.DueDate == nil || *inv.DueDate >= today {
			continue
		}
		if _, err := s.MarkOverdue(ctx, inv.Id); err != nil {
			s.log.Error().Err(err).Str("invoice", inv.InvoiceNumber).Msg("overdue sweep failed for invoice")
			continue
		}
		swept++
	}
	if swept > 0 {
		s.log.Info().Int("count", swept).Msg("invoices marked overdue by sweep")
	}
	return swept, nil
}

// dispatch emits a notification event after the state change is persisted.
// Failures are logged and never propagated.
func (s *InvoiceService) dispatch(ctx context.Context, inv *models.Invoice, typ models.NotificationType, message string) {
	if s.notifier == nil {
		return
	}
	evt := models.NotificationEvent{
		Type:       typ,
		CustomerID: inv.CustomerID,
		Message:    message,
		EntityKind: "invoice",
		EntityID:   inv.Id,
	}
	if cust, err := s.directory.GetCustomer(ctx, inv.CustomerID); err == nil {
		evt.RecipientName = cust.Name()
		evt.RecipientEmail = cust.Email
	}
	if err := s.notifier.Notify(ctx, evt); err != nil {
		s.log.Error().Err(err).
			Str("type", string(typ)).
			Str("invoice_id", inv.Id).
			Msg("notification delivery failed")
	}
}
