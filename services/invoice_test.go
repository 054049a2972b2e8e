package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanpro-backend/models"
)

func createTestInvoice(t *testing.T, f *invoiceFixture, items []LineItemInput, taxRate float64) *models.Invoice {
	t.Helper()
	inv, err := f.svc.Create(context.Background(), CreateInvoiceParams{
		CustomerID: f.customer.Id,
		Items:      items,
		TaxRate:    taxRate,
	})
	require.NoError(t, err)
	return inv
}

func sentTestInvoice(t *testing.T, f *invoiceFixture, items []LineItemInput, taxRate float64) *models.Invoice {
	t.Helper()
	inv := createTestInvoice(t, f, items, taxRate)
	inv, err := f.svc.Send(context.Background(), inv.Id)
	require.NoError(t, err)
	return inv
}

func TestCreateInvoiceComputesTotals(t *testing.T) {
	f := newInvoiceFixture()
	inv := createTestInvoice(t, f, []LineItemInput{
		{Description: "Deep cleaning", Quantity: 1, Rate: 100},
		{Description: "Window add-on", Quantity: 2, Rate: 12.50},
	}, 8.25)

	assert.Equal(t, "INV-00001", inv.InvoiceNumber)
	assert.Equal(t, models.InvoiceDraft, inv.Status)
	assert.Equal(t, 125.00, inv.Subtotal)
	assert.Equal(t, 10.31, inv.TaxAmount)
	assert.Equal(t, 135.31, inv.Total)
}

func TestCreateInvoiceSequentialNumbers(t *testing.T) {
	f := newInvoiceFixture()
	items := []LineItemInput{{Description: "Standard cleaning", Quantity: 1, Rate: 80}}

	first := createTestInvoice(t, f, items, 0)
	second := createTestInvoice(t, f, items, 0)
	assert.Equal(t, "INV-00001", first.InvoiceNumber)
	assert.Equal(t, "INV-00002", second.InvoiceNumber)
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()

	cases := []struct {
		name   string
		params CreateInvoiceParams
		want   error
	}{
		{
			name:   "no items",
			params: CreateInvoiceParams{CustomerID: f.customer.Id},
			want:   ErrValidation,
		},
		{
			name: "blank first description",
			params: CreateInvoiceParams{
				CustomerID: f.customer.Id,
				Items:      []LineItemInput{{Description: "  ", Quantity: 1, Rate: 80}},
			},
			want: ErrValidation,
		},
		{
			name: "zero quantity",
			params: CreateInvoiceParams{
				CustomerID: f.customer.Id,
				Items:      []LineItemInput{{Description: "Cleaning", Quantity: 0, Rate: 80}},
			},
			want: ErrValidation,
		},
		{
			name: "negative rate",
			params: CreateInvoiceParams{
				CustomerID: f.customer.Id,
				Items:      []LineItemInput{{Description: "Cleaning", Quantity: 1, Rate: -5}},
			},
			want: ErrValidation,
		},
		{
			name: "negative tax rate",
			params: CreateInvoiceParams{
				CustomerID: f.customer.Id,
				Items:      []LineItemInput{{Description: "Cleaning", Quantity: 1, Rate: 80}},
				TaxRate:    -1,
			},
			want: ErrValidation,
		},
		{
			name: "unknown customer",
			params: CreateInvoiceParams{
				CustomerID: "nope",
				Items:      []LineItemInput{{Description: "Cleaning", Quantity: 1, Rate: 80}},
			},
			want: ErrNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.params)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLineItemEditsRecomputeTotals(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := createTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 10)

	inv, err := f.svc.AddLineItem(ctx, inv.Id, LineItemInput{Description: "Oven", Quantity: 1, Rate: 30})
	require.NoError(t, err)
	assert.Equal(t, 130.00, inv.Subtotal)
	assert.Equal(t, 143.00, inv.Total)

	inv, err = f.svc.UpdateLineItem(ctx, inv.Id, 1, LineItemInput{Description: "Oven", Quantity: 1, Rate: 40})
	require.NoError(t, err)
	assert.Equal(t, 140.00, inv.Subtotal)
	assert.Equal(t, 154.00, inv.Total)

	inv, err = f.svc.RemoveLineItem(ctx, inv.Id, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.00, inv.Subtotal)
	assert.Equal(t, 110.00, inv.Total)
}

func TestLineItemEditsRequireDraft(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, err := f.svc.AddLineItem(ctx, inv.Id, LineItemInput{Description: "Oven", Quantity: 1, Rate: 30})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.UpdateLineItem(ctx, inv.Id, 0, LineItemInput{Description: "Oven", Quantity: 1, Rate: 30})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.RemoveLineItem(ctx, inv.Id, 0)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRemoveLastLineItemFails(t *testing.T) {
	f := newInvoiceFixture()
	inv := createTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, err := f.svc.RemoveLineItem(context.Background(), inv.Id, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSendMovesDraftToSentAndResendIsIdempotent(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := createTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	inv, err := f.svc.Send(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceSent, inv.Status)

	resent, err := f.svc.Send(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceSent, resent.Status)
	assert.Equal(t, inv.InvoiceNumber, resent.InvoiceNumber)

	// both sends deliver
	assert.Len(t, f.notifier.ofType(models.NotifyInvoiceSent), 2)
}

func TestSendPaidInvoiceFails(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, err := f.svc.MarkPaid(ctx, inv.Id, "cash")
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, inv.Id)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestMarkOverdueAppliesLateFeeOnce(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Deep cleaning", Quantity: 1, Rate: 125},
	}, 8.25)
	require.Equal(t, 135.31, inv.Total)

	inv, err := f.svc.MarkOverdue(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceOverdue, inv.Status)
	require.Len(t, inv.Items, 2)
	assert.Equal(t, 6.77, inv.Items[1].Amount) // 5% of 135.31
	assert.Equal(t, 131.77, inv.Subtotal)
	assert.Equal(t, 10.31, inv.TaxAmount) // fee is not taxed
	assert.Equal(t, 142.08, inv.Total)

	// repeat call leaves the totals identical
	again, err := f.svc.MarkOverdue(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, inv.Total, again.Total)
	assert.Len(t, again.Items, 2)
}

func TestMarkOverdueRequiresSent(t *testing.T) {
	f := newInvoiceFixture()
	inv := createTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, err := f.svc.MarkOverdue(context.Background(), inv.Id)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkPaidRecordsMethodAndNotifies(t *testing.T) {
	f := newInvoiceFixture()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	inv, err := f.svc.MarkPaid(context.Background(), inv.Id, "check")
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, inv.Status)
	assert.Equal(t, models.PaymentCheck, inv.PaymentMethod)
	assert.Len(t, f.notifier.ofType(models.NotifyPaymentReceived), 1)
}

func TestMarkPaidUnknownMethod(t *testing.T) {
	f := newInvoiceFixture()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, err := f.svc.MarkPaid(context.Background(), inv.Id, "barter")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApplyCreditFullySettles(t *testing.T) {
	f := newInvoiceFixture()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Move-out cleaning", Quantity: 1, Rate: 132},
	}, 0)

	inv, result, err := f.svc.ApplyCredit(context.Background(), inv.Id, 132)
	require.NoError(t, err)
	assert.True(t, result.IsFullyPaid)
	assert.Equal(t, 0.00, result.RemainingBalance)
	assert.Equal(t, models.InvoicePaid, inv.Status)
	assert.Equal(t, 68.00, f.customer.CreditBalance)
	assert.Len(t, f.notifier.ofType(models.NotifyPaymentReceived), 1)
}

func TestApplyCreditPartial(t *testing.T) {
	f := newInvoiceFixture()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Move-out cleaning", Quantity: 1, Rate: 132},
	}, 0)

	inv, result, err := f.svc.ApplyCredit(context.Background(), inv.Id, 50)
	require.NoError(t, err)
	assert.False(t, result.IsFullyPaid)
	assert.Equal(t, 82.00, result.RemainingBalance)
	assert.Equal(t, models.InvoiceSent, inv.Status)
	assert.Equal(t, 150.00, f.customer.CreditBalance)
	assert.Empty(t, f.notifier.ofType(models.NotifyPaymentReceived))
}

func TestApplyCreditValidation(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, _, err := f.svc.ApplyCredit(ctx, inv.Id, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = f.svc.ApplyCredit(ctx, inv.Id, 100.01)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApplyCreditInsufficientBalance(t *testing.T) {
	f := newInvoiceFixture()
	f.customer.CreditBalance = 10
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, _, err := f.svc.ApplyCredit(context.Background(), inv.Id, 50)
	assert.ErrorIs(t, err, ErrInsufficientCredit)

	// invoice untouched on ledger failure
	got, err := f.svc.Get(context.Background(), inv.Id)
	require.NoError(t, err)
	assert.Equal(t, 0.00, got.CreditApplied)
}

func TestApplyCreditRefundsLedgerOnConflict(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	f.svc.repo = &conflictingInvoiceRepo{fakeInvoiceRepo: f.repo}

	_, _, err := f.svc.ApplyCredit(ctx, inv.Id, 50)
	assert.ErrorIs(t, err, ErrConflict)

	// the deduction was compensated; a retry will not double-debit
	assert.Equal(t, 200.00, f.customer.CreditBalance)

	f.svc.repo = f.repo
	got, err := f.svc.Get(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, 0.00, got.CreditApplied)
	assert.Equal(t, models.InvoiceSent, got.Status)
}

func TestApplyCreditRequiresOpenInvoice(t *testing.T) {
	f := newInvoiceFixture()
	inv := createTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, _, err := f.svc.ApplyCredit(context.Background(), inv.Id, 50)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelRules(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	inv, err := f.svc.Cancel(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceCancelled, inv.Status)

	// cancelling again is a no-op
	inv, err = f.svc.Cancel(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceCancelled, inv.Status)
}

func TestCancelPaidInvoiceFails(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, err := f.svc.MarkPaid(ctx, inv.Id, "cash")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, inv.Id)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestArchiveIsOneWay(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	inv, err := f.svc.Archive(ctx, inv.Id)
	require.NoError(t, err)
	assert.True(t, inv.Archived)
	assert.Equal(t, models.InvoiceSent, inv.Status)

	inv, err = f.svc.Archive(ctx, inv.Id)
	require.NoError(t, err)
	assert.True(t, inv.Archived)
}

func TestZelleClaimVerifyFlow(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	inv, err := f.svc.ClaimZelle(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentZelle, inv.PaymentMethod)
	assert.Equal(t, models.InvoiceSent, inv.Status)

	inv, err = f.svc.VerifyZelle(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, inv.Status)
	assert.Equal(t, models.PaymentZelle, inv.PaymentMethod)
}

func TestZelleRejectClearsClaimAndNotes(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, err := f.svc.ClaimZelle(ctx, inv.Id)
	require.NoError(t, err)

	inv, err = f.svc.RejectZelle(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethod(""), inv.PaymentMethod)
	assert.Equal(t, models.InvoiceSent, inv.Status)
	assert.Contains(t, inv.Notes, "Zelle payment claim rejected")
	assert.Contains(t, inv.Notes, "2026-03-15T10:00:00Z")
	assert.Len(t, f.notifier.ofType(models.NotifyZelleRejected), 1)
}

func TestZelleRejectVerifiedPaymentFails(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, err := f.svc.ClaimZelle(ctx, inv.Id)
	require.NoError(t, err)
	_, err = f.svc.VerifyZelle(ctx, inv.Id)
	require.NoError(t, err)

	// a verified claim is settled fact on a paid invoice
	_, err = f.svc.RejectZelle(ctx, inv.Id)
	assert.ErrorIs(t, err, ErrInvalidState)

	got, err := f.svc.Get(ctx, inv.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, got.Status)
	assert.Equal(t, models.PaymentZelle, got.PaymentMethod)
	assert.NotContains(t, got.Notes, "rejected")
}

func TestZelleRejectWithoutClaimFails(t *testing.T) {
	f := newInvoiceFixture()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, err := f.svc.RejectZelle(context.Background(), inv.Id)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestZelleClaimRequiresOpenInvoice(t *testing.T) {
	f := newInvoiceFixture()
	inv := createTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, err := f.svc.ClaimZelle(context.Background(), inv.Id)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRecordRefundRules(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	_, err := f.svc.RecordRefund(ctx, inv.Id, 20)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.MarkPaid(ctx, inv.Id, "cash")
	require.NoError(t, err)

	_, err = f.svc.RecordRefund(ctx, inv.Id, 120)
	assert.ErrorIs(t, err, ErrValidation)

	inv, err = f.svc.RecordRefund(ctx, inv.Id, 20)
	require.NoError(t, err)
	assert.Equal(t, 20.00, inv.RefundAmount)
	assert.Equal(t, models.InvoicePaid, inv.Status)
}

func TestSetDisputed(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()
	inv := sentTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	inv, err := f.svc.SetDisputed(ctx, inv.Id, true)
	require.NoError(t, err)
	assert.True(t, inv.Disputed)

	inv, err = f.svc.SetDisputed(ctx, inv.Id, false)
	require.NoError(t, err)
	assert.False(t, inv.Disputed)
}

func TestSweepOverdue(t *testing.T) {
	f := newInvoiceFixture()
	ctx := context.Background()

	due := "2026-03-10" // before the fixture clock
	future := "2026-04-01"

	overdue, err := f.svc.Create(ctx, CreateInvoiceParams{
		CustomerID: f.customer.Id,
		Items:      []LineItemInput{{Description: "Standard cleaning", Quantity: 1, Rate: 100}},
		DueDate:    &due,
	})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, overdue.Id)
	require.NoError(t, err)

	notDue, err := f.svc.Create(ctx, CreateInvoiceParams{
		CustomerID: f.customer.Id,
		Items:      []LineItemInput{{Description: "Standard cleaning", Quantity: 1, Rate: 100}},
		DueDate:    &future,
	})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, notDue.Id)
	require.NoError(t, err)

	draft := createTestInvoice(t, f, []LineItemInput{
		{Description: "Standard cleaning", Quantity: 1, Rate: 100},
	}, 0)

	swept, err := f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := f.svc.Get(ctx, overdue.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceOverdue, got.Status)
	assert.True(t, got.HasLateFee())

	got, err = f.svc.Get(ctx, notDue.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceSent, got.Status)

	got, err = f.svc.Get(ctx, draft.Id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceDraft, got.Status)

	// running the sweep again changes nothing
	swept, err = f.svc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}
