package services

import (
	"context"

	"cleanpro-backend/models"
)

// AppointmentRepository persists appointments. Update must apply a guarded
// write against the entity's version and return ErrConflict when the row
// changed since it was read.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	Get(ctx context.Context, id string) (*models.Appointment, error)
	Update(ctx context.Context, appt *models.Appointment) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Appointment, error)
}

// InvoiceRepository persists invoices with the same guarded-update contract.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *models.Invoice) error
	Get(ctx context.Context, id string) (*models.Invoice, error)
	Update(ctx context.Context, inv *models.Invoice) error
	List(ctx context.Context) ([]models.Invoice, error)
}

// CustomerDirectory is the read-only customer/address lookup the engine
// consumes; it never writes back.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	GetAddress(ctx context.Context, id string) (*models.Address, error)
}

// InvoiceNumberAllocator hands out unique, monotonically increasing invoice
// numbers. Allocation must be atomic under concurrent creation.
type InvoiceNumberAllocator interface {
	NextInvoiceNumber(ctx context.Context) (string, error)
}

// CreditLedger deducts from a customer's standing credit balance. Deduct
// returns ErrInsufficientCredit when the balance cannot cover the amount;
// Refund restores a deduction whose invoice write did not land.
type CreditLedger interface {
	DeductCredit(ctx context.Context, customerID string, amount float64) error
	RefundCredit(ctx context.Context, customerID string, amount float64) error
}

// Notifier delivers a structured event to the customer. Delivery failure is
// non-fatal to the state change that produced the event.
type Notifier interface {
	Notify(ctx context.Context, event models.NotificationEvent) error
}
