package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cleanpro-backend/models"
	"cleanpro-backend/utils"
)

// fakeAppointmentRepo is an in-memory repository honoring the guarded-update
// contract: a stale version yields ErrConflict.
type fakeAppointmentRepo struct {
	rows map[string]models.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{rows: map[string]models.Appointment{}}
}

func (r *fakeAppointmentRepo) Create(ctx context.Context, appt *models.Appointment) error {
	if appt.Id == "" {
		appt.Id = uuid.NewString()
	}
	r.rows[appt.Id] = *appt
	return nil
}

func (r *fakeAppointmentRepo) Get(ctx context.Context, id string) (*models.Appointment, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}
	snapshot := row
	return &snapshot, nil
}

func (r *fakeAppointmentRepo) Update(ctx context.Context, appt *models.Appointment) error {
	stored, ok := r.rows[appt.Id]
	if !ok {
		return fmt.Errorf("%w: appointment %s", ErrNotFound, appt.Id)
	}
	if stored.Version != appt.Version {
		return fmt.Errorf("%w: appointment %s was modified concurrently", ErrConflict, appt.Id)
	}
	appt.Version++
	r.rows[appt.Id] = *appt
	return nil
}

func (r *fakeAppointmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeAppointmentRepo) List(ctx context.Context) ([]models.Appointment, error) {
	out := make([]models.Appointment, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

type fakeInvoiceRepo struct {
	rows map[string]models.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{rows: map[string]models.Invoice{}}
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	if inv.Id == "" {
		inv.Id = uuid.NewString()
	}
	r.rows[inv.Id] = *inv
	return nil
}

func (r *fakeInvoiceRepo) Get(ctx context.Context, id string) (*models.Invoice, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, id)
	}
	snapshot := row
	return &snapshot, nil
}

func (r *fakeInvoiceRepo) Update(ctx context.Context, inv *models.Invoice) error {
	stored, ok := r.rows[inv.Id]
	if !ok {
		return fmt.Errorf("%w: invoice %s", ErrNotFound, inv.Id)
	}
	if stored.Version != inv.Version {
		return fmt.Errorf("%w: invoice %s was modified concurrently", ErrConflict, inv.Id)
	}
	inv.Version++
	r.rows[inv.Id] = *inv
	return nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context) ([]models.Invoice, error) {
	out := make([]models.Invoice, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

// fakeDirectory serves customers and addresses from maps and doubles as the
// credit ledger over the same customer records.
type fakeDirectory struct {
	customers map[string]*models.Customer
	addresses map[string]*models.Address
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		customers: map[string]*models.Customer{},
		addresses: map[string]*models.Address{},
	}
}

func (d *fakeDirectory) addCustomer(c models.Customer) *models.Customer {
	if c.Id == "" {
		c.Id = uuid.NewString()
	}
	d.customers[c.Id] = &c
	return &c
}

func (d *fakeDirectory) addAddress(a models.Address) *models.Address {
	if a.Id == "" {
		a.Id = uuid.NewString()
	}
	d.addresses[a.Id] = &a
	return &a
}

func (d *fakeDirectory) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	c, ok := d.customers[id]
	if !ok {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, id)
	}
	return c, nil
}

func (d *fakeDirectory) GetAddress(ctx context.Context, id string) (*models.Address, error) {
	a, ok := d.addresses[id]
	if !ok {
		return nil, fmt.Errorf("%w: address %s", ErrNotFound, id)
	}
	return a, nil
}

func (d *fakeDirectory) DeductCredit(ctx context.Context, customerID string, amount float64) error {
	c, ok := d.customers[customerID]
	if !ok {
		return fmt.Errorf("%w: customer %s", ErrNotFound, customerID)
	}
	if c.CreditBalance < amount {
		return fmt.Errorf("%w: balance %.2f, requested %.2f", ErrInsufficientCredit, c.CreditBalance, amount)
	}
	c.CreditBalance = utils.Round2(c.CreditBalance - amount)
	return nil
}

func (d *fakeDirectory) RefundCredit(ctx context.Context, customerID string, amount float64) error {
	c, ok := d.customers[customerID]
	if !ok {
		return fmt.Errorf("%w: customer %s", ErrNotFound, customerID)
	}
	c.CreditBalance = utils.Round2(c.CreditBalance + amount)
	return nil
}

// conflictingInvoiceRepo fails every Update with ErrConflict, simulating a
// concurrent writer that always wins the guarded write.
type conflictingInvoiceRepo struct {
	*fakeInvoiceRepo
}

func (r *conflictingInvoiceRepo) Update(ctx context.Context, inv *models.Invoice) error {
	return fmt.Errorf("%w: invoice %s was modified concurrently", ErrConflict, inv.Id)
}

type fakeAllocator struct {
	next int
}

func (a *fakeAllocator) NextInvoiceNumber(ctx context.Context) (string, error) {
	a.next++
	return fmt.Sprintf("INV-%05d", a.next), nil
}

// recordingNotifier captures dispatched events; fail makes every delivery error.
type recordingNotifier struct {
	events []models.NotificationEvent
	fail   bool
}

func (n *recordingNotifier) Notify(ctx context.Context, event models.NotificationEvent) error {
	n.events = append(n.events, event)
	if n.fail {
		return errors.New("delivery refused")
	}
	return nil
}

func (n *recordingNotifier) ofType(typ models.NotificationType) []models.NotificationEvent {
	var out []models.NotificationEvent
	for _, e := range n.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

var testClock = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type appointmentFixture struct {
	svc      *AppointmentService
	repo     *fakeAppointmentRepo
	dir      *fakeDirectory
	notifier *recordingNotifier
	customer *models.Customer
}

func newAppointmentFixture() *appointmentFixture {
	repo := newFakeAppointmentRepo()
	dir := newFakeDirectory()
	notifier := &recordingNotifier{}
	svc := NewAppointmentService(repo, dir, notifier, zerolog.Nop())
	svc.now = func() time.Time { return testClock }
	customer := dir.addCustomer(models.Customer{
		FirstName: "Maria",
		LastName:  "Lopez",
		Email:     "maria@example.com",
		Phone:     "555-0101",
	})
	return &appointmentFixture{svc: svc, repo: repo, dir: dir, notifier: notifier, customer: customer}
}

type invoiceFixture struct {
	svc      *InvoiceService
	repo     *fakeInvoiceRepo
	dir      *fakeDirectory
	notifier *recordingNotifier
	customer *models.Customer
}

func newInvoiceFixture() *invoiceFixture {
	repo := newFakeInvoiceRepo()
	dir := newFakeDirectory()
	notifier := &recordingNotifier{}
	svc := NewInvoiceService(repo, dir, &fakeAllocator{}, dir, notifier, zerolog.Nop())
	svc.now = func() time.Time { return testClock }
	customer := dir.addCustomer(models.Customer{
		FirstName:     "James",
		LastName:      "Carter",
		Email:         "james@example.com",
		CreditBalance: 200,
	})
	return &invoiceFixture{svc: svc, repo: repo, dir: dir, notifier: notifier, customer: customer}
}
