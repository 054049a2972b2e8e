package services

import (
	"context"
	"sort"
	"strings"

	"cleanpro-backend/models"
	"cleanpro-backend/utils"
)

// Pseudo-statuses accepted by the filters alongside the real enums.
const (
	PseudoStatusToday    = "today"    // appointments scheduled for the current date
	PseudoStatusArchived = "archived" // switches the invoice base collection
)

// AppointmentQuery narrows the appointment collection for the admin list view.
type AppointmentQuery struct {
	Search string // case-insensitive substring on customer name/email/phone
	Status string // appointment status or "today"
	Date   string // exact YYYY-MM-DD match
}

// InvoiceQuery narrows the invoice collection for the admin list view.
type InvoiceQuery struct {
	Search string // case-insensitive substring on number/customer name/email
	Status string // invoice status or "archived"
}

// AppointmentStats summarizes the appointment collection.
type AppointmentStats struct {
	Total    int                              `json:"total"`
	ByStatus map[models.AppointmentStatus]int `json:"by_status"`
	Today    int                              `json:"today"`
}

// InvoiceStats summarizes the non-archived invoice collection. Revenue is the
// sum of totals over paid invoices.
type InvoiceStats struct {
	Total    int                          `json:"total"`
	ByStatus map[models.InvoiceStatus]int `json:"by_status"`
	Revenue  float64                      `json:"revenue"`
}

// customerLookup memoizes directory reads for one filter pass.
func customerLookup(ctx context.Context, directory CustomerDirectory) func(id string) *models.Customer {
	cache := map[string]*models.Customer{}
	return func(id string) *models.Customer {
		if c, ok := cache[id]; ok {
			return c
		}
		c, err := directory.GetCustomer(ctx, id)
		if err != nil {
			c = nil
		}
		cache[id] = c
		return c
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Filter returns appointments matching the query, sorted ascending by
// scheduled date then start time. It performs no transitions.
func (s *AppointmentService) Filter(ctx context.Context, q AppointmentQuery) ([]models.Appointment, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var status models.AppointmentStatus
	today := q.Status == PseudoStatusToday
	if q.Status != "" && !today {
		status, err = models.ParseAppointmentStatus(q.Status)
		if err != nil {
			return nil, validationf("%v", err)
		}
	}
	currentDate := s.now().Format("2006-01-02")

	lookup := customerLookup(ctx, s.directory)
	search := strings.TrimSpace(q.Search)

	out := make([]models.Appointment, 0, len(all))
	for _, appt := range all {
		if today && appt.Date != currentDate {
			continue
		}
		if status != "" && appt.Status != status {
			continue
		}
		if q.Date != "" && appt.Date != q.Date {
			continue
		}
		if search != "" {
			cust := lookup(appt.CustomerID)
			if cust == nil {
				continue
			}
			if !containsFold(cust.Name(), search) &&
				!containsFold(cust.Email, search) &&
				!containsFold(cust.Phone, search) {
				continue
			}
		}
		out = append(out, appt)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

// Stats counts appointments by status and for today.
func (s *AppointmentService) Stats(ctx context.Context) (AppointmentStats, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return AppointmentStats{}, err
	}
	stats := AppointmentStats{
		Total:    len(all),
		ByStatus: map[models.AppointmentStatus]int{},
	}
	currentDate := s.now().Format("2006-01-02")
	for _, appt := range all {
		stats.ByStatus[appt.Status]++
		if appt.Date == currentDate {
			stats.Today++
		}
	}
	return stats, nil
}

// Filter returns invoices matching the query. Archived invoices are excluded
// unless the "archived" pseudo-status explicitly requests them.
func (s *InvoiceService) Filter(ctx context.Context, q InvoiceQuery) ([]models.Invoice, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	archived := q.Status == PseudoStatusArchived
	var status models.InvoiceStatus
	if q.Status != "" && !archived {
		status, err = models.ParseInvoiceStatus(q.Status)
		if err != nil {
			return nil, validationf("%v", err)
		}
	}

	lookup := customerLookup(ctx, s.directory)
	search := strings.TrimSpace(q.Search)

	out := make([]models.Invoice, 0, len(all))
	for _, inv := range all {
		if inv.Archived != archived {
			continue
		}
		if status != "" && inv.Status != status {
			continue
		}
		if search != "" {
			cust := lookup(inv.CustomerID)
			match := containsFold(inv.InvoiceNumber, search)
			if !match && cust != nil {
				match = containsFold(cust.Name(), search) || containsFold(cust.Email, search)
			}
			if !match {
				continue
			}
		}
		out = append(out, inv)
	}
	return out, nil
}

// Stats counts non-archived invoices by status and sums paid revenue.
func (s *InvoiceService) Stats(ctx context.Context) (InvoiceStats, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return InvoiceStats{}, err
	}
	stats := InvoiceStats{ByStatus: map[models.InvoiceStatus]int{}}
	var revenue float64
	for _, inv := range all {
		if inv.Archived {
			continue
		}
		stats.Total++
		stats.ByStatus[inv.Status]++
		if inv.Status == models.InvoicePaid {
			revenue += inv.Total
		}
	}
	stats.Revenue = utils.Round2(revenue)
	return stats, nil
}
