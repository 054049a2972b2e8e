package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"cleanpro-backend/models"
)

// AppointmentService owns the appointment status state machine. Every
// operation is a single read-validate-persist unit; the repository's guarded
// update turns concurrent interleavings into ErrConflict.
type AppointmentService struct {
	repo      AppointmentRepository
	directory CustomerDirectory
	notifier  Notifier
	log       zerolog.Logger
	now       func() time.Time
}

func NewAppointmentService(repo AppointmentRepository, directory CustomerDirectory, notifier Notifier, log zerolog.Logger) *AppointmentService {
	return &AppointmentService{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateAppointmentParams carries the admin "create appointment" input.
type CreateAppointmentParams struct {
	CustomerID   string
	AddressID    *string
	ServiceType  string
	Date         string
	Start        string
	End          string
	Instructions string
}

// Create schedules a new appointment. Admin-created appointments always start
// confirmed; the customer self-booking path (which would start pending) does
// not exist in the back office.
func (s *AppointmentService) Create(ctx context.Context, p CreateAppointmentParams) (*models.Appointment, error) {
	if p.CustomerID == "" {
		return nil, validationf("customer is required")
	}
	serviceType, err := models.ParseServiceType(p.ServiceType)
	if err != nil {
		return nil, validationf("%v", err)
	}
	if err := models.ValidDate(p.Date); err != nil {
		return nil, validationf("%v", err)
	}
	if err := models.ValidTimeRange(p.Start, p.End); err != nil {
		return nil, validationf("%v", err)
	}
	if _, err := s.directory.GetCustomer(ctx, p.CustomerID); err != nil {
		return nil, err
	}
	if p.AddressID != nil {
		if _, err := s.directory.GetAddress(ctx, *p.AddressID); err != nil {
			return nil, err
		}
	}

	appt := &models.Appointment{
		CustomerID:   p.CustomerID,
		AddressID:    p.AddressID,
		ServiceType:  serviceType,
		Date:         p.Date,
		Start:        p.Start,
		End:          p.End,
		Status:       models.AppointmentConfirmed,
		Instructions: p.Instructions,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// Get returns a single appointment.
func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus applies a status transition per the central transition table.
// Illegal requests leave the entity unchanged. Terminal transitions clear the
// running-late flag; completion and cancellation are timestamped.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id, rawStatus string) (*models.Appointment, error) {
	next, err := models.ParseAppointmentStatus(rawStatus)
	if err != nil {
		return nil, validationf("%v", err)
	}
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransition(next) {
		return nil, transitionf("appointment %s: %s -> %s", appt.Id, appt.Status, next)
	}

	ts := s.now()
	appt.Status = next
	switch next {
	case models.AppointmentCompleted:
		appt.CompletedAt = &ts
	case models.AppointmentCancelled:
		appt.CancelledAt = &ts
	}
	// running-late is only meaningful while confirmed or en route
	if !next.AllowsRunningLate() {
		appt.IsRunningLate = false
	}
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}

	if next == models.AppointmentCancelled {
		s.dispatch(ctx, appt, models.NotifyAppointmentCancelled,
			fmt.Sprintf("Your %s cleaning on %s has been cancelled.", appt.ServiceType, appt.Date))
	}
	return appt, nil
}

// Reschedule moves a non-terminal appointment to a new slot and re-confirms
// it. The notification carries both the old and the new slot.
func (s *AppointmentService) Reschedule(ctx context.Context, id, date, start, end string) (*models.Appointment, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.IsTerminal() {
		return nil, invalidStatef("appointment %s is %s and cannot be rescheduled", appt.Id, appt.Status)
	}
	if err := models.ValidDate(date); err != nil {
		return nil, validationf("%v", err)
	}
	if err := models.ValidTimeRange(start, end); err != nil {
		return nil, validationf("%v", err)
	}

	oldDate, oldStart, oldEnd := appt.Date, appt.Start, appt.End
	appt.Date, appt.Start, appt.End = date, start, end
	// a reschedule always re-confirms; running-late referred to the old slot
	appt.Status = models.AppointmentConfirmed
	appt.IsRunningLate = false
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}

	s.dispatch(ctx, appt, models.NotifyAppointmentRescheduled,
		fmt.Sprintf("Your cleaning on %s %s-%s has been rescheduled to %s %s-%s.",
			oldDate, oldStart, oldEnd, date, start, end))
	return appt, nil
}

// ToggleRunningLate flips the running-late flag. Raising it notifies the
// customer once; lowering it is silent.
func (s *AppointmentService) ToggleRunningLate(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.AllowsRunningLate() {
		return nil, invalidStatef("appointment %s is %s; running-late only applies while confirmed or en route", appt.Id, appt.Status)
	}
	appt.IsRunningLate = !appt.IsRunningLate
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	if appt.IsRunningLate {
		s.dispatch(ctx, appt, models.NotifyRunningLate,
			fmt.Sprintf("Our team is running a little late for your %s cleaning today. Thanks for your patience.", appt.ServiceType))
	}
	return appt, nil
}

// UpdateTeam replaces the assigned team member list. Status is untouched.
func (s *AppointmentService) UpdateTeam(ctx context.Context, id string, names []string) (*models.Appointment, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	appt.TeamMembers = datatypes.JSONSlice[string](models.NormalizeTeam(names))
	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// Delete removes the record entirely. Unlike cancellation this erases history;
// it is an out-of-band administrative override, not a state transition.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// dispatch emits a notification event after the state change is persisted.
// Failures are logged and never propagated.
func (s *AppointmentService) dispatch(ctx context.Context, appt *models.Appointment, typ models.NotificationType, message string) {
	if s.notifier == nil {
		return
	}
	evt := models.NotificationEvent{
		Type:       typ,
		CustomerID: appt.CustomerID,
		Message:    message,
		EntityKind: "appointment",
		EntityID:   appt.Id,
	}
	if cust, err := s.directory.GetCustomer(ctx, appt.CustomerID); err == nil {
		evt.RecipientName = cust.Name()
		evt.RecipientEmail = cust.Email
	}
	if err := s.notifier.Notify(ctx, evt); err != nil {
		s.log.Error().Err(err).
			Str("type", string(typ)).
			Str("appointment_id", appt.Id).
			Msg("notification delivery failed")
	}
}
