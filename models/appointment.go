package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AppointmentStatus is the closed set of states a cleaning appointment moves through.
type AppointmentStatus string

const (
	AppointmentPending      AppointmentStatus = "pending"
	AppointmentConfirmed    AppointmentStatus = "confirmed"
	AppointmentEnRoute      AppointmentStatus = "en_route"
	AppointmentCompleted    AppointmentStatus = "completed"
	AppointmentNotCompleted AppointmentStatus = "not_completed"
	AppointmentCancelled    AppointmentStatus = "cancelled"
)

// ServiceType enumerates the cleaning services the company offers.
type ServiceType string

const (
	ServiceStandard         ServiceType = "standard"
	ServiceDeep             ServiceType = "deep"
	ServiceMoveInOut        ServiceType = "move_in_out"
	ServicePostConstruction ServiceType = "post_construction"
	ServiceOffice           ServiceType = "office"
)

// MaxTeamMemberNameLen caps a single team member name.
const MaxTeamMemberNameLen = 80

type Appointment struct {
	Id         string  `json:"id" gorm:"primaryKey"`
	CustomerID string  `json:"customer_id" gorm:"index;not null"`
	AddressID  *string `json:"address_id" gorm:"index"`

	ServiceType ServiceType `json:"service_type" gorm:"type:varchar(32);not null"`
	// Date is the scheduled day in YYYY-MM-DD; Start/End are HH:MM wall-clock times.
	Date  string `json:"date" gorm:"type:varchar(10);index;not null"`
	Start string `json:"start_time" gorm:"column:start_time;type:varchar(5);not null"`
	End   string `json:"end_time" gorm:"column:end_time;type:varchar(5);not null"`

	Status        AppointmentStatus           `json:"status" gorm:"type:varchar(20);index;not null"`
	TeamMembers   datatypes.JSONSlice[string] `json:"team_members"`
	Instructions  string                      `json:"special_instructions"`
	IsRunningLate bool                        `json:"is_running_late"`

	// Version guards concurrent updates (optimistic lock).
	Version int `json:"-" gorm:"not null;default:0"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if a.Id == "" {
		a.Id = uuid.NewString()
	}
	return
}

// ParseAppointmentStatus validates a raw status string against the closed enum.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch st := AppointmentStatus(strings.TrimSpace(s)); st {
	case AppointmentPending, AppointmentConfirmed, AppointmentEnRoute,
		AppointmentCompleted, AppointmentNotCompleted, AppointmentCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
}

// ParseServiceType validates a raw service type string.
func ParseServiceType(s string) (ServiceType, error) {
	switch st := ServiceType(strings.TrimSpace(s)); st {
	case ServiceStandard, ServiceDeep, ServiceMoveInOut, ServicePostConstruction, ServiceOffice:
		return st, nil
	default:
		return "", fmt.Errorf("unknown service type %q", s)
	}
}

// appointmentTransitions is the single source of truth for legal status moves.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPending:   {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed: {AppointmentEnRoute, AppointmentCompleted, AppointmentNotCompleted, AppointmentCancelled},
	AppointmentEnRoute:   {AppointmentCompleted, AppointmentNotCompleted, AppointmentCancelled},
}

// CanTransition reports whether an appointment may move from to next.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the normal lifecycle
// (completed, not_completed and cancelled have no outgoing transitions).
func (s AppointmentStatus) IsTerminal() bool {
	return len(appointmentTransitions[s]) == 0
}

// AllowsRunningLate reports whether the running-late flag may be raised.
func (s AppointmentStatus) AllowsRunningLate() bool {
	return s == AppointmentConfirmed || s == AppointmentEnRoute
}

// ValidTimeRange checks HH:MM formatted start/end and their ordering.
func ValidTimeRange(start, end string) error {
	st, err := time.Parse("15:04", start)
	if err != nil {
		return fmt.Errorf("invalid start time %q", start)
	}
	en, err := time.Parse("15:04", end)
	if err != nil {
		return fmt.Errorf("invalid end time %q", end)
	}
	if !st.Before(en) {
		return fmt.Errorf("start time %s must be before end time %s", start, end)
	}
	return nil
}

// ValidDate checks a YYYY-MM-DD scheduled date.
func ValidDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q", date)
	}
	return nil
}

// NormalizeTeam trims names, drops empties and caps each name's length.
// Truncation backs off to a rune boundary so a multi-byte name never stores
// a split sequence.
func NormalizeTeam(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if len(n) > MaxTeamMemberNameLen {
			cut := MaxTeamMemberNameLen
			for cut > 0 && !utf8.RuneStart(n[cut]) {
				cut--
			}
			n = n[:cut]
		}
		out = append(out, n)
	}
	return out
}
