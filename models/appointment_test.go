package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentTransitions(t *testing.T) {
	cases := []struct {
		from AppointmentStatus
		to   AppointmentStatus
		ok   bool
	}{
		{AppointmentPending, AppointmentConfirmed, true},
		{AppointmentPending, AppointmentCancelled, true},
		{AppointmentPending, AppointmentEnRoute, false},
		{AppointmentConfirmed, AppointmentEnRoute, true},
		{AppointmentConfirmed, AppointmentCompleted, true},
		{AppointmentConfirmed, AppointmentNotCompleted, true},
		{AppointmentConfirmed, AppointmentCancelled, true},
		{AppointmentConfirmed, AppointmentPending, false},
		{AppointmentEnRoute, AppointmentCompleted, true},
		{AppointmentEnRoute, AppointmentNotCompleted, true},
		{AppointmentEnRoute, AppointmentCancelled, true},
		{AppointmentEnRoute, AppointmentConfirmed, false},
		{AppointmentCompleted, AppointmentCancelled, false},
		{AppointmentNotCompleted, AppointmentConfirmed, false},
		{AppointmentCancelled, AppointmentConfirmed, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestAppointmentTerminalStatuses(t *testing.T) {
	assert.False(t, AppointmentPending.IsTerminal())
	assert.False(t, AppointmentConfirmed.IsTerminal())
	assert.False(t, AppointmentEnRoute.IsTerminal())
	assert.True(t, AppointmentCompleted.IsTerminal())
	assert.True(t, AppointmentNotCompleted.IsTerminal())
	assert.True(t, AppointmentCancelled.IsTerminal())
}

func TestAllowsRunningLate(t *testing.T) {
	assert.True(t, AppointmentConfirmed.AllowsRunningLate())
	assert.True(t, AppointmentEnRoute.AllowsRunningLate())
	assert.False(t, AppointmentPending.AllowsRunningLate())
	assert.False(t, AppointmentCompleted.AllowsRunningLate())
}

func TestParseAppointmentStatus(t *testing.T) {
	st, err := ParseAppointmentStatus(" en_route ")
	assert.NoError(t, err)
	assert.Equal(t, AppointmentEnRoute, st)

	_, err = ParseAppointmentStatus("enroute")
	assert.Error(t, err)
}

func TestParseServiceType(t *testing.T) {
	st, err := ParseServiceType("move_in_out")
	assert.NoError(t, err)
	assert.Equal(t, ServiceMoveInOut, st)

	_, err = ParseServiceType("gardening")
	assert.Error(t, err)
}

func TestValidTimeRange(t *testing.T) {
	assert.NoError(t, ValidTimeRange("09:00", "12:30"))
	assert.Error(t, ValidTimeRange("12:00", "12:00"))
	assert.Error(t, ValidTimeRange("14:00", "09:00"))
	assert.Error(t, ValidTimeRange("9am", "12:00"))
	assert.Error(t, ValidTimeRange("09:00", "noon"))
}

func TestValidDate(t *testing.T) {
	assert.NoError(t, ValidDate("2026-03-15"))
	assert.Error(t, ValidDate("15.03.2026"))
	assert.Error(t, ValidDate("2026-13-01"))
}

func TestNormalizeTeam(t *testing.T) {
	long := strings.Repeat("x", MaxTeamMemberNameLen+10)
	got := NormalizeTeam([]string{" Ana ", "", "  ", "Bea", long})
	assert.Equal(t, []string{"Ana", "Bea", long[:MaxTeamMemberNameLen]}, got)
}

func TestNormalizeTeamTruncatesOnRuneBoundary(t *testing.T) {
	// 好 is 3 bytes, so the byte cap lands mid-rune and must back off
	long := strings.Repeat("好", MaxTeamMemberNameLen)
	got := NormalizeTeam([]string{long})
	require.Len(t, got, 1)
	assert.True(t, utf8.ValidString(got[0]))
	assert.LessOrEqual(t, len(got[0]), MaxTeamMemberNameLen)
	assert.Equal(t, 0, len(got[0])%3) // whole runes only
	assert.NotEmpty(t, got[0])
}
