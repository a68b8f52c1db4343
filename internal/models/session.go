package models

import (
	"errors"
	"fmt"
)

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendancePresent             AttendanceStatus = "PRESENT"
	AttendanceAbsent              AttendanceStatus = "ABSENT"
	AttendanceLate                AttendanceStatus = "LATE"
	AttendanceExcused             AttendanceStatus = "EXCUSED"
	AttendanceAbsentNoPermission  AttendanceStatus = "ABSENT_WITHOUT_PERMISSION"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused, AttendanceAbsentNoPermission:
		return true
	default:
		return false
	}
}

// Attended reports whether the status represents actual instruction time.
func (s AttendanceStatus) Attended() bool {
	return s == AttendancePresent || s == AttendanceLate
}

// BaseSessionMinutes is the normalized unit of instruction; all payment and
// usage accounting converts to 70-minute base sessions.
const BaseSessionMinutes = 70

// DefaultSessionDuration is used when a marking request omits the duration.
const DefaultSessionDuration = 70

// MarkableDurations are the session lengths a teacher can actually teach in
// one sitting. The 120-minute denomination is purchasable (it appears in rate
// tables and payment frames) but intentionally not markable.
var MarkableDurations = []int{40, 50, 70, 90, 110}

// PurchasableDurations are the denominations a customer can register for.
var PurchasableDurations = []int{40, 50, 70, 90, 110, 120}

// ErrInvalidDuration indicates a session duration outside the markable set.
var ErrInvalidDuration = errors.New("invalid session duration")

// NormalizeDuration applies the default when no duration is supplied and
// rejects values outside the markable set.
func NormalizeDuration(duration *int) (int, error) {
	if duration == nil || *duration == 0 {
		return DefaultSessionDuration, nil
	}
	for _, allowed := range MarkableDurations {
		if *duration == allowed {
			return *duration, nil
		}
	}
	return 0, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, *duration)
}

// BaseSessionsUsed converts a recorded session into the fraction of base
// sessions it consumes. Only statuses that represent actual attendance consume
// anything; a 40-minute present session consumes 40/70 of a base session.
func BaseSessionsUsed(status AttendanceStatus, duration int) float64 {
	if !status.Attended() {
		return 0
	}
	return float64(duration) / float64(BaseSessionMinutes)
}
