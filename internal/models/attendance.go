package models

import "time"

// AttendanceRecord is the historical ledger entry for one student in one
// class on one day. The (classroom, student, day) key is unique; marking the
// same key twice updates the existing record instead of creating a second one.
type AttendanceRecord struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	ClassroomID      uint             `gorm:"not null;uniqueIndex:idx_attendance_day,priority:1" json:"classroom_id"`
	StudentID        uint             `gorm:"not null;uniqueIndex:idx_attendance_day,priority:2" json:"student_id"`
	Date             time.Time        `gorm:"not null;uniqueIndex:idx_attendance_day,priority:3" json:"date"`
	Status           AttendanceStatus `gorm:"size:32;not null" json:"status"`
	Duration         int              `gorm:"not null;default:70" json:"duration"`
	BaseSessionsUsed float64          `json:"base_sessions_used"`
	Notes            string           `gorm:"type:text" json:"notes,omitempty"`
	CheckinImageURL  string           `gorm:"size:512" json:"checkin_image_url,omitempty"`
	Token            string           `gorm:"size:128;index" json:"-"`
	TokenExpiresAt   *time.Time       `json:"token_expires_at,omitempty"`
	AttendedAt       *time.Time       `json:"attended_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// TruncateToDay normalizes a timestamp to UTC midnight, the granularity of
// the attendance natural key.
func TruncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of the day containing t, the granularity
// used for self-check-in token expiry.
func EndOfDay(t time.Time) time.Time {
	return TruncateToDay(t).Add(24*time.Hour - time.Second)
}

// TokenExpired reports whether the self-check-in token can no longer be used.
func (r AttendanceRecord) TokenExpired(now time.Time) bool {
	return r.TokenExpiresAt == nil || now.After(*r.TokenExpiresAt)
}

// CheckedIn reports whether the record has already been consumed by a token
// submission.
func (r AttendanceRecord) CheckedIn() bool {
	return r.AttendedAt != nil
}
