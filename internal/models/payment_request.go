package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentRequest is the payroll-facing aggregate for one order: the full
// per-session audit trail plus the totals the payment team settles against.
type PaymentRequest struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderID     uint   `gorm:"uniqueIndex;not null" json:"order_id"`
	TeacherID   *uint  `json:"teacher_id,omitempty"`
	TeacherName string `gorm:"size:255" json:"teacher_name"`
	StudentName string `gorm:"size:255" json:"student_name"`
	ClassCode   string `gorm:"size:64;index" json:"class_code"`

	Sessions              SessionAudits `gorm:"type:jsonb" json:"sessions"`
	TotalAttendedSessions int           `json:"total_attended_sessions"`
	EarnedSalary          float64       `json:"earned_salary"`

	PaymentStatus string    `gorm:"size:64" json:"payment_status"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SessionAudit is one attended session in the audit trail, numbered from 1.
type SessionAudit struct {
	Index        int       `json:"index"`
	Date         time.Time `json:"date"`
	AttendanceID uint      `json:"attendance_id"`
	Duration     int       `json:"duration"`
	ImageURL     string    `json:"image_url,omitempty"`
}

// SessionAudits stores the audit trail as a JSON column.
type SessionAudits = datatypes.JSONSlice[SessionAudit]
