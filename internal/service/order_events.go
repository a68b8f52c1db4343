package service

import (
	"context"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

// OrderChanged is the outbound sync command produced on every order mutation.
// It carries everything the downstream aggregates need so appliers never read
// the order back.
type OrderChanged struct {
	OrderID     uint   `json:"order_id"`
	StudentName string `json:"student_name"`
	ClassCode   string `json:"class_code"`
	TeacherID   *uint  `json:"teacher_id,omitempty"`
	TeacherName string `json:"teacher_name"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	Sessions              models.SessionAudits `json:"sessions"`
	TotalAttendedSessions int                  `json:"total_attended_sessions"`
	EarnedSalary          float64              `json:"earned_salary"`
}

// OrderChangeApplier consumes OrderChanged commands. Each downstream
// aggregate registers one; the dispatcher runs them sequentially and treats
// failures as a background concern.
type OrderChangeApplier interface {
	ApplyOrderChange(ctx context.Context, event OrderChanged) error
	DeleteForOrder(ctx context.Context, orderID uint) error
}
