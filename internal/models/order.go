package models

import (
	"regexp"
	"strconv"
	"time"
)

// Order represents one student's commercial enrollment, optionally bound to a
// real or virtual classroom. Student/teacher/sale names are denormalized so
// lists stay readable even when a reference is later removed.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StudentID   *uint  `gorm:"index" json:"student_id,omitempty"`
	StudentCode string `gorm:"size:64;index" json:"student_code"`
	StudentName string `gorm:"size:255" json:"student_name"`

	ClassroomID *uint  `gorm:"index" json:"classroom_id,omitempty"`
	ClassCode   string `gorm:"size:64;index" json:"class_code"`

	TeacherID    *uint  `json:"teacher_id,omitempty"`
	TeacherName  string `gorm:"size:255" json:"teacher_name"`
	TeacherEmail string `gorm:"size:255" json:"teacher_email,omitempty"`
	SaleID       *uint  `json:"sale_id,omitempty"`
	SaleName     string `gorm:"size:255" json:"sale_name"`
	SaleEmail    string `gorm:"size:255" json:"sale_email,omitempty"`

	InvoiceCode   string  `gorm:"size:64" json:"invoice_code"`
	InvoiceAmount float64 `json:"invoice_amount"`
	TrialNote     string  `gorm:"type:text" json:"trial_note"`

	SalaryPerSession float64 `json:"salary_per_session"`
	Status           string  `gorm:"size:64" json:"status"`
	PaymentStatus    string  `gorm:"size:64" json:"payment_status"`

	TotalAttendedSessions int     `json:"total_attended_sessions"`
	TeacherEarnedSalary   float64 `json:"teacher_earned_salary"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var firstIntPattern = regexp.MustCompile(`\d+`)

// GiftSessions parses the trial/gift count out of the free-text note: the
// first integer found in the string, zero when none.
func (o Order) GiftSessions() int {
	match := firstIntPattern.FindString(o.TrialNote)
	if match == "" {
		return 0
	}
	count, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return count
}
