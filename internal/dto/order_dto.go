package dto

import "github.com/noah-isme/sekolah-ops-api/internal/models"

// OrderCreateRequest describes the payload for creating an enrollment order.
type OrderCreateRequest struct {
	StudentID   *uint  `json:"student_id,omitempty"`
	StudentCode string `json:"student_code" validate:"omitempty,min=2"`
	StudentName string `json:"student_name" validate:"required"`

	ClassroomID *uint  `json:"classroom_id,omitempty"`
	ClassCode   string `json:"class_code" validate:"required,min=2"`

	TeacherID    *uint  `json:"teacher_id,omitempty"`
	TeacherName  string `json:"teacher_name,omitempty"`
	TeacherEmail string `json:"teacher_email" validate:"omitempty,email"`
	SaleID       *uint  `json:"sale_id,omitempty"`
	SaleName     string `json:"sale_name,omitempty"`
	SaleEmail    string `json:"sale_email" validate:"omitempty,email"`

	InvoiceCode   string  `json:"invoice_code,omitempty"`
	InvoiceAmount float64 `json:"invoice_amount" validate:"gte=0"`
	TrialNote     string  `json:"trial_note,omitempty"`

	SalaryPerSession float64 `json:"salary_per_session" validate:"gte=0"`
	Status           string  `json:"status,omitempty"`
	PaymentStatus    string  `json:"payment_status,omitempty"`
}

// OrderUpdateRequest describes a partial order update.
type OrderUpdateRequest struct {
	StudentID   *uint   `json:"student_id,omitempty"`
	StudentCode *string `json:"student_code,omitempty"`
	StudentName *string `json:"student_name" validate:"omitempty,min=1"`

	ClassroomID *uint   `json:"classroom_id,omitempty"`
	ClassCode   *string `json:"class_code" validate:"omitempty,min=2"`

	TeacherID    *uint   `json:"teacher_id,omitempty"`
	TeacherName  *string `json:"teacher_name,omitempty"`
	TeacherEmail *string `json:"teacher_email" validate:"omitempty,email"`
	SaleID       *uint   `json:"sale_id,omitempty"`
	SaleName     *string `json:"sale_name,omitempty"`
	SaleEmail    *string `json:"sale_email" validate:"omitempty,email"`

	InvoiceCode   *string  `json:"invoice_code,omitempty"`
	InvoiceAmount *float64 `json:"invoice_amount" validate:"omitempty,gte=0"`
	TrialNote     *string  `json:"trial_note,omitempty"`

	SalaryPerSession *float64 `json:"salary_per_session" validate:"omitempty,gte=0"`
	Status           *string  `json:"status,omitempty"`
	PaymentStatus    *string  `json:"payment_status,omitempty"`
}

// ApplyTo merges the supplied fields onto an existing order.
func (r OrderUpdateRequest) ApplyTo(order *models.Order) {
	if r.StudentID != nil {
		order.StudentID = r.StudentID
	}
	if r.StudentCode != nil {
		order.StudentCode = *r.StudentCode
	}
	if r.StudentName != nil {
		order.StudentName = *r.StudentName
	}
	if r.ClassroomID != nil {
		order.ClassroomID = r.ClassroomID
	}
	if r.ClassCode != nil {
		order.ClassCode = models.NormalizeClassCode(*r.ClassCode)
		// The classroom binding follows the code; force re-resolution.
		if r.ClassroomID == nil {
			order.ClassroomID = nil
		}
	}
	if r.TeacherID != nil {
		order.TeacherID = r.TeacherID
	}
	if r.TeacherName != nil {
		order.TeacherName = *r.TeacherName
	}
	if r.TeacherEmail != nil {
		order.TeacherEmail = *r.TeacherEmail
	}
	if r.SaleID != nil {
		order.SaleID = r.SaleID
	}
	if r.SaleName != nil {
		order.SaleName = *r.SaleName
	}
	if r.SaleEmail != nil {
		order.SaleEmail = *r.SaleEmail
	}
	if r.InvoiceCode != nil {
		order.InvoiceCode = *r.InvoiceCode
	}
	if r.InvoiceAmount != nil {
		order.InvoiceAmount = *r.InvoiceAmount
	}
	if r.TrialNote != nil {
		order.TrialNote = *r.TrialNote
	}
	if r.SalaryPerSession != nil {
		order.SalaryPerSession = *r.SalaryPerSession
	}
	if r.Status != nil {
		order.Status = *r.Status
	}
	if r.PaymentStatus != nil {
		order.PaymentStatus = *r.PaymentStatus
	}
}
