package dto

import (
	"math"
	"time"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

// StudentCreateRequest describes the payload for registering a student.
type StudentCreateRequest struct {
	Code          string `json:"code" validate:"required,min=2"`
	Name          string `json:"name" validate:"required,min=2"`
	GuardianName  string `json:"guardian_name,omitempty"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
	SaleID        *uint  `json:"sale_id,omitempty"`
	Type          string `json:"type" validate:"omitempty,oneof=online offline"`
}

// StudentUpdateRequest describes a partial student update.
type StudentUpdateRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=2"`
	GuardianName   *string `json:"guardian_name,omitempty"`
	GuardianPhone  *string `json:"guardian_phone,omitempty"`
	SaleID         *uint   `json:"sale_id,omitempty"`
	Type           *string `json:"type" validate:"omitempty,oneof=online offline"`
	ApprovalStatus *string `json:"approval_status" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
}

// PaymentFrameRequest upserts one payment frame on a student.
type PaymentFrameRequest struct {
	Index              int        `json:"index" validate:"required,min=1,max=10"`
	InvoiceCode        string     `json:"invoice_code,omitempty"`
	Amount             float64    `json:"amount" validate:"gte=0"`
	Sessions70         float64    `json:"sessions_70" validate:"gte=0"`
	RegisteredDuration int        `json:"registered_duration" validate:"omitempty,oneof=40 50 70 90 110 120"`
	ImageURL           string     `json:"image_url,omitempty"`
	TransferDate       *time.Time `json:"transfer_date,omitempty"`
	ConfirmStatus      string     `json:"confirm_status" validate:"omitempty,oneof=PENDING CONFIRMED"`
}

// SessionBalanceResponse is the computed per-duration remaining-session view.
// It is derived on every read from the paid and consumed counters.
type SessionBalanceResponse struct {
	StudentID        uint        `json:"student_id"`
	Type             string      `json:"type"`
	BasePaid70       float64     `json:"base_paid_70"`
	BaseUsed70       float64     `json:"base_used_70"`
	Remaining        map[int]int `json:"remaining,omitempty"`
	RemainingOffline *int        `json:"remaining_offline,omitempty"`
}

// NewSessionBalanceResponse assembles the balance projection for a student.
func NewSessionBalanceResponse(student models.Student, baseUsed70 float64) SessionBalanceResponse {
	response := SessionBalanceResponse{
		StudentID:  student.ID,
		Type:       string(student.Type),
		BasePaid70: student.PaidBaseSessions(),
		BaseUsed70: baseUsed70,
	}

	if student.Type == models.StudentTypeOffline {
		// Offline billing counts whole sessions, so fractional frame totals
		// round to the nearest session instead of silently truncating.
		remaining := models.OfflineSessionBalance(int(math.Round(response.BasePaid70)), int(math.Round(baseUsed70)))
		response.RemainingOffline = &remaining
		return response
	}

	response.Remaining = models.SessionBalance(response.BasePaid70, baseUsed70)
	return response
}
