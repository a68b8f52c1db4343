package models

import (
	"time"

	"gorm.io/datatypes"
)

// StudentType distinguishes billing models.
type StudentType string

const (
	StudentTypeOnline  StudentType = "online"
	StudentTypeOffline StudentType = "offline"
)

// FrameConfirmStatus tracks whether a payment frame has been verified.
type FrameConfirmStatus string

const (
	FrameStatusPending   FrameConfirmStatus = "PENDING"
	FrameStatusConfirmed FrameConfirmStatus = "CONFIRMED"
)

// MaxPaymentFrames caps how many payment frames a student may carry.
const MaxPaymentFrames = 10

// Student represents a learner enrolled through the sale flow.
type Student struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Code           string        `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name           string        `gorm:"size:255;not null" json:"name"`
	GuardianName   string        `gorm:"size:255" json:"guardian_name"`
	GuardianPhone  string        `gorm:"size:32" json:"guardian_phone"`
	SaleID         *uint         `json:"sale_id,omitempty"`
	Type           StudentType   `gorm:"size:16;default:online" json:"type"`
	ApprovalStatus string        `gorm:"size:32;default:PENDING" json:"approval_status"`
	PaymentFrames  PaymentFrames `gorm:"type:jsonb" json:"payment_frames"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// PaymentFrame records one purchase installment. Frames are embedded in the
// student document; the frame index is 1-based.
type PaymentFrame struct {
	Index              int                `json:"index"`
	InvoiceCode        string             `json:"invoice_code"`
	Amount             float64            `json:"amount"`
	Sessions70         float64            `json:"sessions_70"`
	RegisteredDuration int                `json:"registered_duration"`
	ImageURL           string             `json:"image_url,omitempty"`
	TransferDate       *time.Time         `json:"transfer_date,omitempty"`
	ConfirmStatus      FrameConfirmStatus `json:"confirm_status"`
}

// PaymentFrames stores the frame list as a JSON column.
type PaymentFrames = datatypes.JSONSlice[PaymentFrame]

// PaidBaseSessions sums the 70-minute-equivalent sessions across confirmed
// frames. This is the sole source of the "sessions paid" counter.
func (s Student) PaidBaseSessions() float64 {
	var total float64
	for _, frame := range s.PaymentFrames {
		if frame.ConfirmStatus == FrameStatusConfirmed {
			total += frame.Sessions70
		}
	}
	return total
}
