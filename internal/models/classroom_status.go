package models

import "time"

// ClassroomStatus mirrors an order's workflow status for the classroom
// overview screens. One record per order. While IsLocked is set the status
// field stops following the order; payment status keeps syncing.
type ClassroomStatus struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OrderID       uint      `gorm:"uniqueIndex;not null" json:"order_id"`
	StudentName   string    `gorm:"size:255" json:"student_name"`
	ClassCode     string    `gorm:"size:64;index" json:"class_code"`
	TeacherName   string    `gorm:"size:255" json:"teacher_name"`
	Status        string    `gorm:"size:64" json:"status"`
	PaymentStatus string    `gorm:"size:64" json:"payment_status"`
	IsLocked      bool      `gorm:"default:false" json:"is_locked"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
