package dto

import "github.com/noah-isme/sekolah-ops-api/internal/models"

// ClassroomCreateRequest describes the payload for creating a classroom.
type ClassroomCreateRequest struct {
	Code       string               `json:"code" validate:"required,min=2"`
	Name       string               `json:"name" validate:"required"`
	Type       string               `json:"type" validate:"omitempty,oneof=online offline"`
	Teachers   models.ClassTeachers `json:"teachers"`
	StudentIDs models.UintList      `json:"student_ids"`
	SaleID     *uint                `json:"sale_id,omitempty"`
}

// ClassroomUpdateRequest describes a partial classroom update.
type ClassroomUpdateRequest struct {
	Name       *string              `json:"name" validate:"omitempty,min=1"`
	Type       *string              `json:"type" validate:"omitempty,oneof=online offline"`
	Teachers   models.ClassTeachers `json:"teachers,omitempty"`
	StudentIDs models.UintList      `json:"student_ids,omitempty"`
}

// VirtualStudent is one roster entry of a virtual classroom. Resolved
// students carry their real id; unresolved ones a stable synthetic hash id.
type VirtualStudent struct {
	ID        string `json:"id"`
	StudentID uint   `json:"student_id,omitempty"`
	Code      string `json:"code,omitempty"`
	Name      string `json:"name"`
	OrderID   uint   `json:"order_id"`
	Synthetic bool   `json:"synthetic"`
}

// VirtualClassResponse is a classroom view synthesized from orders sharing a
// class code, with no backing classroom document.
type VirtualClassResponse struct {
	ID       string           `json:"id"`
	Code     string           `json:"code"`
	Name     string           `json:"name"`
	Virtual  bool             `json:"virtual"`
	Students []VirtualStudent `json:"students"`
}
