package dto

import (
	"time"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// AttendanceMarkRequest marks a single student for one day.
type AttendanceMarkRequest struct {
	ClassID   uint   `json:"class_id" validate:"required"`
	StudentID uint   `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"omitempty,oneof=PRESENT ABSENT LATE EXCUSED ABSENT_WITHOUT_PERMISSION"`
	Duration  *int   `json:"duration,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// AttendanceBulkItem is one entry of a bulk marking request.
type AttendanceBulkItem struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"omitempty,oneof=PRESENT ABSENT LATE EXCUSED ABSENT_WITHOUT_PERMISSION"`
	Duration  *int   `json:"duration,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// AttendanceBulkMarkRequest marks many students of one class for one day.
type AttendanceBulkMarkRequest struct {
	ClassID uint                 `json:"class_id" validate:"required"`
	Date    string               `json:"date" validate:"required,datetime=2006-01-02"`
	Items   []AttendanceBulkItem `json:"items" validate:"required,min=1,dive"`
}

// AttendanceUpdateRequest corrects an existing record.
type AttendanceUpdateRequest struct {
	Status   *string `json:"status" validate:"omitempty,oneof=PRESENT ABSENT LATE EXCUSED ABSENT_WITHOUT_PERMISSION"`
	Duration *int    `json:"duration,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// GenerateLinkRequest produces a self-check-in link. ClassID accepts either a
// numeric classroom id or a virtual_<CODE> reference; StudentID accepts a
// numeric id or a synthetic virtual-class entry id.
type GenerateLinkRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Duration  *int   `json:"duration,omitempty"`
}

// GenerateLinkResponse carries the issued token and deep link.
type GenerateLinkResponse struct {
	Attendance    AttendanceResponse `json:"attendance"`
	AttendanceURL string             `json:"attendance_url"`
	Token         string             `json:"token"`
	ExpiresAt     time.Time          `json:"expires_at"`
}

// TokenSubmitRequest is the public self-check-in submission.
type TokenSubmitRequest struct {
	Token string `json:"token" validate:"required"`
	Image string `json:"image" validate:"required"`
}

// AttendanceResponse is the serialized attendance record.
type AttendanceResponse struct {
	ID               uint       `json:"id"`
	ClassroomID      uint       `json:"classroom_id"`
	StudentID        uint       `json:"student_id"`
	Date             string     `json:"date"`
	Status           string     `json:"status"`
	Duration         int        `json:"duration"`
	BaseSessionsUsed float64    `json:"base_sessions_used"`
	Notes            string     `json:"notes,omitempty"`
	CheckinImageURL  string     `json:"checkin_image_url,omitempty"`
	TokenExpiresAt   *time.Time `json:"token_expires_at,omitempty"`
	AttendedAt       *time.Time `json:"attended_at,omitempty"`
}

// NewAttendanceResponse converts a model into a DTO.
func NewAttendanceResponse(record models.AttendanceRecord) AttendanceResponse {
	return AttendanceResponse{
		ID:               record.ID,
		ClassroomID:      record.ClassroomID,
		StudentID:        record.StudentID,
		Date:             record.Date.Format(DateLayout),
		Status:           string(record.Status),
		Duration:         record.Duration,
		BaseSessionsUsed: record.BaseSessionsUsed,
		Notes:            record.Notes,
		CheckinImageURL:  record.CheckinImageURL,
		TokenExpiresAt:   record.TokenExpiresAt,
		AttendedAt:       record.AttendedAt,
	}
}

// NewAttendanceResponseSlice converts a slice of models into DTOs.
func NewAttendanceResponseSlice(records []models.AttendanceRecord) []AttendanceResponse {
	responses := make([]AttendanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewAttendanceResponse(record))
	}
	return responses
}

// TokenLookupResponse is the public view of a token before submission, so
// the check-in page can show who and what the token is for.
type TokenLookupResponse struct {
	Attendance  AttendanceResponse `json:"attendance"`
	StudentName string             `json:"student_name,omitempty"`
	ClassCode   string             `json:"class_code,omitempty"`
	ClassName   string             `json:"class_name,omitempty"`
	Expired     bool               `json:"expired"`
	CheckedIn   bool               `json:"checked_in"`
}

// ClassDayEntry joins one roster student with their record for the day, if
// any.
type ClassDayEntry struct {
	StudentID   uint                `json:"student_id"`
	StudentCode string              `json:"student_code"`
	StudentName string              `json:"student_name"`
	Attendance  *AttendanceResponse `json:"attendance"`
}

// ClassDayResponse is the roster-joined attendance view for one day.
type ClassDayResponse struct {
	ClassroomID uint            `json:"classroom_id"`
	ClassCode   string          `json:"class_code"`
	ClassName   string          `json:"class_name"`
	Date        string          `json:"date"`
	Entries     []ClassDayEntry `json:"entries"`
}

// AttendanceStatsResponse aggregates status counts over a date range.
type AttendanceStatsResponse struct {
	ClassroomID uint             `json:"classroom_id"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	Counts      map[string]int64 `json:"counts"`
}

// AttendanceReportRow is one attended session in the cross-class export,
// enriched with the computed salary.
type AttendanceReportRow struct {
	AttendanceID uint       `json:"attendance_id"`
	ClassroomID  uint       `json:"classroom_id"`
	ClassCode    string     `json:"class_code"`
	StudentID    uint       `json:"student_id"`
	StudentName  string     `json:"student_name"`
	Date         string     `json:"date"`
	Status       string     `json:"status"`
	Duration     int        `json:"duration"`
	AttendedAt   *time.Time `json:"attended_at,omitempty"`
	Salary       float64    `json:"salary"`
}
