package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ClassroomType distinguishes online classes (per-duration rates) from
// offline classes (tenure-tier rates).
type ClassroomType string

const (
	ClassroomTypeOnline  ClassroomType = "online"
	ClassroomTypeOffline ClassroomType = "offline"
)

// Classroom represents a class with its assigned teachers and rate tables.
type Classroom struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Code      string        `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name      string        `gorm:"size:255;not null" json:"name"`
	Type      ClassroomType `gorm:"size:16;default:online" json:"type"`
	Teachers  ClassTeachers `gorm:"type:jsonb" json:"teachers"`
	StudentIDs UintList     `gorm:"type:jsonb" json:"student_ids"`
	SaleID    *uint         `json:"sale_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NormalizeClassCode uppercases and trims a class code for lookups.
func NormalizeClassCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ClassTeacher assigns a teacher to a classroom together with the rate table
// used to price each taught session.
type ClassTeacher struct {
	Teacher       TeacherRef         `json:"teacher"`
	Name          string             `json:"name"`
	Email         string             `json:"email,omitempty"`
	CanIssueLinks bool               `json:"can_issue_links"`
	OnlineRates   map[int]float64    `json:"online_rates,omitempty"`
	OfflineRates  map[string]float64 `json:"offline_rates,omitempty"`
}

// ClassTeachers stores the assignment list as a JSON column.
type ClassTeachers = datatypes.JSONSlice[ClassTeacher]

// TeacherRef is a teacher reference that older documents stored as a plain id
// and newer ones as an object wrapping the id. Both decode to the same value.
type TeacherRef struct {
	ID uint `json:"id"`
}

// UnmarshalJSON accepts either a bare numeric id or {"id": n}.
func (r *TeacherRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		r.ID = 0
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			ID uint `json:"id"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		r.ID = wrapped.ID
		return nil
	}
	var id uint
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("teacher reference must be an id or an object: %w", err)
	}
	r.ID = id
	return nil
}

// MarshalJSON always writes the object form.
func (r TeacherRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID uint `json:"id"`
	}{ID: r.ID})
}

// TeacherRate resolves the per-session salary for a teacher and duration.
// Unknown durations fall back to the 70-minute column; unassigned teachers
// earn nothing.
func (c Classroom) TeacherRate(teacherID uint, duration int) float64 {
	for _, assignment := range c.Teachers {
		if assignment.Teacher.ID != teacherID {
			continue
		}
		if rate, ok := assignment.OnlineRates[duration]; ok {
			return rate
		}
		if rate, ok := assignment.OnlineRates[BaseSessionMinutes]; ok {
			return rate
		}
		return 0
	}
	return 0
}

// LinkIssuer returns the first assigned teacher allowed to issue attendance
// links, if any.
func (c Classroom) LinkIssuer() (ClassTeacher, bool) {
	for _, assignment := range c.Teachers {
		if assignment.CanIssueLinks {
			return assignment, true
		}
	}
	return ClassTeacher{}, false
}

// HasTeacher reports whether the given teacher is assigned to the class.
func (c Classroom) HasTeacher(teacherID uint) bool {
	for _, assignment := range c.Teachers {
		if assignment.Teacher.ID == teacherID {
			return true
		}
	}
	return false
}

// UintList stores a list of ids as a JSON column.
type UintList = datatypes.JSONSlice[uint]
