package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/repository"
)

var (
	// ErrClassroomNotFound indicates the requested classroom does not exist.
	ErrClassroomNotFound = errors.New("classroom not found")
	// ErrVirtualClassNotFound indicates no orders exist for the class code.
	ErrVirtualClassNotFound = errors.New("virtual class not found")
	// ErrVirtualStudentNotFound indicates the synthetic student id does not
	// belong to the virtual class.
	ErrVirtualStudentNotFound = errors.New("student not found in virtual class")
)

// VirtualClassPrefix marks class ids that only exist as an aggregation of
// orders, not yet promoted to a persisted classroom.
const VirtualClassPrefix = "virtual_"

// Actor identifies the authenticated staff member driving a request.
type Actor struct {
	ID    uint
	Role  string
	Name  string
	Email string
}

// IdentityFallback supplies teacher/sale identities when a classroom must be
// provisioned without complete references. The default chain prefers the
// originating order, then a requesting teacher, then a generated placeholder;
// tests inject their own implementation to assert which branch fired.
type IdentityFallback interface {
	TeacherFor(order *models.Order, actor Actor) models.ClassTeacher
	SaleFor(order *models.Order, actor Actor) *uint
}

type placeholderFallback struct{}

// NewPlaceholderFallback returns the default identity fallback chain.
func NewPlaceholderFallback() IdentityFallback {
	return placeholderFallback{}
}

func (placeholderFallback) TeacherFor(order *models.Order, actor Actor) models.ClassTeacher {
	if order != nil && order.TeacherID != nil {
		return models.ClassTeacher{
			Teacher: models.TeacherRef{ID: *order.TeacherID},
			Name:    order.TeacherName,
			Email:   order.TeacherEmail,
		}
	}
	if strings.EqualFold(actor.Role, "teacher") && actor.ID != 0 {
		return models.ClassTeacher{
			Teacher: models.TeacherRef{ID: actor.ID},
			Name:    actor.Name,
			Email:   actor.Email,
		}
	}
	// Last resort: a generated placeholder identity. Known weak point; the
	// record must be corrected by an operator before payroll runs.
	return models.ClassTeacher{Name: "unassigned-" + uuid.NewString()[:8]}
}

func (placeholderFallback) SaleFor(order *models.Order, actor Actor) *uint {
	if order != nil && order.SaleID != nil {
		id := *order.SaleID
		return &id
	}
	if strings.EqualFold(actor.Role, "sale") && actor.ID != 0 {
		id := actor.ID
		return &id
	}
	return nil
}

// ClassroomService resolves classes from persisted classrooms or from raw
// order groupings, and owns classroom CRUD.
type ClassroomService interface {
	Get(ctx context.Context, id uint) (models.Classroom, error)
	List(ctx context.Context) ([]models.Classroom, error)
	Create(ctx context.Context, payload dto.ClassroomCreateRequest) (models.Classroom, error)
	Update(ctx context.Context, id uint, payload dto.ClassroomUpdateRequest) (models.Classroom, error)
	Delete(ctx context.Context, id uint) error

	EnsureClassroomForCode(ctx context.Context, code string, order *models.Order, actor Actor) (models.Classroom, error)
	ClassesFromOrders(ctx context.Context, actor Actor) ([]dto.VirtualClassResponse, error)
	VirtualClassByCode(ctx context.Context, classCode string, actor Actor) (dto.VirtualClassResponse, error)
	ResolveVirtualStudent(ctx context.Context, classCode, syntheticID string, actor Actor) (models.Student, error)
	RosterForClass(ctx context.Context, classroom models.Classroom) ([]models.Student, error)
	ClassesForTeacher(ctx context.Context, teacherID uint) ([]models.Classroom, error)
}

type classroomService struct {
	classrooms repository.ClassroomRepository
	students   repository.StudentRepository
	orders     repository.OrderRepository
	fallback   IdentityFallback
	logger     zerolog.Logger
}

// NewClassroomService builds a classroom service.
func NewClassroomService(
	classrooms repository.ClassroomRepository,
	students repository.StudentRepository,
	orders repository.OrderRepository,
	fallback IdentityFallback,
	logger zerolog.Logger,
) ClassroomService {
	if fallback == nil {
		fallback = NewPlaceholderFallback()
	}
	return &classroomService{
		classrooms: classrooms,
		students:   students,
		orders:     orders,
		fallback:   fallback,
		logger:     logger.With().Str("component", "classroom_service").Logger(),
	}
}

func (s *classroomService) Get(ctx context.Context, id uint) (models.Classroom, error) {
	classroom, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Classroom{}, ErrClassroomNotFound
		}
		return models.Classroom{}, err
	}
	return classroom, nil
}

func (s *classroomService) List(ctx context.Context) ([]models.Classroom, error) {
	return s.classrooms.List(ctx)
}

func (s *classroomService) Create(ctx context.Context, payload dto.ClassroomCreateRequest) (models.Classroom, error) {
	classroom := models.Classroom{
		Code:       models.NormalizeClassCode(payload.Code),
		Name:       payload.Name,
		Type:       models.ClassroomType(payload.Type),
		Teachers:   payload.Teachers,
		StudentIDs: payload.StudentIDs,
		SaleID:     payload.SaleID,
	}
	if classroom.Type == "" {
		classroom.Type = models.ClassroomTypeOnline
	}
	if err := validateRates(classroom.Teachers); err != nil {
		return models.Classroom{}, err
	}
	if err := s.classrooms.Create(ctx, &classroom); err != nil {
		return models.Classroom{}, err
	}

	s.logger.Info().Uint("classroom_id", classroom.ID).Str("code", classroom.Code).Msg("classroom created")
	return classroom, nil
}

func (s *classroomService) Update(ctx context.Context, id uint, payload dto.ClassroomUpdateRequest) (models.Classroom, error) {
	classroom, err := s.Get(ctx, id)
	if err != nil {
		return models.Classroom{}, err
	}

	if payload.Name != nil {
		classroom.Name = *payload.Name
	}
	if payload.Type != nil {
		classroom.Type = models.ClassroomType(*payload.Type)
	}
	if payload.Teachers != nil {
		if err := validateRates(payload.Teachers); err != nil {
			return models.Classroom{}, err
		}
		classroom.Teachers = payload.Teachers
	}
	if payload.StudentIDs != nil {
		classroom.StudentIDs = payload.StudentIDs
	}

	if err := s.classrooms.Update(ctx, &classroom); err != nil {
		return models.Classroom{}, err
	}
	return classroom, nil
}

func (s *classroomService) Delete(ctx context.Context, id uint) error {
	if err := s.classrooms.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassroomNotFound
		}
		return err
	}
	return nil
}

// EnsureClassroomForCode returns the classroom for a code, provisioning a
// minimal one on first reference.
func (s *classroomService) EnsureClassroomForCode(ctx context.Context, code string, order *models.Order, actor Actor) (models.Classroom, error) {
	normalized := models.NormalizeClassCode(code)
	if normalized == "" {
		return models.Classroom{}, ErrClassroomNotFound
	}

	classroom, err := s.classrooms.GetByCode(ctx, normalized)
	if err == nil {
		return classroom, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Classroom{}, err
	}

	classroom = models.Classroom{
		Code:     normalized,
		Name:     normalized,
		Type:     models.ClassroomTypeOnline,
		Teachers: models.ClassTeachers{s.fallback.TeacherFor(order, actor)},
		SaleID:   s.fallback.SaleFor(order, actor),
	}
	if err := s.classrooms.Create(ctx, &classroom); err != nil {
		// Lost a provisioning race; the winner's record serves.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.classrooms.GetByCode(ctx, normalized)
		}
		return models.Classroom{}, err
	}

	s.logger.Info().
		Str("code", normalized).
		Uint("classroom_id", classroom.ID).
		Msg("classroom auto-provisioned from code reference")
	return classroom, nil
}

// ClassesFromOrders assembles virtual classroom views for every class code
// that has orders but no persisted classroom.
func (s *classroomService) ClassesFromOrders(ctx context.Context, actor Actor) ([]dto.VirtualClassResponse, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	persisted, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, err
	}
	covered := make(map[string]struct{}, len(persisted))
	for _, classroom := range persisted {
		covered[classroom.Code] = struct{}{}
	}

	grouped := make(map[string][]models.Order)
	for _, order := range orders {
		code := models.NormalizeClassCode(order.ClassCode)
		if code == "" {
			continue
		}
		if _, ok := covered[code]; ok {
			continue
		}
		grouped[code] = append(grouped[code], order)
	}

	classes := make([]dto.VirtualClassResponse, 0, len(grouped))
	for code, group := range grouped {
		classes = append(classes, s.buildVirtualClass(ctx, code, group))
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Code < classes[j].Code })
	return classes, nil
}

func (s *classroomService) VirtualClassByCode(ctx context.Context, classCode string, actor Actor) (dto.VirtualClassResponse, error) {
	code := models.NormalizeClassCode(strings.TrimPrefix(classCode, VirtualClassPrefix))
	orders, err := s.orders.ListByClassCode(ctx, code)
	if err != nil {
		return dto.VirtualClassResponse{}, err
	}
	if len(orders) == 0 {
		return dto.VirtualClassResponse{}, ErrVirtualClassNotFound
	}
	return s.buildVirtualClass(ctx, code, orders), nil
}

func (s *classroomService) buildVirtualClass(ctx context.Context, code string, orders []models.Order) dto.VirtualClassResponse {
	class := dto.VirtualClassResponse{
		ID:      VirtualClassPrefix + code,
		Code:    code,
		Name:    code,
		Virtual: true,
	}

	for _, order := range orders {
		entry := dto.VirtualStudent{
			Name:    order.StudentName,
			Code:    order.StudentCode,
			OrderID: order.ID,
		}
		if student, ok := s.resolveOrderStudent(ctx, order); ok {
			entry.ID = strconv.FormatUint(uint64(student.ID), 10)
			entry.StudentID = student.ID
			entry.Name = student.Name
			entry.Code = student.Code
		} else {
			entry.ID = SyntheticStudentID(order.StudentName, order.StudentCode, code)
			entry.Synthetic = true
		}
		class.Students = append(class.Students, entry)
	}

	sort.Slice(class.Students, func(i, j int) bool {
		return strings.ToLower(class.Students[i].Name) < strings.ToLower(class.Students[j].Name)
	})
	return class
}

// resolveOrderStudent tries, in order: id match, student-code match, exact
// full-name match.
func (s *classroomService) resolveOrderStudent(ctx context.Context, order models.Order) (models.Student, bool) {
	if order.StudentID != nil {
		if student, err := s.students.GetByID(ctx, *order.StudentID); err == nil {
			return student, true
		}
	}
	if order.StudentCode != "" {
		if student, err := s.students.GetByCode(ctx, order.StudentCode); err == nil {
			return student, true
		}
	}
	if order.StudentName != "" {
		if student, err := s.students.GetByName(ctx, order.StudentName); err == nil {
			return student, true
		}
	}
	return models.Student{}, false
}

// ResolveVirtualStudent materializes a real student for a synthetic virtual
// class entry, creating the document when no prior match exists.
func (s *classroomService) ResolveVirtualStudent(ctx context.Context, classCode, syntheticID string, actor Actor) (models.Student, error) {
	class, err := s.VirtualClassByCode(ctx, classCode, actor)
	if err != nil {
		return models.Student{}, err
	}

	for _, entry := range class.Students {
		if entry.ID != syntheticID {
			continue
		}
		if entry.StudentID != 0 {
			return s.students.GetByID(ctx, entry.StudentID)
		}
		if entry.Code != "" {
			if student, err := s.students.GetByCode(ctx, entry.Code); err == nil {
				return student, nil
			}
		}

		student := models.Student{
			Code: entry.Code,
			Name: entry.Name,
		}
		if student.Code == "" {
			student.Code = "STU-" + strings.ToUpper(syntheticID[:8])
		}
		if err := s.students.Create(ctx, &student); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.students.GetByCode(ctx, student.Code)
			}
			return models.Student{}, err
		}

		s.logger.Info().
			Str("class_code", class.Code).
			Uint("student_id", student.ID).
			Msg("materialized student from virtual class entry")
		return student, nil
	}

	return models.Student{}, ErrVirtualStudentNotFound
}

// RosterForClass resolves class membership, preferring live order-derived
// membership and falling back to the classroom's stored student list.
func (s *classroomService) RosterForClass(ctx context.Context, classroom models.Classroom) ([]models.Student, error) {
	orders, err := s.orders.ListByClassCode(ctx, classroom.Code)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{})
	ids := make([]uint, 0, len(orders))
	for _, order := range orders {
		if student, ok := s.resolveOrderStudent(ctx, order); ok {
			if _, dup := seen[student.ID]; !dup {
				seen[student.ID] = struct{}{}
				ids = append(ids, student.ID)
			}
		}
	}

	if len(ids) == 0 {
		ids = classroom.StudentIDs
	}

	students, err := s.students.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(students, func(i, j int) bool {
		return strings.ToLower(students[i].Name) < strings.ToLower(students[j].Name)
	})
	return students, nil
}

func (s *classroomService) ClassesForTeacher(ctx context.Context, teacherID uint) ([]models.Classroom, error) {
	classrooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, err
	}

	assigned := classrooms[:0]
	for _, classroom := range classrooms {
		if classroom.HasTeacher(teacherID) {
			assigned = append(assigned, classroom)
		}
	}
	return assigned, nil
}

// SyntheticStudentID derives a stable id for an order row that resolves to no
// real student, so repeated virtual-class reads agree without a backing
// document.
func SyntheticStudentID(name, studentCode, classCode string) string {
	seed := strings.ToLower(strings.TrimSpace(name)) + "|" +
		strings.ToUpper(strings.TrimSpace(studentCode)) + "|" +
		models.NormalizeClassCode(classCode)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:16]
}

func validateRates(teachers models.ClassTeachers) error {
	for _, teacher := range teachers {
		for duration, rate := range teacher.OnlineRates {
			if rate < 0 {
				return fmt.Errorf("%w: negative rate for %d minutes", ErrNegativeRate, duration)
			}
		}
		for tier, rate := range teacher.OfflineRates {
			if rate < 0 {
				return fmt.Errorf("%w: negative rate for tier %s", ErrNegativeRate, tier)
			}
		}
	}
	return nil
}

// ErrNegativeRate indicates a rate table carrying a negative amount.
var ErrNegativeRate = errors.New("rate must be non-negative")
