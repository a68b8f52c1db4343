package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/repository"
)

var (
	// ErrStudentNotFound indicates the requested student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrDuplicateStudentCode indicates the student code is already taken.
	ErrDuplicateStudentCode = errors.New("student code already exists")
	// ErrStudentHasAttendance blocks deleting a student with ledger history.
	ErrStudentHasAttendance = errors.New("student has attendance records")
	// ErrTooManyFrames indicates the payment frame cap was reached.
	ErrTooManyFrames = errors.New("payment frame limit reached")
	// ErrFrameNotFound indicates no frame exists at the given index.
	ErrFrameNotFound = errors.New("payment frame not found")
)

// StudentService owns student CRUD, payment frames and the derived session
// balance.
type StudentService interface {
	Get(ctx context.Context, id uint) (models.Student, error)
	List(ctx context.Context, filter repository.StudentFilter) ([]models.Student, int64, error)
	Create(ctx context.Context, payload dto.StudentCreateRequest) (models.Student, error)
	Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (models.Student, error)
	Delete(ctx context.Context, id uint) error

	UpsertPaymentFrame(ctx context.Context, studentID uint, payload dto.PaymentFrameRequest) (models.Student, error)
	ConfirmPaymentFrame(ctx context.Context, studentID uint, frameIndex int) (models.Student, error)
	Balance(ctx context.Context, studentID uint) (dto.SessionBalanceResponse, error)
}

type studentService struct {
	students   repository.StudentRepository
	attendance repository.AttendanceRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewStudentService builds a student service.
func NewStudentService(
	students repository.StudentRepository,
	attendance repository.AttendanceRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		students:   students,
		attendance: attendance,
		validator:  validate,
		logger:     logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Get(ctx context.Context, id uint) (models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}
	return student, nil
}

func (s *studentService) List(ctx context.Context, filter repository.StudentFilter) ([]models.Student, int64, error) {
	return s.students.List(ctx, filter)
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (models.Student, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Student{}, err
	}

	student := models.Student{
		Code:          strings.ToUpper(strings.TrimSpace(payload.Code)),
		Name:          strings.TrimSpace(payload.Name),
		GuardianName:  payload.GuardianName,
		GuardianPhone: payload.GuardianPhone,
		SaleID:        payload.SaleID,
		Type:          models.StudentType(payload.Type),
	}
	if student.Type == "" {
		student.Type = models.StudentTypeOnline
	}

	if err := s.students.Create(ctx, &student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Student{}, ErrDuplicateStudentCode
		}
		return models.Student{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Str("code", student.Code).Msg("student registered")
	return student, nil
}

func (s *studentService) Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (models.Student, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Student{}, err
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return models.Student{}, err
	}

	if payload.Name != nil {
		student.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.GuardianName != nil {
		student.GuardianName = *payload.GuardianName
	}
	if payload.GuardianPhone != nil {
		student.GuardianPhone = *payload.GuardianPhone
	}
	if payload.SaleID != nil {
		student.SaleID = payload.SaleID
	}
	if payload.Type != nil {
		student.Type = models.StudentType(*payload.Type)
	}
	if payload.ApprovalStatus != nil {
		student.ApprovalStatus = *payload.ApprovalStatus
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return models.Student{}, err
	}
	return student, nil
}

// Delete refuses to remove a student that still has ledger history; the
// usage counter must stay reconstructible.
func (s *studentService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.attendance.CountByStudent(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d records", ErrStudentHasAttendance, count)
	}

	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.logger.Info().Uint("student_id", id).Msg("student deleted")
	return nil
}

// UpsertPaymentFrame inserts or replaces the frame at the payload's index.
// New frames default to PENDING; confirmation is a separate step.
func (s *studentService) UpsertPaymentFrame(ctx context.Context, studentID uint, payload dto.PaymentFrameRequest) (models.Student, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Student{}, err
	}

	student, err := s.Get(ctx, studentID)
	if err != nil {
		return models.Student{}, err
	}

	frame := models.PaymentFrame{
		Index:              payload.Index,
		InvoiceCode:        payload.InvoiceCode,
		Amount:             payload.Amount,
		Sessions70:         payload.Sessions70,
		RegisteredDuration: payload.RegisteredDuration,
		ImageURL:           payload.ImageURL,
		TransferDate:       payload.TransferDate,
		ConfirmStatus:      models.FrameConfirmStatus(payload.ConfirmStatus),
	}
	if frame.ConfirmStatus == "" {
		frame.ConfirmStatus = models.FrameStatusPending
	}

	replaced := false
	for i := range student.PaymentFrames {
		if student.PaymentFrames[i].Index == frame.Index {
			student.PaymentFrames[i] = frame
			replaced = true
			break
		}
	}
	if !replaced {
		if len(student.PaymentFrames) >= models.MaxPaymentFrames {
			return models.Student{}, ErrTooManyFrames
		}
		student.PaymentFrames = append(student.PaymentFrames, frame)
		sort.Slice(student.PaymentFrames, func(i, j int) bool {
			return student.PaymentFrames[i].Index < student.PaymentFrames[j].Index
		})
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return models.Student{}, err
	}

	s.logger.Info().
		Uint("student_id", student.ID).
		Int("frame_index", frame.Index).
		Float64("sessions_70", frame.Sessions70).
		Msg("payment frame upserted")
	return student, nil
}

func (s *studentService) ConfirmPaymentFrame(ctx context.Context, studentID uint, frameIndex int) (models.Student, error) {
	student, err := s.Get(ctx, studentID)
	if err != nil {
		return models.Student{}, err
	}

	found := false
	for i := range student.PaymentFrames {
		if student.PaymentFrames[i].Index == frameIndex {
			student.PaymentFrames[i].ConfirmStatus = models.FrameStatusConfirmed
			found = true
			break
		}
	}
	if !found {
		return models.Student{}, fmt.Errorf("%w: index %d", ErrFrameNotFound, frameIndex)
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return models.Student{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Int("frame_index", frameIndex).Msg("payment frame confirmed")
	return student, nil
}

// Balance recomputes the remaining-session view from confirmed frames and the
// summed ledger usage. Never cached; stale balances misprice refunds.
func (s *studentService) Balance(ctx context.Context, studentID uint) (dto.SessionBalanceResponse, error) {
	student, err := s.Get(ctx, studentID)
	if err != nil {
		return dto.SessionBalanceResponse{}, err
	}

	used, err := s.attendance.SumBaseSessionsUsed(ctx, studentID)
	if err != nil {
		return dto.SessionBalanceResponse{}, err
	}
	return dto.NewSessionBalanceResponse(student, used), nil
}
