package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/repository"
)

// ErrClassroomStatusNotFound indicates the aggregate record does not exist.
var ErrClassroomStatusNotFound = errors.New("classroom status not found")

// Display statuses written by the lock action and mirrored onto the order.
const (
	ClassroomStatusLocked   = "LOCKED"
	ClassroomStatusUnlocked = "UNLOCKED"
)

// ClassroomStatusService maintains the lockable classroom overview aggregate.
type ClassroomStatusService interface {
	OrderChangeApplier
	List(ctx context.Context) ([]models.ClassroomStatus, error)
	Get(ctx context.Context, id uint) (models.ClassroomStatus, error)
	Lock(ctx context.Context, id uint, isLocked bool) (models.ClassroomStatus, error)
}

type classroomStatusService struct {
	repo   repository.ClassroomStatusRepository
	orders repository.OrderRepository
	logger zerolog.Logger
}

// NewClassroomStatusService builds a classroom-status service.
func NewClassroomStatusService(repo repository.ClassroomStatusRepository, orders repository.OrderRepository, logger zerolog.Logger) ClassroomStatusService {
	return &classroomStatusService{
		repo:   repo,
		orders: orders,
		logger: logger.With().Str("component", "classroom_status_service").Logger(),
	}
}

func (s *classroomStatusService) List(ctx context.Context) ([]models.ClassroomStatus, error) {
	return s.repo.List(ctx)
}

func (s *classroomStatusService) Get(ctx context.Context, id uint) (models.ClassroomStatus, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ClassroomStatus{}, ErrClassroomStatusNotFound
		}
		return models.ClassroomStatus{}, err
	}
	return record, nil
}

// ApplyOrderChange upserts the aggregate for the order. While an operator
// holds the lock, the status field stops following the order; payment status
// keeps syncing.
func (s *classroomStatusService) ApplyOrderChange(ctx context.Context, event OrderChanged) error {
	record, err := s.repo.GetByOrderID(ctx, event.OrderID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		record = models.ClassroomStatus{
			OrderID:       event.OrderID,
			StudentName:   event.StudentName,
			ClassCode:     event.ClassCode,
			TeacherName:   event.TeacherName,
			Status:        event.Status,
			PaymentStatus: event.PaymentStatus,
		}
		if err := s.repo.Create(ctx, &record); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Concurrent sync created it first; fall through to update.
				return s.ApplyOrderChange(ctx, event)
			}
			return err
		}
		return nil
	}

	record.StudentName = event.StudentName
	record.ClassCode = event.ClassCode
	record.TeacherName = event.TeacherName
	record.PaymentStatus = event.PaymentStatus
	if !record.IsLocked {
		record.Status = event.Status
	}
	return s.repo.Update(ctx, &record)
}

func (s *classroomStatusService) DeleteForOrder(ctx context.Context, orderID uint) error {
	return s.repo.DeleteByOrderID(ctx, orderID)
}

// Lock flips the operator lock and writes the resulting display status back
// onto the originating order, the one place sync flows upstream.
func (s *classroomStatusService) Lock(ctx context.Context, id uint, isLocked bool) (models.ClassroomStatus, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return models.ClassroomStatus{}, err
	}

	record.IsLocked = isLocked
	if isLocked {
		record.Status = ClassroomStatusLocked
	} else {
		record.Status = ClassroomStatusUnlocked
	}
	if err := s.repo.Update(ctx, &record); err != nil {
		return models.ClassroomStatus{}, err
	}

	order, err := s.orders.GetByID(ctx, record.OrderID)
	if err == nil {
		order.Status = record.Status
		if err := s.orders.Update(ctx, &order); err != nil {
			s.logger.Warn().Err(err).Uint("order_id", order.ID).Msg("failed to mirror lock status onto order")
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ClassroomStatus{}, err
	}

	s.logger.Info().Uint("classroom_status_id", record.ID).Bool("locked", isLocked).Msg("classroom status lock changed")
	return record, nil
}
