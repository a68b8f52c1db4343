package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/repository"
)

// ErrPaymentRequestNotFound indicates the aggregate record does not exist.
var ErrPaymentRequestNotFound = errors.New("payment request not found")

// PaymentRequestService maintains the payroll aggregate and its submit
// transition.
type PaymentRequestService interface {
	OrderChangeApplier
	List(ctx context.Context) ([]models.PaymentRequest, error)
	Get(ctx context.Context, id uint) (models.PaymentRequest, error)
	SubmitRequest(ctx context.Context, id uint, paymentStatus string) (models.PaymentRequest, error)
}

type paymentRequestService struct {
	repo   repository.PaymentRequestRepository
	orders repository.OrderRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewPaymentRequestService builds a payment-request service.
func NewPaymentRequestService(repo repository.PaymentRequestRepository, orders repository.OrderRepository, logger zerolog.Logger) PaymentRequestService {
	return &paymentRequestService{
		repo:   repo,
		orders: orders,
		logger: logger.With().Str("component", "payment_request_service").Logger(),
		now:    time.Now,
	}
}

func (s *paymentRequestService) List(ctx context.Context) ([]models.PaymentRequest, error) {
	return s.repo.List(ctx)
}

func (s *paymentRequestService) Get(ctx context.Context, id uint) (models.PaymentRequest, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.PaymentRequest{}, ErrPaymentRequestNotFound
		}
		return models.PaymentRequest{}, err
	}
	return record, nil
}

// ApplyOrderChange upserts the aggregate, overwriting the session audit trail
// and totals unconditionally. There is no lock concept here.
func (s *paymentRequestService) ApplyOrderChange(ctx context.Context, event OrderChanged) error {
	record, err := s.repo.GetByOrderID(ctx, event.OrderID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		record = models.PaymentRequest{
			OrderID:       event.OrderID,
			PaymentStatus: event.PaymentStatus,
		}
		s.fill(&record, event)
		if err := s.repo.Create(ctx, &record); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.ApplyOrderChange(ctx, event)
			}
			return err
		}
		return nil
	}

	s.fill(&record, event)
	record.PaymentStatus = event.PaymentStatus
	return s.repo.Update(ctx, &record)
}

func (s *paymentRequestService) fill(record *models.PaymentRequest, event OrderChanged) {
	record.TeacherID = event.TeacherID
	record.TeacherName = event.TeacherName
	record.StudentName = event.StudentName
	record.ClassCode = event.ClassCode
	record.Sessions = event.Sessions
	record.TotalAttendedSessions = event.TotalAttendedSessions
	record.EarnedSalary = event.EarnedSalary
}

func (s *paymentRequestService) DeleteForOrder(ctx context.Context, orderID uint) error {
	return s.repo.DeleteByOrderID(ctx, orderID)
}

// SubmitRequest advances the payroll workflow and mirrors the status onto the
// order's payment-status field.
func (s *paymentRequestService) SubmitRequest(ctx context.Context, id uint, paymentStatus string) (models.PaymentRequest, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return models.PaymentRequest{}, err
	}

	submitted := s.now()
	record.PaymentStatus = paymentStatus
	record.SubmittedAt = &submitted
	if err := s.repo.Update(ctx, &record); err != nil {
		return models.PaymentRequest{}, err
	}

	order, err := s.orders.GetByID(ctx, record.OrderID)
	if err == nil {
		order.PaymentStatus = paymentStatus
		if err := s.orders.Update(ctx, &order); err != nil {
			s.logger.Warn().Err(err).Uint("order_id", order.ID).Msg("failed to mirror payment status onto order")
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PaymentRequest{}, err
	}

	s.logger.Info().Uint("payment_request_id", record.ID).Str("payment_status", paymentStatus).Msg("payment request submitted")
	return record, nil
}
