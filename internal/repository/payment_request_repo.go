package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

// PaymentRequestRepository persists the payroll aggregate, keyed 1:1 by order.
type PaymentRequestRepository interface {
	GetByID(ctx context.Context, id uint) (models.PaymentRequest, error)
	GetByOrderID(ctx context.Context, orderID uint) (models.PaymentRequest, error)
	Create(ctx context.Context, record *models.PaymentRequest) error
	Update(ctx context.Context, record *models.PaymentRequest) error
	DeleteByOrderID(ctx context.Context, orderID uint) error
	List(ctx context.Context) ([]models.PaymentRequest, error)
}

type paymentRequestRepository struct {
	db *gorm.DB
}

// NewPaymentRequestRepository constructs a payment-request repository.
func NewPaymentRequestRepository(db *gorm.DB) PaymentRequestRepository {
	return &paymentRequestRepository{db: db}
}

func (r *paymentRequestRepository) GetByID(ctx context.Context, id uint) (models.PaymentRequest, error) {
	var record models.PaymentRequest
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return models.PaymentRequest{}, err
	}
	return record, nil
}

func (r *paymentRequestRepository) GetByOrderID(ctx context.Context, orderID uint) (models.PaymentRequest, error) {
	var record models.PaymentRequest
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&record).Error; err != nil {
		return models.PaymentRequest{}, err
	}
	return record, nil
}

func (r *paymentRequestRepository) Create(ctx context.Context, record *models.PaymentRequest) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *paymentRequestRepository) Update(ctx context.Context, record *models.PaymentRequest) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *paymentRequestRepository) DeleteByOrderID(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.PaymentRequest{}).Error
}

func (r *paymentRequestRepository) List(ctx context.Context) ([]models.PaymentRequest, error) {
	var records []models.PaymentRequest
	err := r.db.WithContext(ctx).Order("class_code ASC, teacher_name ASC").Find(&records).Error
	return records, err
}
