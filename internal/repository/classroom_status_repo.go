package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

// ClassroomStatusRepository persists the classroom-status aggregate, keyed
// 1:1 by order.
type ClassroomStatusRepository interface {
	GetByID(ctx context.Context, id uint) (models.ClassroomStatus, error)
	GetByOrderID(ctx context.Context, orderID uint) (models.ClassroomStatus, error)
	Create(ctx context.Context, record *models.ClassroomStatus) error
	Update(ctx context.Context, record *models.ClassroomStatus) error
	DeleteByOrderID(ctx context.Context, orderID uint) error
	List(ctx context.Context) ([]models.ClassroomStatus, error)
}

type classroomStatusRepository struct {
	db *gorm.DB
}

// NewClassroomStatusRepository constructs a classroom-status repository.
func NewClassroomStatusRepository(db *gorm.DB) ClassroomStatusRepository {
	return &classroomStatusRepository{db: db}
}

func (r *classroomStatusRepository) GetByID(ctx context.Context, id uint) (models.ClassroomStatus, error) {
	var record models.ClassroomStatus
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return models.ClassroomStatus{}, err
	}
	return record, nil
}

func (r *classroomStatusRepository) GetByOrderID(ctx context.Context, orderID uint) (models.ClassroomStatus, error) {
	var record models.ClassroomStatus
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&record).Error; err != nil {
		return models.ClassroomStatus{}, err
	}
	return record, nil
}

func (r *classroomStatusRepository) Create(ctx context.Context, record *models.ClassroomStatus) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *classroomStatusRepository) Update(ctx context.Context, record *models.ClassroomStatus) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *classroomStatusRepository) DeleteByOrderID(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.ClassroomStatus{}).Error
}

func (r *classroomStatusRepository) List(ctx context.Context) ([]models.ClassroomStatus, error) {
	var records []models.ClassroomStatus
	err := r.db.WithContext(ctx).Order("class_code ASC, student_name ASC").Find(&records).Error
	return records, err
}
