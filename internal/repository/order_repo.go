package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	ClassCode string
	StudentID uint
	Search    string
	Page      int
	PageSize  int
}

// OrderRepository provides access to enrollment orders.
type OrderRepository interface {
	GetByID(ctx context.Context, id uint) (models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	ListByClassCode(ctx context.Context, classCode string) ([]models.Order, error)
	ListByStudentAndClassroom(ctx context.Context, studentID, classroomID uint) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository constructs an order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	order.ClassCode = models.NormalizeClassCode(order.ClassCode)
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) Update(ctx context.Context, order *models.Order) error {
	order.ClassCode = models.NormalizeClassCode(order.ClassCode)
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Order{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filter.ClassCode != "" {
		query = query.Where("class_code = ?", models.NormalizeClassCode(filter.ClassCode))
	}
	if filter.StudentID != 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := codeSearchPattern(search)
		query = query.Where("LOWER(student_name) LIKE ? OR LOWER(class_code) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) ListByClassCode(ctx context.Context, classCode string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("class_code = ?", models.NormalizeClassCode(classCode)).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) ListByStudentAndClassroom(ctx context.Context, studentID, classroomID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND classroom_id = ?", studentID, classroomID).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Order("class_code ASC, student_name ASC").Find(&orders).Error
	return orders, err
}
