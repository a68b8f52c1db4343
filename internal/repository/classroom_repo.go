package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

// ClassroomRepository provides access to classroom records.
type ClassroomRepository interface {
	GetByID(ctx context.Context, id uint) (models.Classroom, error)
	GetByCode(ctx context.Context, code string) (models.Classroom, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	Update(ctx context.Context, classroom *models.Classroom) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]models.Classroom, error)
}

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository constructs a classroom repository.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).First(&classroom, id).Error; err != nil {
		return models.Classroom{}, err
	}
	return classroom, nil
}

func (r *classroomRepository) GetByCode(ctx context.Context, code string) (models.Classroom, error) {
	var classroom models.Classroom
	err := r.db.WithContext(ctx).
		Where("code = ?", models.NormalizeClassCode(code)).
		First(&classroom).Error
	if err != nil {
		return models.Classroom{}, err
	}
	return classroom, nil
}

func (r *classroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	classroom.Code = models.NormalizeClassCode(classroom.Code)
	return r.db.WithContext(ctx).Create(classroom).Error
}

func (r *classroomRepository) Update(ctx context.Context, classroom *models.Classroom) error {
	classroom.Code = models.NormalizeClassCode(classroom.Code)
	return r.db.WithContext(ctx).Save(classroom).Error
}

func (r *classroomRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Classroom{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *classroomRepository) List(ctx context.Context) ([]models.Classroom, error) {
	var classrooms []models.Classroom
	err := r.db.WithContext(ctx).Order("code ASC").Find(&classrooms).Error
	return classrooms, err
}

// codeSearchPattern is shared by order listings that match class codes loosely.
func codeSearchPattern(code string) string {
	return "%" + strings.ToLower(strings.TrimSpace(code)) + "%"
}
