package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

// AttendanceRepository provides access to the attendance ledger. Records are
// unique on (classroom, student, day); a duplicate insert racing past the
// read-then-write path fails with gorm.ErrDuplicatedKey for the service layer
// to translate.
type AttendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	Update(ctx context.Context, record *models.AttendanceRecord) error
	GetByID(ctx context.Context, id uint) (models.AttendanceRecord, error)
	GetByKey(ctx context.Context, classroomID, studentID uint, date time.Time) (models.AttendanceRecord, error)
	GetByToken(ctx context.Context, token string) (models.AttendanceRecord, error)
	ListByClassAndDate(ctx context.Context, classroomID uint, date time.Time) ([]models.AttendanceRecord, error)
	ListByStudent(ctx context.Context, studentID, classroomID uint) ([]models.AttendanceRecord, error)
	ListRecentAttended(ctx context.Context, studentID, classroomID uint, limit int) ([]models.AttendanceRecord, error)
	ListAttendedInRange(ctx context.Context, classroomID uint, from, to time.Time) ([]models.AttendanceRecord, error)
	CountByStatus(ctx context.Context, classroomID uint, from, to time.Time) (map[models.AttendanceStatus]int64, error)
	CountByStudent(ctx context.Context, studentID uint) (int64, error)
	SumBaseSessionsUsed(ctx context.Context, studentID uint) (float64, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository constructs an attendance repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *attendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *attendanceRepository) GetByID(ctx context.Context, id uint) (models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return models.AttendanceRecord{}, err
	}
	return record, nil
}

func (r *attendanceRepository) GetByKey(ctx context.Context, classroomID, studentID uint, date time.Time) (models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("classroom_id = ? AND student_id = ? AND date = ?", classroomID, studentID, models.TruncateToDay(date)).
		First(&record).Error
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	return record, nil
}

func (r *attendanceRepository) GetByToken(ctx context.Context, token string) (models.AttendanceRecord, error) {
	// Records created by staff marking carry an empty token. An empty lookup
	// must never match one of them.
	if token == "" {
		return models.AttendanceRecord{}, gorm.ErrRecordNotFound
	}

	var record models.AttendanceRecord
	err := r.db.WithContext(ctx).Where("token = ? AND token <> ''", token).First(&record).Error
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	return record, nil
}

func (r *attendanceRepository) ListByClassAndDate(ctx context.Context, classroomID uint, date time.Time) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("classroom_id = ? AND date = ?", classroomID, models.TruncateToDay(date)).
		Find(&records).Error
	return records, err
}

func (r *attendanceRepository) ListByStudent(ctx context.Context, studentID, classroomID uint) ([]models.AttendanceRecord, error) {
	query := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if classroomID != 0 {
		query = query.Where("classroom_id = ?", classroomID)
	}

	var records []models.AttendanceRecord
	err := query.Order("date DESC").Find(&records).Error
	return records, err
}

func (r *attendanceRepository) ListRecentAttended(ctx context.Context, studentID, classroomID uint, limit int) ([]models.AttendanceRecord, error) {
	if limit <= 0 {
		limit = 30
	}

	var records []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND classroom_id = ?", studentID, classroomID).
		Where("status IN ?", []models.AttendanceStatus{models.AttendancePresent, models.AttendanceLate}).
		Order("date DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	// Callers want the audit trail oldest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (r *attendanceRepository) ListAttendedInRange(ctx context.Context, classroomID uint, from, to time.Time) ([]models.AttendanceRecord, error) {
	query := r.db.WithContext(ctx).
		Where("attended_at IS NOT NULL").
		Where("date >= ? AND date <= ?", models.TruncateToDay(from), models.TruncateToDay(to))
	if classroomID != 0 {
		query = query.Where("classroom_id = ?", classroomID)
	}

	var records []models.AttendanceRecord
	err := query.Order("date ASC").Find(&records).Error
	return records, err
}

func (r *attendanceRepository) CountByStatus(ctx context.Context, classroomID uint, from, to time.Time) (map[models.AttendanceStatus]int64, error) {
	type statusCount struct {
		Status models.AttendanceStatus
		Total  int64
	}

	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Select("status, COUNT(*) AS total").
		Where("classroom_id = ? AND date >= ? AND date <= ?", classroomID, models.TruncateToDay(from), models.TruncateToDay(to)).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.AttendanceStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *attendanceRepository) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("student_id = ?", studentID).
		Count(&total).Error
	return total, err
}

func (r *attendanceRepository) SumBaseSessionsUsed(ctx context.Context, studentID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Select("COALESCE(SUM(base_sessions_used), 0)").
		Where("student_id = ?", studentID).
		Scan(&total).Error
	return total, err
}
