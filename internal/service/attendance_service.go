package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/observability"
	"github.com/noah-isme/sekolah-ops-api/internal/repository"
)

var (
	// ErrAttendanceNotFound indicates the requested record does not exist.
	ErrAttendanceNotFound = errors.New("attendance record not found")
	// ErrDuplicateAttendance indicates a write raced another for the same
	// (class, student, day) key.
	ErrDuplicateAttendance = errors.New("attendance already recorded for this day")
	// ErrStudentNotInRoster indicates the student does not belong to the class.
	ErrStudentNotInRoster = errors.New("student is not in the class roster")
	// ErrInvalidDate indicates a malformed calendar date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidStatus indicates an unknown attendance status value.
	ErrInvalidStatus = errors.New("invalid attendance status")
	// ErrInvalidReference indicates a malformed class or student reference.
	ErrInvalidReference = errors.New("invalid reference id")
	// ErrNotAssignedTeacher indicates a teacher acting outside their classes.
	ErrNotAssignedTeacher = errors.New("teacher is not assigned to this class")
	// ErrTokenNotFound indicates no record carries the supplied token.
	ErrTokenNotFound = errors.New("attendance token not found")
	// ErrTokenExpired indicates the token's day has passed.
	ErrTokenExpired = errors.New("attendance token expired")
	// ErrAlreadyCheckedIn indicates the token was already consumed.
	ErrAlreadyCheckedIn = errors.New("already checked in")
	// ErrInvalidImage indicates the check-in payload is not a usable image.
	ErrInvalidImage = errors.New("check-in image is not a valid image payload")
)

// FileStorage abstracts where check-in evidence images are persisted.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// OrderResyncer replays order sync after attendance mutations. Implemented by
// the order service; attendance treats sync failures as background noise.
type OrderResyncer interface {
	ResyncForStudent(ctx context.Context, studentID, classroomID uint) error
}

// AttendanceService owns the attendance ledger lifecycle.
type AttendanceService interface {
	Mark(ctx context.Context, payload dto.AttendanceMarkRequest, actor Actor) (dto.AttendanceResponse, error)
	BulkMark(ctx context.Context, payload dto.AttendanceBulkMarkRequest, actor Actor) ([]dto.AttendanceResponse, error)
	Update(ctx context.Context, id uint, payload dto.AttendanceUpdateRequest) (dto.AttendanceResponse, error)
	GenerateLink(ctx context.Context, payload dto.GenerateLinkRequest, actor Actor) (dto.GenerateLinkResponse, error)
	GetByToken(ctx context.Context, token string) (dto.TokenLookupResponse, error)
	SubmitByToken(ctx context.Context, payload dto.TokenSubmitRequest) (dto.AttendanceResponse, error)
	ClassDay(ctx context.Context, classroomID uint, date time.Time) (dto.ClassDayResponse, error)
	StudentHistory(ctx context.Context, studentID, classroomID uint) ([]dto.AttendanceResponse, error)
	Stats(ctx context.Context, classroomID uint, from, to time.Time) (dto.AttendanceStatsResponse, error)
	Report(ctx context.Context, from, to time.Time, classroomID uint) ([]dto.AttendanceReportRow, error)
}

type attendanceService struct {
	attendance repository.AttendanceRepository
	students   repository.StudentRepository
	classrooms ClassroomService
	orders     OrderResyncer
	storage    FileStorage
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	redis      *redis.Client
	statsTTL   time.Duration
	frontendURL string
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewAttendanceService builds the attendance service. A nil redis client
// disables stats caching.
func NewAttendanceService(
	attendance repository.AttendanceRepository,
	students repository.StudentRepository,
	classrooms ClassroomService,
	orders OrderResyncer,
	storage FileStorage,
	redisClient *redis.Client,
	statsTTL time.Duration,
	frontendURL string,
	validate *validator.Validate,
	logger zerolog.Logger,
) AttendanceService {
	if statsTTL <= 0 {
		statsTTL = time.Minute
	}
	return &attendanceService{
		attendance:  attendance,
		students:    students,
		classrooms:  classrooms,
		orders:      orders,
		storage:     storage,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		redis:       redisClient,
		statsTTL:    statsTTL,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger.With().Str("component", "attendance_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/sekolah-ops-api/internal/service/attendance"),
		now:         time.Now,
	}
}

func (s *attendanceService) Mark(ctx context.Context, payload dto.AttendanceMarkRequest, actor Actor) (dto.AttendanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttendanceResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "attendance.mark", trace.WithAttributes(
		attribute.Int64("attendance.classroom_id", int64(payload.ClassID)),
		attribute.Int64("attendance.student_id", int64(payload.StudentID)),
	))
	defer span.End()

	status, err := resolveStatus(payload.Status)
	if err != nil {
		return dto.AttendanceResponse{}, err
	}
	duration, err := models.NormalizeDuration(payload.Duration)
	if err != nil {
		return dto.AttendanceResponse{}, err
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		return dto.AttendanceResponse{}, err
	}

	classroom, err := s.classrooms.Get(ctx, payload.ClassID)
	if err != nil {
		return dto.AttendanceResponse{}, err
	}
	if err := authorizeTeacher(classroom, actor); err != nil {
		return dto.AttendanceResponse{}, err
	}

	roster, err := s.classrooms.RosterForClass(ctx, classroom)
	if err != nil {
		return dto.AttendanceResponse{}, err
	}
	if !rosterContains(roster, payload.StudentID) {
		return dto.AttendanceResponse{}, ErrStudentNotInRoster
	}

	record, err := s.upsert(ctx, classroom.ID, payload.StudentID, date, status, duration, payload.Notes)
	if err != nil {
		span.RecordError(err)
		return dto.AttendanceResponse{}, err
	}

	observability.AttendanceMarks().WithLabelValues(string(record.Status)).Inc()
	s.resync(ctx, record.StudentID, record.ClassroomID)
	return dto.NewAttendanceResponse(record), nil
}

// BulkMark applies the same per-item upsert logic sequentially. Items outside
// the validated roster are skipped silently; one item's failure never aborts
// the batch.
func (s *attendanceService) BulkMark(ctx context.Context, payload dto.AttendanceBulkMarkRequest, actor Actor) ([]dto.AttendanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	date, err := parseDate(payload.Date)
	if err != nil {
		return nil, err
	}
	classroom, err := s.classrooms.Get(ctx, payload.ClassID)
	if err != nil {
		return nil, err
	}
	if err := authorizeTeacher(classroom, actor); err != nil {
		return nil, err
	}

	roster, err := s.classrooms.RosterForClass(ctx, classroom)
	if err != nil {
		return nil, err
	}
	rosterSet := make(map[uint]struct{}, len(roster))
	for _, student := range roster {
		rosterSet[student.ID] = struct{}{}
	}

	results := make([]dto.AttendanceResponse, 0, len(payload.Items))
	touched := make(map[uint]struct{})
	for _, item := range payload.Items {
		if _, ok := rosterSet[item.StudentID]; !ok {
			s.logger.Debug().Uint("student_id", item.StudentID).Uint("classroom_id", classroom.ID).
				Msg("bulk mark skipped student outside roster")
			continue
		}

		status, err := resolveStatus(item.Status)
		if err != nil {
			s.logger.Warn().Err(err).Uint("student_id", item.StudentID).Msg("bulk mark item rejected")
			continue
		}
		duration, err := models.NormalizeDuration(item.Duration)
		if err != nil {
			s.logger.Warn().Err(err).Uint("student_id", item.StudentID).Msg("bulk mark item rejected")
			continue
		}

		record, err := s.upsert(ctx, classroom.ID, item.StudentID, date, status, duration, item.Notes)
		if err != nil {
			s.logger.Warn().Err(err).Uint("student_id", item.StudentID).Msg("bulk mark item failed")
			continue
		}

		observability.AttendanceMarks().WithLabelValues(string(record.Status)).Inc()
		results = append(results, dto.NewAttendanceResponse(record))
		touched[item.StudentID] = struct{}{}
	}

	for studentID := range touched {
		s.resync(ctx, studentID, classroom.ID)
	}
	return results, nil
}

func (s *attendanceService) Update(ctx context.Context, id uint, payload dto.AttendanceUpdateRequest) (dto.AttendanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttendanceResponse{}, err
	}

	record, err := s.attendance.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceResponse{}, ErrAttendanceNotFound
		}
		return dto.AttendanceResponse{}, err
	}

	if payload.Status != nil {
		status, err := resolveStatus(*payload.Status)
		if err != nil {
			return dto.AttendanceResponse{}, err
		}
		record.Status = status
	}
	if payload.Duration != nil {
		duration, err := models.NormalizeDuration(payload.Duration)
		if err != nil {
			return dto.AttendanceResponse{}, err
		}
		record.Duration = duration
	}
	if payload.Notes != nil {
		record.Notes = s.sanitizer.Sanitize(*payload.Notes)
	}
	record.BaseSessionsUsed = models.BaseSessionsUsed(record.Status, record.Duration)

	if err := s.attendance.Update(ctx, &record); err != nil {
		return dto.AttendanceResponse{}, err
	}

	s.resync(ctx, record.StudentID, record.ClassroomID)
	return dto.NewAttendanceResponse(record), nil
}

// GenerateLink issues a single-use self-check-in token, valid until the end
// of the day. Virtual class references are materialized first.
func (s *attendanceService) GenerateLink(ctx context.Context, payload dto.GenerateLinkRequest, actor Actor) (dto.GenerateLinkResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GenerateLinkResponse{}, err
	}

	duration, err := models.NormalizeDuration(payload.Duration)
	if err != nil {
		return dto.GenerateLinkResponse{}, err
	}

	var (
		classroom models.Classroom
		student   models.Student
	)
	if strings.HasPrefix(payload.ClassID, VirtualClassPrefix) {
		code := strings.TrimPrefix(payload.ClassID, VirtualClassPrefix)
		student, err = s.classrooms.ResolveVirtualStudent(ctx, code, payload.StudentID, actor)
		if err != nil {
			return dto.GenerateLinkResponse{}, err
		}
		classroom, err = s.classrooms.EnsureClassroomForCode(ctx, code, nil, actor)
		if err != nil {
			return dto.GenerateLinkResponse{}, err
		}
	} else {
		classroomID, err := parseID(payload.ClassID)
		if err != nil {
			return dto.GenerateLinkResponse{}, err
		}
		classroom, err = s.classrooms.Get(ctx, classroomID)
		if err != nil {
			return dto.GenerateLinkResponse{}, err
		}
		studentID, err := parseID(payload.StudentID)
		if err != nil {
			return dto.GenerateLinkResponse{}, err
		}
		student, err = s.students.GetByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.GenerateLinkResponse{}, ErrStudentNotFound
			}
			return dto.GenerateLinkResponse{}, err
		}
	}

	if err := authorizeTeacher(classroom, actor); err != nil {
		return dto.GenerateLinkResponse{}, err
	}

	date := models.TruncateToDay(s.now())
	if payload.Date != "" {
		if date, err = parseDate(payload.Date); err != nil {
			return dto.GenerateLinkResponse{}, err
		}
	}

	token, err := newToken()
	if err != nil {
		return dto.GenerateLinkResponse{}, err
	}
	expiry := models.EndOfDay(date)

	record, err := s.attendance.GetByKey(ctx, classroom.ID, student.ID, date)
	switch {
	case err == nil:
		if record.CheckedIn() {
			return dto.GenerateLinkResponse{}, ErrAlreadyCheckedIn
		}
		record.Status = models.AttendanceAbsentNoPermission
		record.Duration = duration
		record.BaseSessionsUsed = 0
		record.Token = token
		record.TokenExpiresAt = &expiry
		if err := s.attendance.Update(ctx, &record); err != nil {
			return dto.GenerateLinkResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = models.AttendanceRecord{
			ClassroomID:    classroom.ID,
			StudentID:      student.ID,
			Date:           date,
			Status:         models.AttendanceAbsentNoPermission,
			Duration:       duration,
			Token:          token,
			TokenExpiresAt: &expiry,
		}
		if err := s.attendance.Create(ctx, &record); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return dto.GenerateLinkResponse{}, ErrDuplicateAttendance
			}
			return dto.GenerateLinkResponse{}, err
		}
	default:
		return dto.GenerateLinkResponse{}, err
	}

	s.logger.Info().
		Uint("attendance_id", record.ID).
		Uint("classroom_id", classroom.ID).
		Uint("student_id", student.ID).
		Time("expires_at", expiry).
		Msg("self-check-in link issued")

	return dto.GenerateLinkResponse{
		Attendance:    dto.NewAttendanceResponse(record),
		AttendanceURL: fmt.Sprintf("%s/attendance/check-in?token=%s", s.frontendURL, token),
		Token:         token,
		ExpiresAt:     expiry,
	}, nil
}

func (s *attendanceService) GetByToken(ctx context.Context, token string) (dto.TokenLookupResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return dto.TokenLookupResponse{}, ErrTokenNotFound
	}

	record, err := s.attendance.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenLookupResponse{}, ErrTokenNotFound
		}
		return dto.TokenLookupResponse{}, err
	}

	response := dto.TokenLookupResponse{
		Attendance: dto.NewAttendanceResponse(record),
		Expired:    record.TokenExpired(s.now()),
		CheckedIn:  record.CheckedIn(),
	}
	if student, err := s.students.GetByID(ctx, record.StudentID); err == nil {
		response.StudentName = student.Name
	}
	if classroom, err := s.classrooms.Get(ctx, record.ClassroomID); err == nil {
		response.ClassCode = classroom.Code
		response.ClassName = classroom.Name
	}
	return response, nil
}

// SubmitByToken is the public self-check-in path: token possession is the
// only credential, so expiry and single-use enforcement happen before any
// mutation.
func (s *attendanceService) SubmitByToken(ctx context.Context, payload dto.TokenSubmitRequest) (dto.AttendanceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttendanceResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "attendance.submit_token")
	defer span.End()

	token := strings.TrimSpace(payload.Token)
	if token == "" {
		observability.TokenSubmissions().WithLabelValues("invalid_token").Inc()
		return dto.AttendanceResponse{}, ErrTokenNotFound
	}

	record, err := s.attendance.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.TokenSubmissions().WithLabelValues("invalid_token").Inc()
			return dto.AttendanceResponse{}, ErrTokenNotFound
		}
		return dto.AttendanceResponse{}, err
	}

	now := s.now()
	if record.TokenExpired(now) {
		observability.TokenSubmissions().WithLabelValues("expired").Inc()
		return dto.AttendanceResponse{}, ErrTokenExpired
	}
	if record.CheckedIn() {
		observability.TokenSubmissions().WithLabelValues("already_checked_in").Inc()
		return dto.AttendanceResponse{}, ErrAlreadyCheckedIn
	}

	image, ext, err := decodeEvidenceImage(payload.Image)
	if err != nil {
		observability.TokenSubmissions().WithLabelValues("invalid_image").Inc()
		return dto.AttendanceResponse{}, err
	}

	name := fmt.Sprintf("attendance/%d_%d%s", record.ID, now.Unix(), ext)
	url, err := s.storage.Upload(ctx, name, bytes.NewReader(image))
	if err != nil {
		span.RecordError(err)
		return dto.AttendanceResponse{}, fmt.Errorf("failed to store check-in evidence: %w", err)
	}

	record.Status = models.AttendancePresent
	record.AttendedAt = &now
	record.CheckinImageURL = url
	record.BaseSessionsUsed = models.BaseSessionsUsed(models.AttendancePresent, record.Duration)

	if err := s.attendance.Update(ctx, &record); err != nil {
		span.RecordError(err)
		return dto.AttendanceResponse{}, err
	}

	observability.TokenSubmissions().WithLabelValues("success").Inc()
	s.logger.Info().Uint("attendance_id", record.ID).Msg("student checked in via token")
	s.resync(ctx, record.StudentID, record.ClassroomID)
	return dto.NewAttendanceResponse(record), nil
}

// ClassDay joins the full roster against existing records, synthesizing an
// empty placeholder entry per student with no record yet.
func (s *attendanceService) ClassDay(ctx context.Context, classroomID uint, date time.Time) (dto.ClassDayResponse, error) {
	classroom, err := s.classrooms.Get(ctx, classroomID)
	if err != nil {
		return dto.ClassDayResponse{}, err
	}
	roster, err := s.classrooms.RosterForClass(ctx, classroom)
	if err != nil {
		return dto.ClassDayResponse{}, err
	}
	records, err := s.attendance.ListByClassAndDate(ctx, classroomID, date)
	if err != nil {
		return dto.ClassDayResponse{}, err
	}

	byStudent := make(map[uint]models.AttendanceRecord, len(records))
	for _, record := range records {
		byStudent[record.StudentID] = record
	}

	response := dto.ClassDayResponse{
		ClassroomID: classroom.ID,
		ClassCode:   classroom.Code,
		ClassName:   classroom.Name,
		Date:        models.TruncateToDay(date).Format(dto.DateLayout),
		Entries:     make([]dto.ClassDayEntry, 0, len(roster)),
	}
	for _, student := range roster {
		entry := dto.ClassDayEntry{
			StudentID:   student.ID,
			StudentCode: student.Code,
			StudentName: student.Name,
		}
		if record, ok := byStudent[student.ID]; ok {
			converted := dto.NewAttendanceResponse(record)
			entry.Attendance = &converted
		}
		response.Entries = append(response.Entries, entry)
	}
	return response, nil
}

func (s *attendanceService) StudentHistory(ctx context.Context, studentID, classroomID uint) ([]dto.AttendanceResponse, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	records, err := s.attendance.ListByStudent(ctx, studentID, classroomID)
	if err != nil {
		return nil, err
	}
	return dto.NewAttendanceResponseSlice(records), nil
}

func (s *attendanceService) Stats(ctx context.Context, classroomID uint, from, to time.Time) (dto.AttendanceStatsResponse, error) {
	if _, err := s.classrooms.Get(ctx, classroomID); err != nil {
		return dto.AttendanceStatsResponse{}, err
	}

	key := fmt.Sprintf("attendance:stats:%d:%s:%s",
		classroomID, from.Format(dto.DateLayout), to.Format(dto.DateLayout))

	if s.redis != nil {
		if data, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var cached dto.AttendanceStatsResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	counts, err := s.attendance.CountByStatus(ctx, classroomID, from, to)
	if err != nil {
		return dto.AttendanceStatsResponse{}, err
	}

	response := dto.AttendanceStatsResponse{
		ClassroomID: classroomID,
		StartDate:   models.TruncateToDay(from).Format(dto.DateLayout),
		EndDate:     models.TruncateToDay(to).Format(dto.DateLayout),
		Counts:      make(map[string]int64),
	}
	for _, status := range []models.AttendanceStatus{
		models.AttendancePresent, models.AttendanceAbsent, models.AttendanceLate,
		models.AttendanceExcused, models.AttendanceAbsentNoPermission,
	} {
		response.Counts[string(status)] = counts[status]
	}

	if s.redis != nil {
		if data, err := json.Marshal(response); err == nil {
			if err := s.redis.Set(ctx, key, data, s.statsTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache attendance stats")
			}
		}
	}
	return response, nil
}

// Report flattens attended-only records across classes, each row enriched
// with the salary computed from the class's rate table.
func (s *attendanceService) Report(ctx context.Context, from, to time.Time, classroomID uint) ([]dto.AttendanceReportRow, error) {
	records, err := s.attendance.ListAttendedInRange(ctx, classroomID, from, to)
	if err != nil {
		return nil, err
	}

	classroomCache := make(map[uint]models.Classroom)
	studentCache := make(map[uint]models.Student)

	rows := make([]dto.AttendanceReportRow, 0, len(records))
	for _, record := range records {
		row := dto.AttendanceReportRow{
			AttendanceID: record.ID,
			ClassroomID:  record.ClassroomID,
			StudentID:    record.StudentID,
			Date:         record.Date.Format(dto.DateLayout),
			Status:       string(record.Status),
			Duration:     record.Duration,
			AttendedAt:   record.AttendedAt,
		}

		classroom, ok := classroomCache[record.ClassroomID]
		if !ok {
			if classroom, err = s.classrooms.Get(ctx, record.ClassroomID); err != nil {
				if !errors.Is(err, ErrClassroomNotFound) {
					return nil, err
				}
				classroom = models.Classroom{}
			}
			classroomCache[record.ClassroomID] = classroom
		}
		row.ClassCode = classroom.Code
		if len(classroom.Teachers) > 0 {
			row.Salary = classroom.TeacherRate(classroom.Teachers[0].Teacher.ID, record.Duration)
		}

		student, ok := studentCache[record.StudentID]
		if !ok {
			if student, err = s.students.GetByID(ctx, record.StudentID); err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, err
				}
				student = models.Student{}
			}
			studentCache[record.StudentID] = student
		}
		row.StudentName = student.Name

		rows = append(rows, row)
	}
	return rows, nil
}

// upsert writes the (class, student, day) record, overwriting status and
// derived usage when the key already exists. This is what makes marking
// idempotent and correctable.
func (s *attendanceService) upsert(ctx context.Context, classroomID, studentID uint, date time.Time, status models.AttendanceStatus, duration int, notes string) (models.AttendanceRecord, error) {
	notes = s.sanitizer.Sanitize(notes)

	record, err := s.attendance.GetByKey(ctx, classroomID, studentID, date)
	switch {
	case err == nil:
		record.Status = status
		record.Duration = duration
		record.BaseSessionsUsed = models.BaseSessionsUsed(status, duration)
		if notes != "" {
			record.Notes = notes
		}
		if err := s.attendance.Update(ctx, &record); err != nil {
			return models.AttendanceRecord{}, err
		}
		return record, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = models.AttendanceRecord{
			ClassroomID:      classroomID,
			StudentID:        studentID,
			Date:             models.TruncateToDay(date),
			Status:           status,
			Duration:         duration,
			BaseSessionsUsed: models.BaseSessionsUsed(status, duration),
			Notes:            notes,
		}
		if err := s.attendance.Create(ctx, &record); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.AttendanceRecord{}, ErrDuplicateAttendance
			}
			return models.AttendanceRecord{}, err
		}
		return record, nil
	default:
		return models.AttendanceRecord{}, err
	}
}

// resync fires the order re-sync for the affected pair. Failures are logged
// and swallowed; the marking operation already succeeded.
func (s *attendanceService) resync(ctx context.Context, studentID, classroomID uint) {
	if s.orders == nil {
		return
	}
	if err := s.orders.ResyncForStudent(ctx, studentID, classroomID); err != nil {
		observability.OrderSyncFailures().Inc()
		s.logger.Error().Err(err).
			Uint("student_id", studentID).
			Uint("classroom_id", classroomID).
			Msg("order resync after attendance write failed")
	}
}

func resolveStatus(raw string) (models.AttendanceStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return models.AttendancePresent, nil
	}
	status := models.AttendanceStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(dto.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return models.TruncateToDay(parsed), nil
}

func parseID(raw string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidReference, raw)
	}
	return uint(parsed), nil
}

func rosterContains(roster []models.Student, studentID uint) bool {
	for _, student := range roster {
		if student.ID == studentID {
			return true
		}
	}
	return false
}

func authorizeTeacher(classroom models.Classroom, actor Actor) error {
	if !strings.EqualFold(actor.Role, "teacher") {
		return nil
	}
	if !classroom.HasTeacher(actor.ID) {
		return ErrNotAssignedTeacher
	}
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

var allowedEvidenceTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// decodeEvidenceImage accepts a raw or data-URL base64 payload and sniffs the
// real content type before anything touches disk.
func decodeEvidenceImage(payload string) ([]byte, string, error) {
	trimmed := strings.TrimSpace(payload)
	if idx := strings.Index(trimmed, ";base64,"); idx != -1 && strings.HasPrefix(trimmed, "data:") {
		trimmed = trimmed[idx+len(";base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(raw) == 0 {
		return nil, "", ErrInvalidImage
	}

	detected := mimetype.Detect(raw)
	ext, ok := allowedEvidenceTypes[detected.String()]
	if !ok {
		return nil, "", fmt.Errorf("%w: got %s", ErrInvalidImage, detected.String())
	}
	return raw, ext, nil
}
