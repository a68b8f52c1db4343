package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/repository"
)

// In-memory repository fakes. They mirror the semantics the real
// implementations get from the database: unique keys fail with
// gorm.ErrDuplicatedKey, lookups miss with gorm.ErrRecordNotFound.

type fakeAttendanceRepo struct {
	nextID  uint
	records map[uint]models.AttendanceRecord
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[uint]models.AttendanceRecord)}
}

func (f *fakeAttendanceRepo) Create(_ context.Context, record *models.AttendanceRecord) error {
	day := models.TruncateToDay(record.Date)
	for _, existing := range f.records {
		if existing.ClassroomID == record.ClassroomID && existing.StudentID == record.StudentID && existing.Date.Equal(day) {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	record.ID = f.nextID
	record.Date = day
	f.records[record.ID] = *record
	return nil
}

func (f *fakeAttendanceRepo) Update(_ context.Context, record *models.AttendanceRecord) error {
	if _, ok := f.records[record.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.records[record.ID] = *record
	return nil
}

func (f *fakeAttendanceRepo) GetByID(_ context.Context, id uint) (models.AttendanceRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return models.AttendanceRecord{}, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeAttendanceRepo) GetByKey(_ context.Context, classroomID, studentID uint, date time.Time) (models.AttendanceRecord, error) {
	day := models.TruncateToDay(date)
	for _, record := range f.records {
		if record.ClassroomID == classroomID && record.StudentID == studentID && record.Date.Equal(day) {
			return record, nil
		}
	}
	return models.AttendanceRecord{}, gorm.ErrRecordNotFound
}

func (f *fakeAttendanceRepo) GetByToken(_ context.Context, token string) (models.AttendanceRecord, error) {
	for _, record := range f.records {
		if record.Token != "" && record.Token == token {
			return record, nil
		}
	}
	return models.AttendanceRecord{}, gorm.ErrRecordNotFound
}

func (f *fakeAttendanceRepo) ListByClassAndDate(_ context.Context, classroomID uint, date time.Time) ([]models.AttendanceRecord, error) {
	day := models.TruncateToDay(date)
	var records []models.AttendanceRecord
	for _, record := range f.records {
		if record.ClassroomID == classroomID && record.Date.Equal(day) {
			records = append(records, record)
		}
	}
	return records, nil
}

func (f *fakeAttendanceRepo) ListByStudent(_ context.Context, studentID, classroomID uint) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	for _, record := range f.records {
		if record.StudentID != studentID {
			continue
		}
		if classroomID != 0 && record.ClassroomID != classroomID {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })
	return records, nil
}

func (f *fakeAttendanceRepo) ListRecentAttended(_ context.Context, studentID, classroomID uint, limit int) ([]models.AttendanceRecord, error) {
	if limit <= 0 {
		limit = 30
	}
	var records []models.AttendanceRecord
	for _, record := range f.records {
		if record.StudentID == studentID && record.ClassroomID == classroomID && record.Status.Attended() {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })
	if len(records) > limit {
		records = records[:limit]
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (f *fakeAttendanceRepo) ListAttendedInRange(_ context.Context, classroomID uint, from, to time.Time) ([]models.AttendanceRecord, error) {
	lo, hi := models.TruncateToDay(from), models.TruncateToDay(to)
	var records []models.AttendanceRecord
	for _, record := range f.records {
		if record.AttendedAt == nil {
			continue
		}
		if classroomID != 0 && record.ClassroomID != classroomID {
			continue
		}
		if record.Date.Before(lo) || record.Date.After(hi) {
			continue
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func (f *fakeAttendanceRepo) CountByStatus(_ context.Context, classroomID uint, from, to time.Time) (map[models.AttendanceStatus]int64, error) {
	lo, hi := models.TruncateToDay(from), models.TruncateToDay(to)
	counts := make(map[models.AttendanceStatus]int64)
	for _, record := range f.records {
		if record.ClassroomID != classroomID || record.Date.Before(lo) || record.Date.After(hi) {
			continue
		}
		counts[record.Status]++
	}
	return counts, nil
}

func (f *fakeAttendanceRepo) CountByStudent(_ context.Context, studentID uint) (int64, error) {
	var total int64
	for _, record := range f.records {
		if record.StudentID == studentID {
			total++
		}
	}
	return total, nil
}

func (f *fakeAttendanceRepo) SumBaseSessionsUsed(_ context.Context, studentID uint) (float64, error) {
	var total float64
	for _, record := range f.records {
		if record.StudentID == studentID {
			total += record.BaseSessionsUsed
		}
	}
	return total, nil
}

type fakeStudentRepo struct {
	nextID   uint
	students map[uint]models.Student
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: make(map[uint]models.Student)}
}

func (f *fakeStudentRepo) GetByID(_ context.Context, id uint) (models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (f *fakeStudentRepo) GetByCode(_ context.Context, code string) (models.Student, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	for _, student := range f.students {
		if student.Code == normalized {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (f *fakeStudentRepo) GetByName(_ context.Context, name string) (models.Student, error) {
	for _, student := range f.students {
		if student.Name == strings.TrimSpace(name) {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (f *fakeStudentRepo) Create(_ context.Context, student *models.Student) error {
	student.Code = strings.ToUpper(strings.TrimSpace(student.Code))
	for _, existing := range f.students {
		if existing.Code == student.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	student.ID = f.nextID
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) Update(_ context.Context, student *models.Student) error {
	if _, ok := f.students[student.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := f.students[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.students, id)
	return nil
}

func (f *fakeStudentRepo) List(_ context.Context, filter repository.StudentFilter) ([]models.Student, int64, error) {
	var students []models.Student
	for _, student := range f.students {
		if filter.SaleID != 0 && (student.SaleID == nil || *student.SaleID != filter.SaleID) {
			continue
		}
		if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
			if !strings.Contains(strings.ToLower(student.Name), search) &&
				!strings.Contains(strings.ToLower(student.Code), search) {
				continue
			}
		}
		students = append(students, student)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, int64(len(students)), nil
}

func (f *fakeStudentRepo) ListByIDs(_ context.Context, ids []uint) ([]models.Student, error) {
	students := make([]models.Student, 0, len(ids))
	for _, id := range ids {
		if student, ok := f.students[id]; ok {
			students = append(students, student)
		}
	}
	return students, nil
}

type fakeClassroomRepo struct {
	nextID     uint
	classrooms map[uint]models.Classroom
}

func newFakeClassroomRepo() *fakeClassroomRepo {
	return &fakeClassroomRepo{classrooms: make(map[uint]models.Classroom)}
}

func (f *fakeClassroomRepo) GetByID(_ context.Context, id uint) (models.Classroom, error) {
	classroom, ok := f.classrooms[id]
	if !ok {
		return models.Classroom{}, gorm.ErrRecordNotFound
	}
	return classroom, nil
}

func (f *fakeClassroomRepo) GetByCode(_ context.Context, code string) (models.Classroom, error) {
	normalized := models.NormalizeClassCode(code)
	for _, classroom := range f.classrooms {
		if classroom.Code == normalized {
			return classroom, nil
		}
	}
	return models.Classroom{}, gorm.ErrRecordNotFound
}

func (f *fakeClassroomRepo) Create(_ context.Context, classroom *models.Classroom) error {
	classroom.Code = models.NormalizeClassCode(classroom.Code)
	for _, existing := range f.classrooms {
		if existing.Code == classroom.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	classroom.ID = f.nextID
	f.classrooms[classroom.ID] = *classroom
	return nil
}

func (f *fakeClassroomRepo) Update(_ context.Context, classroom *models.Classroom) error {
	if _, ok := f.classrooms[classroom.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.classrooms[classroom.ID] = *classroom
	return nil
}

func (f *fakeClassroomRepo) Delete(_ context.Context, id uint) error {
	if _, ok := f.classrooms[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.classrooms, id)
	return nil
}

func (f *fakeClassroomRepo) List(_ context.Context) ([]models.Classroom, error) {
	classrooms := make([]models.Classroom, 0, len(f.classrooms))
	for _, classroom := range f.classrooms {
		classrooms = append(classrooms, classroom)
	}
	sort.Slice(classrooms, func(i, j int) bool { return classrooms[i].Code < classrooms[j].Code })
	return classrooms, nil
}

type fakeOrderRepo struct {
	nextID uint
	orders map[uint]models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uint]models.Order)}
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uint) (models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return models.Order{}, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) Create(_ context.Context, order *models.Order) error {
	order.ClassCode = models.NormalizeClassCode(order.ClassCode)
	f.nextID++
	order.ID = f.nextID
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrderRepo) Update(_ context.Context, order *models.Order) error {
	if _, ok := f.orders[order.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	order.ClassCode = models.NormalizeClassCode(order.ClassCode)
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrderRepo) Delete(_ context.Context, id uint) error {
	if _, ok := f.orders[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeOrderRepo) List(_ context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	for _, order := range f.orders {
		if filter.ClassCode != "" && order.ClassCode != models.NormalizeClassCode(filter.ClassCode) {
			continue
		}
		if filter.StudentID != 0 && (order.StudentID == nil || *order.StudentID != filter.StudentID) {
			continue
		}
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, int64(len(orders)), nil
}

func (f *fakeOrderRepo) ListByClassCode(_ context.Context, classCode string) ([]models.Order, error) {
	normalized := models.NormalizeClassCode(classCode)
	var orders []models.Order
	for _, order := range f.orders {
		if order.ClassCode == normalized {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (f *fakeOrderRepo) ListByStudentAndClassroom(_ context.Context, studentID, classroomID uint) ([]models.Order, error) {
	var orders []models.Order
	for _, order := range f.orders {
		if order.StudentID != nil && *order.StudentID == studentID &&
			order.ClassroomID != nil && *order.ClassroomID == classroomID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (f *fakeOrderRepo) ListAll(_ context.Context) ([]models.Order, error) {
	orders := make([]models.Order, 0, len(f.orders))
	for _, order := range f.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

type fakeStatusRepo struct {
	nextID  uint
	records map[uint]models.ClassroomStatus
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{records: make(map[uint]models.ClassroomStatus)}
}

func (f *fakeStatusRepo) GetByID(_ context.Context, id uint) (models.ClassroomStatus, error) {
	record, ok := f.records[id]
	if !ok {
		return models.ClassroomStatus{}, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeStatusRepo) GetByOrderID(_ context.Context, orderID uint) (models.ClassroomStatus, error) {
	for _, record := range f.records {
		if record.OrderID == orderID {
			return record, nil
		}
	}
	return models.ClassroomStatus{}, gorm.ErrRecordNotFound
}

func (f *fakeStatusRepo) Create(_ context.Context, record *models.ClassroomStatus) error {
	for _, existing := range f.records {
		if existing.OrderID == record.OrderID {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	record.ID = f.nextID
	f.records[record.ID] = *record
	return nil
}

func (f *fakeStatusRepo) Update(_ context.Context, record *models.ClassroomStatus) error {
	if _, ok := f.records[record.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.records[record.ID] = *record
	return nil
}

func (f *fakeStatusRepo) DeleteByOrderID(_ context.Context, orderID uint) error {
	for id, record := range f.records {
		if record.OrderID == orderID {
			delete(f.records, id)
		}
	}
	return nil
}

func (f *fakeStatusRepo) List(_ context.Context) ([]models.ClassroomStatus, error) {
	records := make([]models.ClassroomStatus, 0, len(f.records))
	for _, record := range f.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

type fakePaymentRepo struct {
	nextID  uint
	records map[uint]models.PaymentRequest
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{records: make(map[uint]models.PaymentRequest)}
}

func (f *fakePaymentRepo) GetByID(_ context.Context, id uint) (models.PaymentRequest, error) {
	record, ok := f.records[id]
	if !ok {
		return models.PaymentRequest{}, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakePaymentRepo) GetByOrderID(_ context.Context, orderID uint) (models.PaymentRequest, error) {
	for _, record := range f.records {
		if record.OrderID == orderID {
			return record, nil
		}
	}
	return models.PaymentRequest{}, gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) Create(_ context.Context, record *models.PaymentRequest) error {
	for _, existing := range f.records {
		if existing.OrderID == record.OrderID {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	record.ID = f.nextID
	f.records[record.ID] = *record
	return nil
}

func (f *fakePaymentRepo) Update(_ context.Context, record *models.PaymentRequest) error {
	if _, ok := f.records[record.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.records[record.ID] = *record
	return nil
}

func (f *fakePaymentRepo) DeleteByOrderID(_ context.Context, orderID uint) error {
	for id, record := range f.records {
		if record.OrderID == orderID {
			delete(f.records, id)
		}
	}
	return nil
}

func (f *fakePaymentRepo) List(_ context.Context) ([]models.PaymentRequest, error) {
	records := make([]models.PaymentRequest, 0, len(f.records))
	for _, record := range f.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// fakeStorage records uploads in memory.
type fakeStorage struct {
	uploads map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.uploads[name] = data
	return "/uploads/" + name, nil
}

// recordingFallback wraps the default identity chain and records which calls
// fired, so tests can assert the fallback branch taken.
type recordingFallback struct {
	inner        IdentityFallback
	teacherCalls []Actor
	saleCalls    []Actor
}

func newRecordingFallback() *recordingFallback {
	return &recordingFallback{inner: NewPlaceholderFallback()}
}

func (r *recordingFallback) TeacherFor(order *models.Order, actor Actor) models.ClassTeacher {
	r.teacherCalls = append(r.teacherCalls, actor)
	return r.inner.TeacherFor(order, actor)
}

func (r *recordingFallback) SaleFor(order *models.Order, actor Actor) *uint {
	r.saleCalls = append(r.saleCalls, actor)
	return r.inner.SaleFor(order, actor)
}
