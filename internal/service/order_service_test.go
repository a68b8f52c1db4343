package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

type orderFixture struct {
	svc        OrderService
	orders     *fakeOrderRepo
	students   *fakeStudentRepo
	classrooms *fakeClassroomRepo
	attendance *fakeAttendanceRepo
	statuses   *fakeStatusRepo
	payments   *fakePaymentRepo
	statusSvc  ClassroomStatusService
	paymentSvc PaymentRequestService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	logger := zerolog.New(io.Discard)
	orders := newFakeOrderRepo()
	students := newFakeStudentRepo()
	classrooms := newFakeClassroomRepo()
	attendance := newFakeAttendanceRepo()
	statuses := newFakeStatusRepo()
	payments := newFakePaymentRepo()

	statusSvc := NewClassroomStatusService(statuses, orders, logger)
	paymentSvc := NewPaymentRequestService(payments, orders, logger)
	classroomSvc := NewClassroomService(classrooms, students, orders, nil, logger)

	svc := NewOrderService(
		orders, students, attendance, classroomSvc, nil,
		[]OrderChangeApplier{statusSvc, paymentSvc},
		nil, validator.New(), logger,
	)

	return &orderFixture{
		svc:        svc,
		orders:     orders,
		students:   students,
		classrooms: classrooms,
		attendance: attendance,
		statuses:   statuses,
		payments:   payments,
		statusSvc:  statusSvc,
		paymentSvc: paymentSvc,
	}
}

// seedAttendance writes n attended days plus one absence for the pair.
func (f *orderFixture) seedAttendance(t *testing.T, classroomID, studentID uint, attendedDays int) {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < attendedDays; i++ {
		attendedAt := base.AddDate(0, 0, i).Add(10 * time.Hour)
		record := models.AttendanceRecord{
			ClassroomID:      classroomID,
			StudentID:        studentID,
			Date:             base.AddDate(0, 0, i),
			Status:           models.AttendancePresent,
			Duration:         70,
			BaseSessionsUsed: 1,
			AttendedAt:       &attendedAt,
		}
		require.NoError(t, f.attendance.Create(ctx, &record))
	}
	absence := models.AttendanceRecord{
		ClassroomID: classroomID,
		StudentID:   studentID,
		Date:        base.AddDate(0, 0, attendedDays),
		Status:      models.AttendanceAbsent,
		Duration:    70,
	}
	require.NoError(t, f.attendance.Create(ctx, &absence))
}

func TestOrderCreateSyncsBothAggregates(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, dto.OrderCreateRequest{
		StudentName:      "An Nguyen",
		StudentCode:      "ST01",
		ClassCode:        "ielts-a1",
		SalaryPerSession: 150000,
		Status:           "ACTIVE",
		PaymentStatus:    "UNPAID",
	}, Actor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, "IELTS-A1", order.ClassCode)

	// The classroom was auto-provisioned from the code reference.
	_, err = f.classrooms.GetByCode(ctx, "IELTS-A1")
	require.NoError(t, err)

	status, err := f.statuses.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, "An Nguyen", status.StudentName)
	require.Equal(t, "ACTIVE", status.Status)

	payment, err := f.payments.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, "IELTS-A1", payment.ClassCode)
}

func TestSyncBuildsAuditTrailAndSalary(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	student := models.Student{Code: "ST01", Name: "An Nguyen"}
	require.NoError(t, f.students.Create(ctx, &student))
	classroom := models.Classroom{Code: "IELTS-A1", Name: "IELTS A1"}
	require.NoError(t, f.classrooms.Create(ctx, &classroom))

	order := models.Order{
		StudentID:        &student.ID,
		StudentName:      student.Name,
		ClassroomID:      &classroom.ID,
		ClassCode:        classroom.Code,
		SalaryPerSession: 150000,
	}
	require.NoError(t, f.orders.Create(ctx, &order))
	f.seedAttendance(t, classroom.ID, student.ID, 3)

	require.NoError(t, f.svc.Sync(ctx, order.ID))

	payment, err := f.payments.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payment.Sessions, 3)
	// Sessions are numbered from 1, oldest first; absences never appear.
	require.Equal(t, 1, payment.Sessions[0].Index)
	require.Equal(t, 3, payment.Sessions[2].Index)
	require.Equal(t, 3, payment.TotalAttendedSessions)
	require.InDelta(t, 450000, payment.EarnedSalary, 1e-9)

	synced, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 3, synced.TotalAttendedSessions)
	require.InDelta(t, 450000, synced.TeacherEarnedSalary, 1e-9)
}

// Pins the gift-subtraction behavior: the gift count comes off the last
// session index and the result is not clamped at zero. Downstream payroll
// reviews rely on seeing the negative totals, so a change here is a product
// decision, not a cleanup.
func TestGiftSessionsSubtractFromLastIndexUnclamped(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	student := models.Student{Code: "ST01", Name: "An Nguyen"}
	require.NoError(t, f.students.Create(ctx, &student))
	classroom := models.Classroom{Code: "IELTS-A1", Name: "IELTS A1"}
	require.NoError(t, f.classrooms.Create(ctx, &classroom))

	order := models.Order{
		StudentID:        &student.ID,
		ClassroomID:      &classroom.ID,
		ClassCode:        classroom.Code,
		TrialNote:        "tặng 2 buổi học thử",
		SalaryPerSession: 100000,
	}
	require.NoError(t, f.orders.Create(ctx, &order))
	f.seedAttendance(t, classroom.ID, student.ID, 5)

	require.NoError(t, f.svc.Sync(ctx, order.ID))
	synced, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 3, synced.TotalAttendedSessions)

	// More gifts than attended sessions drives the total negative.
	synced.TrialNote = "tặng 9 buổi"
	require.NoError(t, f.orders.Update(ctx, &synced))
	require.NoError(t, f.svc.Sync(ctx, order.ID))
	synced, err = f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, -4, synced.TotalAttendedSessions)
	require.InDelta(t, -400000, synced.TeacherEarnedSalary, 1e-9)
}

func TestLockSuppressesStatusButNotPaymentStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := models.Order{StudentName: "An Nguyen", ClassCode: "IELTS-A1", Status: "ACTIVE", PaymentStatus: "UNPAID"}
	require.NoError(t, f.orders.Create(ctx, &order))

	require.NoError(t, f.statusSvc.ApplyOrderChange(ctx, OrderChanged{
		OrderID: order.ID, StudentName: order.StudentName, ClassCode: order.ClassCode,
		Status: "ACTIVE", PaymentStatus: "UNPAID",
	}))
	status, err := f.statuses.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)

	locked, err := f.statusSvc.Lock(ctx, status.ID, true)
	require.NoError(t, err)
	require.True(t, locked.IsLocked)
	require.Equal(t, ClassroomStatusLocked, locked.Status)

	// The lock status flows upstream onto the order.
	mirrored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, ClassroomStatusLocked, mirrored.Status)

	// A later sync updates payment status but leaves the locked status alone.
	require.NoError(t, f.statusSvc.ApplyOrderChange(ctx, OrderChanged{
		OrderID: order.ID, StudentName: order.StudentName, ClassCode: order.ClassCode,
		Status: "FINISHED", PaymentStatus: "PAID",
	}))
	status, err = f.statuses.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, ClassroomStatusLocked, status.Status)
	require.Equal(t, "PAID", status.PaymentStatus)

	// Unlocking resumes status sync.
	_, err = f.statusSvc.Lock(ctx, status.ID, false)
	require.NoError(t, err)
	require.NoError(t, f.statusSvc.ApplyOrderChange(ctx, OrderChanged{
		OrderID: order.ID, Status: "FINISHED", PaymentStatus: "PAID",
	}))
	status, err = f.statuses.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, "FINISHED", status.Status)
}

func TestDeleteOrderRemovesBothAggregates(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, dto.OrderCreateRequest{
		StudentName: "An Nguyen",
		ClassCode:   "IELTS-A1",
	}, Actor{ID: 1, Role: "admin"})
	require.NoError(t, err)

	_, err = f.statuses.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.payments.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, order.ID))
	_, err = f.statuses.GetByOrderID(ctx, order.ID)
	require.Error(t, err)
	_, err = f.payments.GetByOrderID(ctx, order.ID)
	require.Error(t, err)
}

func TestSubmitRequestMirrorsPaymentStatusOntoOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order := models.Order{StudentName: "An Nguyen", ClassCode: "IELTS-A1", PaymentStatus: "UNPAID"}
	require.NoError(t, f.orders.Create(ctx, &order))
	require.NoError(t, f.paymentSvc.ApplyOrderChange(ctx, OrderChanged{
		OrderID: order.ID, StudentName: order.StudentName, ClassCode: order.ClassCode, PaymentStatus: "UNPAID",
	}))

	payment, err := f.payments.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)

	submitted, err := f.paymentSvc.SubmitRequest(ctx, payment.ID, "REQUESTED")
	require.NoError(t, err)
	require.Equal(t, "REQUESTED", submitted.PaymentStatus)
	require.NotNil(t, submitted.SubmittedAt)

	mirrored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, "REQUESTED", mirrored.PaymentStatus)
}

func TestResyncForStudentReplaysAllBindingOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	student := models.Student{Code: "ST01", Name: "An Nguyen"}
	require.NoError(t, f.students.Create(ctx, &student))
	classroom := models.Classroom{Code: "IELTS-A1", Name: "IELTS A1"}
	require.NoError(t, f.classrooms.Create(ctx, &classroom))

	order := models.Order{
		StudentID:        &student.ID,
		ClassroomID:      &classroom.ID,
		ClassCode:        classroom.Code,
		SalaryPerSession: 100000,
	}
	require.NoError(t, f.orders.Create(ctx, &order))
	f.seedAttendance(t, classroom.ID, student.ID, 2)

	require.NoError(t, f.svc.ResyncForStudent(ctx, student.ID, classroom.ID))

	synced, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 2, synced.TotalAttendedSessions)
	payment, err := f.payments.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payment.Sessions, 2)
}
