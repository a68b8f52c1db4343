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

type studentFixture struct {
	svc        StudentService
	students   *fakeStudentRepo
	attendance *fakeAttendanceRepo
}

func newStudentFixture(t *testing.T) *studentFixture {
	t.Helper()

	students := newFakeStudentRepo()
	attendance := newFakeAttendanceRepo()
	return &studentFixture{
		svc:        NewStudentService(students, attendance, validator.New(), zerolog.New(io.Discard)),
		students:   students,
		attendance: attendance,
	}
}

func TestCreateStudentNormalizesCodeAndRejectsDuplicates(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	student, err := f.svc.Create(ctx, dto.StudentCreateRequest{Code: "st01", Name: "An Nguyen"})
	require.NoError(t, err)
	require.Equal(t, "ST01", student.Code)
	require.Equal(t, models.StudentTypeOnline, student.Type)

	_, err = f.svc.Create(ctx, dto.StudentCreateRequest{Code: "ST01", Name: "Someone Else"})
	require.ErrorIs(t, err, ErrDuplicateStudentCode)
}

func TestUpsertPaymentFrameThenConfirm(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	student, err := f.svc.Create(ctx, dto.StudentCreateRequest{Code: "ST01", Name: "An Nguyen"})
	require.NoError(t, err)

	transfer := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	student, err = f.svc.UpsertPaymentFrame(ctx, student.ID, dto.PaymentFrameRequest{
		Index:              1,
		InvoiceCode:        "INV-001",
		Amount:             7000000,
		Sessions70:         10,
		RegisteredDuration: 70,
		TransferDate:       &transfer,
	})
	require.NoError(t, err)
	require.Len(t, student.PaymentFrames, 1)
	require.Equal(t, models.FrameStatusPending, student.PaymentFrames[0].ConfirmStatus)

	// Pending frames contribute nothing to the paid counter.
	require.Zero(t, student.PaidBaseSessions())

	student, err = f.svc.ConfirmPaymentFrame(ctx, student.ID, 1)
	require.NoError(t, err)
	require.InDelta(t, 10, student.PaidBaseSessions(), 1e-9)
}

func TestUpsertPaymentFrameReplacesSameIndex(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	student, err := f.svc.Create(ctx, dto.StudentCreateRequest{Code: "ST01", Name: "An Nguyen"})
	require.NoError(t, err)

	_, err = f.svc.UpsertPaymentFrame(ctx, student.ID, dto.PaymentFrameRequest{Index: 1, Sessions70: 5})
	require.NoError(t, err)
	student, err = f.svc.UpsertPaymentFrame(ctx, student.ID, dto.PaymentFrameRequest{Index: 1, Sessions70: 12})
	require.NoError(t, err)
	require.Len(t, student.PaymentFrames, 1)
	require.InDelta(t, 12, student.PaymentFrames[0].Sessions70, 1e-9)
}

func TestPaymentFrameCapEnforced(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	student, err := f.svc.Create(ctx, dto.StudentCreateRequest{Code: "ST01", Name: "An Nguyen"})
	require.NoError(t, err)

	for i := 1; i <= models.MaxPaymentFrames; i++ {
		_, err = f.svc.UpsertPaymentFrame(ctx, student.ID, dto.PaymentFrameRequest{Index: i, Sessions70: 1})
		require.NoError(t, err)
	}
	// Index 11 fails validation before the cap is even checked; replacing an
	// existing index still works at the cap.
	_, err = f.svc.UpsertPaymentFrame(ctx, student.ID, dto.PaymentFrameRequest{Index: 10, Sessions70: 3})
	require.NoError(t, err)
}

func TestBalanceFansOutAcrossDurations(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	student, err := f.svc.Create(ctx, dto.StudentCreateRequest{Code: "ST01", Name: "An Nguyen"})
	require.NoError(t, err)
	_, err = f.svc.UpsertPaymentFrame(ctx, student.ID, dto.PaymentFrameRequest{
		Index: 1, Sessions70: 10, ConfirmStatus: "CONFIRMED",
	})
	require.NoError(t, err)

	balance, err := f.svc.Balance(ctx, student.ID)
	require.NoError(t, err)
	require.InDelta(t, 10, balance.BasePaid70, 1e-9)
	require.Zero(t, balance.BaseUsed70)
	// 10 base sessions = 700 minutes: 17 forty-minute or 6 one-hundred-ten-
	// minute sessions remain.
	require.Equal(t, 17, balance.Remaining[40])
	require.Equal(t, 10, balance.Remaining[70])
	require.Equal(t, 6, balance.Remaining[110])
}

func TestBalanceSubtractsLedgerUsage(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	student, err := f.svc.Create(ctx, dto.StudentCreateRequest{Code: "ST01", Name: "An Nguyen"})
	require.NoError(t, err)
	_, err = f.svc.UpsertPaymentFrame(ctx, student.ID, dto.PaymentFrameRequest{
		Index: 1, Sessions70: 10, ConfirmStatus: "CONFIRMED",
	})
	require.NoError(t, err)

	record := models.AttendanceRecord{
		ClassroomID:      1,
		StudentID:        student.ID,
		Date:             time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:           models.AttendancePresent,
		Duration:         70,
		BaseSessionsUsed: 1,
	}
	require.NoError(t, f.attendance.Create(ctx, &record))

	balance, err := f.svc.Balance(ctx, student.ID)
	require.NoError(t, err)
	require.InDelta(t, 1, balance.BaseUsed70, 1e-9)
	require.Equal(t, 9, balance.Remaining[70])
	require.Equal(t, 15, balance.Remaining[40])
}

func TestOfflineBalanceUsesFlatCount(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	student, err := f.svc.Create(ctx, dto.StudentCreateRequest{Code: "ST01", Name: "An Nguyen", Type: "offline"})
	require.NoError(t, err)
	_, err = f.svc.UpsertPaymentFrame(ctx, student.ID, dto.PaymentFrameRequest{
		Index: 1, Sessions70: 8, ConfirmStatus: "CONFIRMED",
	})
	require.NoError(t, err)

	balance, err := f.svc.Balance(ctx, student.ID)
	require.NoError(t, err)
	require.Nil(t, balance.Remaining)
	require.NotNil(t, balance.RemainingOffline)
	require.Equal(t, 8, *balance.RemainingOffline)
}

func TestOfflineBalanceRoundsFractionalFrames(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	student, err := f.svc.Create(ctx, dto.StudentCreateRequest{Code: "ST01", Name: "An Nguyen", Type: "offline"})
	require.NoError(t, err)
	_, err = f.svc.UpsertPaymentFrame(ctx, student.ID, dto.PaymentFrameRequest{
		Index: 1, Sessions70: 9.5, ConfirmStatus: "CONFIRMED",
	})
	require.NoError(t, err)

	// A half-session purchase rounds to the nearest whole session rather
	// than being truncated away.
	balance, err := f.svc.Balance(ctx, student.ID)
	require.NoError(t, err)
	require.NotNil(t, balance.RemainingOffline)
	require.Equal(t, 10, *balance.RemainingOffline)
}

func TestDeleteRefusedWhileLedgerHistoryExists(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	student, err := f.svc.Create(ctx, dto.StudentCreateRequest{Code: "ST01", Name: "An Nguyen"})
	require.NoError(t, err)

	record := models.AttendanceRecord{
		ClassroomID: 1,
		StudentID:   student.ID,
		Date:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:      models.AttendanceAbsent,
		Duration:    70,
	}
	require.NoError(t, f.attendance.Create(ctx, &record))

	err = f.svc.Delete(ctx, student.ID)
	require.ErrorIs(t, err, ErrStudentHasAttendance)

	// Still retrievable afterwards.
	_, err = f.svc.Get(ctx, student.ID)
	require.NoError(t, err)
}

func TestDeleteStudentWithoutHistory(t *testing.T) {
	f := newStudentFixture(t)
	ctx := context.Background()

	student, err := f.svc.Create(ctx, dto.StudentCreateRequest{Code: "ST01", Name: "An Nguyen"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, student.ID))

	_, err = f.svc.Get(ctx, student.ID)
	require.ErrorIs(t, err, ErrStudentNotFound)
}
