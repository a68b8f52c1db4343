package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

func TestAggregateRepositoriesKeyByOrder(t *testing.T) {
	db := setupLedgerDB(t)
	statusRepo := NewClassroomStatusRepository(db)
	requestRepo := NewPaymentRequestRepository(db)
	ctx := context.Background()

	status := models.ClassroomStatus{OrderID: 11, Status: "active", PaymentStatus: "unpaid"}
	require.NoError(t, statusRepo.Create(ctx, &status))

	request := models.PaymentRequest{OrderID: 11, PaymentStatus: "unpaid", Sessions: models.SessionAudits{}}
	require.NoError(t, requestRepo.Create(ctx, &request))

	// A second record for the same order violates the 1:1 constraint.
	dupe := models.ClassroomStatus{OrderID: 11}
	require.ErrorIs(t, statusRepo.Create(ctx, &dupe), gorm.ErrDuplicatedKey)

	found, err := statusRepo.GetByOrderID(ctx, 11)
	require.NoError(t, err)
	require.Equal(t, status.ID, found.ID)

	// Deleting by order removes exactly the paired records.
	other := models.ClassroomStatus{OrderID: 12, Status: "active"}
	require.NoError(t, statusRepo.Create(ctx, &other))

	require.NoError(t, statusRepo.DeleteByOrderID(ctx, 11))
	require.NoError(t, requestRepo.DeleteByOrderID(ctx, 11))

	_, err = statusRepo.GetByOrderID(ctx, 11)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = requestRepo.GetByOrderID(ctx, 11)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	survivor, err := statusRepo.GetByOrderID(ctx, 12)
	require.NoError(t, err)
	require.Equal(t, other.ID, survivor.ID)
}

func TestPaymentRequestSessionAuditRoundTrip(t *testing.T) {
	db := setupLedgerDB(t)
	repo := NewPaymentRequestRepository(db)
	ctx := context.Background()

	record := models.PaymentRequest{
		OrderID:     7,
		TeacherName: "Pak Budi",
		Sessions: models.SessionAudits{
			{Index: 1, AttendanceID: 101, Duration: 70},
			{Index: 2, AttendanceID: 102, Duration: 40, ImageURL: "/uploads/attendance/102_1709290000.jpg"},
		},
		TotalAttendedSessions: 2,
		EarnedSalary:          240000,
		PaymentStatus:         "unpaid",
	}
	require.NoError(t, repo.Create(ctx, &record))

	found, err := repo.GetByOrderID(ctx, 7)
	require.NoError(t, err)
	require.Len(t, found.Sessions, 2)
	require.Equal(t, uint(102), found.Sessions[1].AttendanceID)
	require.Equal(t, "/uploads/attendance/102_1709290000.jpg", found.Sessions[1].ImageURL)
}
