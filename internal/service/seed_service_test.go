package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

func TestSeedServiceTokenGuard(t *testing.T) {
	students := newFakeStudentRepo()
	classrooms := newFakeClassroomRepo()
	svc := NewSeedService(students, classrooms, true, "secret", zerolog.Nop())

	_, err := svc.SeedStudents(context.Background(), "wrong", []models.Student{{Code: "st01", Name: "An"}})
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	affected, err := svc.SeedStudents(context.Background(), "secret", []models.Student{{Code: "st01", Name: "An"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	disabled := NewSeedService(students, classrooms, false, "secret", zerolog.Nop())
	_, err = disabled.SeedStudents(context.Background(), "secret", nil)
	require.ErrorIs(t, err, ErrSeedDisabled)
}

func TestSeedStudentsSkipsDuplicatesAndNormalizesCodes(t *testing.T) {
	students := newFakeStudentRepo()
	classrooms := newFakeClassroomRepo()
	svc := NewSeedService(students, classrooms, true, "secret", zerolog.Nop())

	affected, err := svc.SeedStudents(context.Background(), "secret", []models.Student{
		{Code: " st01 ", Name: "An Nguyen"},
		{Code: "ST02", Name: "Binh Tran"},
		{Code: "", Name: "No Code"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)

	stored, err := students.GetByCode(context.Background(), "ST01")
	require.NoError(t, err)
	require.Equal(t, models.StudentTypeOnline, stored.Type)

	// Reseeding the same codes is a no-op.
	affected, err = svc.SeedStudents(context.Background(), "secret", []models.Student{
		{Code: "st01", Name: "An Nguyen"},
	})
	require.NoError(t, err)
	require.Zero(t, affected)
}

func TestSeedClassroomsDefaultsNameToCode(t *testing.T) {
	students := newFakeStudentRepo()
	classrooms := newFakeClassroomRepo()
	svc := NewSeedService(students, classrooms, true, "secret", zerolog.Nop())

	affected, err := svc.SeedClassrooms(context.Background(), "secret", []models.Classroom{
		{Code: "ielts-a1"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	stored, err := classrooms.GetByCode(context.Background(), "IELTS-A1")
	require.NoError(t, err)
	require.Equal(t, "IELTS-A1", stored.Name)
}
