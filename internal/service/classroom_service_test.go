package service

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

type classroomFixture struct {
	svc        ClassroomService
	classrooms *fakeClassroomRepo
	students   *fakeStudentRepo
	orders     *fakeOrderRepo
	fallback   *recordingFallback
}

func newClassroomFixture(t *testing.T) *classroomFixture {
	t.Helper()

	logger := zerolog.New(io.Discard)
	classrooms := newFakeClassroomRepo()
	students := newFakeStudentRepo()
	orders := newFakeOrderRepo()
	fallback := newRecordingFallback()

	return &classroomFixture{
		svc:        NewClassroomService(classrooms, students, orders, fallback, logger),
		classrooms: classrooms,
		students:   students,
		orders:     orders,
		fallback:   fallback,
	}
}

func TestEnsureClassroomProvisionsFromTeacherActor(t *testing.T) {
	f := newClassroomFixture(t)
	ctx := context.Background()

	actor := Actor{ID: 9, Role: "teacher", Name: "Binh Tran", Email: "binh@example.com"}
	classroom, err := f.svc.EnsureClassroomForCode(ctx, "ielts-a1", nil, actor)
	require.NoError(t, err)
	require.Equal(t, "IELTS-A1", classroom.Code)
	require.Len(t, classroom.Teachers, 1)
	require.Equal(t, uint(9), classroom.Teachers[0].Teacher.ID)

	// The fallback chain fired once for the provisioning.
	require.Len(t, f.fallback.teacherCalls, 1)

	// A second reference reuses the record instead of provisioning again.
	again, err := f.svc.EnsureClassroomForCode(ctx, "IELTS-A1", nil, actor)
	require.NoError(t, err)
	require.Equal(t, classroom.ID, again.ID)
	require.Len(t, f.fallback.teacherCalls, 1)
}

func TestEnsureClassroomPrefersOrderIdentity(t *testing.T) {
	f := newClassroomFixture(t)
	ctx := context.Background()

	teacherID := uint(42)
	order := &models.Order{
		ClassCode:   "SAT-PREP",
		TeacherID:   &teacherID,
		TeacherName: "Duc Pham",
	}
	classroom, err := f.svc.EnsureClassroomForCode(ctx, "SAT-PREP", order, Actor{ID: 9, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, uint(42), classroom.Teachers[0].Teacher.ID)
	require.Equal(t, "Duc Pham", classroom.Teachers[0].Name)
}

func TestClassesFromOrdersSynthesizesVirtualClasses(t *testing.T) {
	f := newClassroomFixture(t)
	ctx := context.Background()

	known := models.Student{Code: "ST01", Name: "An Nguyen"}
	require.NoError(t, f.students.Create(ctx, &known))

	require.NoError(t, f.orders.Create(ctx, &models.Order{ClassCode: "IELTS-A1", StudentCode: "ST01", StudentName: "An Nguyen"}))
	require.NoError(t, f.orders.Create(ctx, &models.Order{ClassCode: "IELTS-A1", StudentName: "Mai Hoang"}))

	// A persisted classroom shadows its code from the virtual list.
	persisted := models.Classroom{Code: "SAT-PREP", Name: "SAT"}
	require.NoError(t, f.classrooms.Create(ctx, &persisted))
	require.NoError(t, f.orders.Create(ctx, &models.Order{ClassCode: "SAT-PREP", StudentName: "Chau Le"}))

	classes, err := f.svc.ClassesFromOrders(ctx, Actor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Len(t, classes, 1)

	class := classes[0]
	require.Equal(t, VirtualClassPrefix+"IELTS-A1", class.ID)
	require.True(t, class.Virtual)
	require.Len(t, class.Students, 2)

	// The known student resolved to a real id; the unknown one got a stable
	// synthetic id.
	require.Equal(t, known.ID, class.Students[0].StudentID)
	require.False(t, class.Students[0].Synthetic)
	require.True(t, class.Students[1].Synthetic)
	require.Equal(t, SyntheticStudentID("Mai Hoang", "", "IELTS-A1"), class.Students[1].ID)
}

func TestResolveVirtualStudentMaterializesDocument(t *testing.T) {
	f := newClassroomFixture(t)
	ctx := context.Background()

	require.NoError(t, f.orders.Create(ctx, &models.Order{ClassCode: "IELTS-A1", StudentName: "Mai Hoang"}))
	syntheticID := SyntheticStudentID("Mai Hoang", "", "IELTS-A1")

	student, err := f.svc.ResolveVirtualStudent(ctx, "IELTS-A1", syntheticID, Actor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.NotZero(t, student.ID)
	require.Equal(t, "Mai Hoang", student.Name)
	require.NotEmpty(t, student.Code)

	// The virtual class now resolves the entry to the real student, so later
	// reads hand out the numeric id instead of the synthetic one.
	class, err := f.svc.VirtualClassByCode(ctx, "IELTS-A1", Actor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Len(t, class.Students, 1)
	require.False(t, class.Students[0].Synthetic)
	require.Equal(t, student.ID, class.Students[0].StudentID)

	again, err := f.svc.ResolveVirtualStudent(ctx, "IELTS-A1", class.Students[0].ID, Actor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, student.ID, again.ID)
}

func TestResolveVirtualStudentRejectsUnknownEntry(t *testing.T) {
	f := newClassroomFixture(t)
	ctx := context.Background()

	require.NoError(t, f.orders.Create(ctx, &models.Order{ClassCode: "IELTS-A1", StudentName: "Mai Hoang"}))

	_, err := f.svc.ResolveVirtualStudent(ctx, "IELTS-A1", "not-a-real-entry", Actor{ID: 1, Role: "admin"})
	require.ErrorIs(t, err, ErrVirtualStudentNotFound)

	_, err = f.svc.ResolveVirtualStudent(ctx, "NO-SUCH-CLASS", "x", Actor{ID: 1, Role: "admin"})
	require.ErrorIs(t, err, ErrVirtualClassNotFound)
}

func TestRosterPrefersOrderDerivedMembership(t *testing.T) {
	f := newClassroomFixture(t)
	ctx := context.Background()

	enrolled := models.Student{Code: "ST01", Name: "An Nguyen"}
	require.NoError(t, f.students.Create(ctx, &enrolled))
	stale := models.Student{Code: "ST02", Name: "Duc Pham"}
	require.NoError(t, f.students.Create(ctx, &stale))

	classroom := models.Classroom{Code: "IELTS-A1", StudentIDs: models.UintList{stale.ID}}
	require.NoError(t, f.classrooms.Create(ctx, &classroom))
	require.NoError(t, f.orders.Create(ctx, &models.Order{ClassCode: "IELTS-A1", StudentCode: "ST01"}))

	roster, err := f.svc.RosterForClass(ctx, classroom)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Equal(t, enrolled.ID, roster[0].ID)
}

func TestRosterFallsBackToStoredStudentIDs(t *testing.T) {
	f := newClassroomFixture(t)
	ctx := context.Background()

	student := models.Student{Code: "ST01", Name: "An Nguyen"}
	require.NoError(t, f.students.Create(ctx, &student))
	classroom := models.Classroom{Code: "IELTS-A1", StudentIDs: models.UintList{student.ID}}
	require.NoError(t, f.classrooms.Create(ctx, &classroom))

	roster, err := f.svc.RosterForClass(ctx, classroom)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	require.Equal(t, student.ID, roster[0].ID)
}

func TestSyntheticStudentIDIsStable(t *testing.T) {
	a := SyntheticStudentID("Mai Hoang", "st01", "ielts-a1")
	b := SyntheticStudentID("mai hoang", "ST01", "IELTS-A1")
	require.Equal(t, a, b)
	require.Len(t, a, 16)

	c := SyntheticStudentID("Mai Hoang", "ST01", "SAT-PREP")
	require.NotEqual(t, a, c)
}
