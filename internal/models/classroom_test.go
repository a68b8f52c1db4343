package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTeacherRefAcceptsBothShapes(t *testing.T) {
	var plain TeacherRef
	require.NoError(t, json.Unmarshal([]byte(`42`), &plain))
	require.Equal(t, uint(42), plain.ID)

	var wrapped TeacherRef
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42}`), &wrapped))
	require.Equal(t, uint(42), wrapped.ID)

	var null TeacherRef
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))
	require.Zero(t, null.ID)
}

func TestTeacherRateLookup(t *testing.T) {
	classroom := Classroom{Teachers: ClassTeachers{
		{
			Teacher: TeacherRef{ID: 7},
			OnlineRates: map[int]float64{
				40: 80000, 50: 95000, 70: 120000, 90: 150000, 110: 180000, 120: 200000,
			},
		},
	}}

	require.Equal(t, 80000.0, classroom.TeacherRate(7, 40))
	require.Equal(t, 200000.0, classroom.TeacherRate(7, 120))
	// Unknown duration falls back to the 70-minute column.
	require.Equal(t, 120000.0, classroom.TeacherRate(7, 65))
	// Unassigned teachers earn nothing.
	require.Zero(t, classroom.TeacherRate(8, 70))
}

func TestTeacherRateRoundTripsThroughJSON(t *testing.T) {
	original := ClassTeachers{{
		Teacher:       TeacherRef{ID: 3},
		Name:          "Bu Ratna",
		CanIssueLinks: true,
		OnlineRates:   map[int]float64{70: 110000},
	}}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded ClassTeachers
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, uint(3), decoded[0].Teacher.ID)
	require.True(t, decoded[0].CanIssueLinks)
	require.Equal(t, 110000.0, decoded[0].OnlineRates[70])
}

func TestLinkIssuer(t *testing.T) {
	classroom := Classroom{Teachers: ClassTeachers{
		{Teacher: TeacherRef{ID: 1}, Name: "A"},
		{Teacher: TeacherRef{ID: 2}, Name: "B", CanIssueLinks: true},
	}}

	issuer, ok := classroom.LinkIssuer()
	require.True(t, ok)
	require.Equal(t, uint(2), issuer.Teacher.ID)

	_, ok = Classroom{}.LinkIssuer()
	require.False(t, ok)
}

func TestGiftSessionsParsesFirstInteger(t *testing.T) {
	require.Equal(t, 2, Order{TrialNote: "2 buổi tặng"}.GiftSessions())
	require.Equal(t, 3, Order{TrialNote: "gift: 3, confirmed 2024"}.GiftSessions())
	require.Zero(t, Order{TrialNote: "no gifts"}.GiftSessions())
	require.Zero(t, Order{}.GiftSessions())
}

func TestTruncateToDayAndEndOfDay(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 15, 42, 7, 0, time.UTC)

	day := TruncateToDay(stamp)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), day)

	end := EndOfDay(stamp)
	require.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC), end)
}
