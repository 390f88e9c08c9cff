package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		hours float64
		want  Status
	}{
		{8.5, StatusPresent},
		{8, StatusPresent},
		{7.99, StatusHalfDay},
		{4.5, StatusHalfDay},
		{4.49, StatusAbsent},
		{0, StatusAbsent},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.hours), "hours=%v", c.hours)
	}
}

func TestHoursBetween(t *testing.T) {
	in := time.Date(2024, time.January, 15, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, 8.5, HoursBetween(in, in.Add(8*time.Hour+30*time.Minute)))
	assert.Equal(t, 0.33, HoursBetween(in, in.Add(20*time.Minute)))
	assert.Equal(t, 0.0, HoursBetween(in, in.Add(-time.Hour)))
}

func TestForceClose(t *testing.T) {
	checkIn := time.Date(2024, time.January, 15, 14, 0, 0, 0, time.UTC)
	now := checkIn.Add(13 * time.Hour)
	rec := Record{ID: "a1", UserID: "u1", CheckIn: &checkIn, Status: StatusPresent}

	swept := DefaultClosePolicy().ForceClose(rec, TriggerSweeper, now)
	require.NotNil(t, swept.CheckOut)
	assert.True(t, swept.CheckOut.Equal(checkIn.Add(12*time.Hour)))
	assert.Equal(t, 12.0, swept.TotalHours)
	assert.Equal(t, StatusAbsent, swept.Status)
	assert.True(t, swept.AutoCheckedOut)
	assert.Equal(t, NoteSweeperAutoClose, swept.Notes)
	assert.Nil(t, rec.CheckOut, "input must not be mutated")

	rec.Notes = "forgot badge"
	closed := ClosePolicy{CheckInPenalty: StatusHalfDay}.ForceClose(rec, TriggerCheckIn, now)
	assert.Equal(t, StatusHalfDay, closed.Status)
	assert.Equal(t, "forgot badge; "+NoteCheckInAutoClose, closed.Notes)

	closed = ClosePolicy{}.ForceClose(rec, TriggerCheckIn, now)
	assert.Equal(t, StatusPresent, closed.Status)
}

func TestIsAbandonedAndValidCheckIn(t *testing.T) {
	checkIn := time.Date(2024, time.January, 15, 14, 0, 0, 0, time.UTC)
	rec := Record{CheckIn: &checkIn}

	assert.False(t, IsAbandoned(rec, checkIn.Add(11*time.Hour+59*time.Minute)))
	assert.True(t, IsAbandoned(rec, checkIn.Add(12*time.Hour)))

	out := checkIn.Add(time.Hour)
	assert.False(t, IsAbandoned(Record{CheckIn: &checkIn, CheckOut: &out}, checkIn.Add(24*time.Hour)))

	assert.True(t, ValidCheckIn(rec, checkIn))
	assert.True(t, ValidCheckIn(rec, checkIn.Add(-time.Minute)))
	assert.False(t, ValidCheckIn(rec, checkIn.Add(-time.Hour)))
	zero := time.Time{}
	assert.False(t, ValidCheckIn(Record{CheckIn: &zero}, checkIn))
	assert.False(t, ValidCheckIn(Record{}, checkIn))
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus("half day")
	assert.True(t, ok)
	assert.Equal(t, StatusHalfDay, st)

	_, ok = ParseStatus("late")
	assert.False(t, ok)
}
