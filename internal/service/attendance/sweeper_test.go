package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepAbandonedClosesOnce(t *testing.T) {
	c := clock.Default()
	at := func(v string) time.Time {
		parsed, err := time.ParseInLocation("2006-01-02 15:04", v, c.Location())
		require.NoError(t, err)
		return parsed
	}

	stale := at("2024-01-15 09:00")
	fresh := at("2024-01-15 12:00")
	repo := newFakeAttendanceRepo(
		attendance.Record{ID: "stale", UserID: "u1", Date: c.StartOfDay(stale), CheckIn: &stale, Status: attendance.StatusPresent},
		attendance.Record{ID: "fresh", UserID: "u2", Date: c.StartOfDay(fresh), CheckIn: &fresh, Status: attendance.StatusPresent},
	)
	outbox := &fakeOutbox{}
	now := at("2024-01-15 22:00")
	sweeper := NewSweeper(repo, outbox, passThroughTx{}, c.WithNow(func() time.Time { return now }), attendance.DefaultClosePolicy())

	closed, err := sweeper.SweepAbandoned(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	rec := repo.get("stale")
	require.NotNil(t, rec.CheckOut)
	assert.True(t, rec.CheckOut.Equal(stale.Add(12*time.Hour)))
	assert.Equal(t, 12.0, rec.TotalHours)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)
	assert.True(t, rec.AutoCheckedOut)
	assert.Equal(t, attendance.NoteSweeperAutoClose, rec.Notes)
	assert.True(t, repo.get("fresh").IsOpen())
	assert.Equal(t, 1, outbox.count())

	closed, err = sweeper.SweepAbandoned(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
	assert.Equal(t, 1, outbox.count())
}

func TestSweepAbandonedSkipsLostRace(t *testing.T) {
	c := clock.Default()
	stale := time.Date(2024, time.January, 15, 14, 0, 0, 0, time.UTC)
	repo := newFakeAttendanceRepo(attendance.Record{ID: "stale", UserID: "u1", Date: c.StartOfDay(stale), CheckIn: &stale})
	repo.closeRace = true
	outbox := &fakeOutbox{}
	now := stale.Add(13 * time.Hour)
	sweeper := NewSweeper(repo, outbox, passThroughTx{}, c.WithNow(func() time.Time { return now }), attendance.DefaultClosePolicy())

	closed, err := sweeper.SweepAbandoned(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
	assert.Equal(t, 0, outbox.count())
}

func TestSweepAbandonedDrainsEveryPage(t *testing.T) {
	c := clock.Default()
	base := time.Date(2024, time.January, 15, 6, 0, 0, 0, time.UTC)

	var records []attendance.Record
	for i := 0; i < 7; i++ {
		in := base.Add(time.Duration(i) * time.Minute)
		records = append(records, attendance.Record{
			ID:      fmt.Sprintf("stale-%d", i),
			UserID:  fmt.Sprintf("u%d", i),
			Date:    c.StartOfDay(in),
			CheckIn: &in,
		})
	}
	repo := newFakeAttendanceRepo(records...)
	outbox := &fakeOutbox{}
	now := base.Add(20 * time.Hour)
	sweeper := NewSweeper(repo, outbox, passThroughTx{}, c.WithNow(func() time.Time { return now }), attendance.DefaultClosePolicy())
	sweeper.(*SweeperImpl).batchSize = 3

	closed, err := sweeper.SweepAbandoned(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, closed)
	assert.Equal(t, 7, outbox.count())
	for _, rec := range records {
		assert.False(t, repo.get(rec.ID).IsOpen(), rec.ID)
	}
}
