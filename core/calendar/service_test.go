package calendar_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasadev/darasa/core/calendar"
	dummydb "github.com/darasadev/darasa/storage/database/dummy"
)

func setup(t *testing.T) calendar.Service {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return calendar.NewService(dummydb.NewEventRepository(db))
}

func createWeekly(t *testing.T, svc calendar.Service, orgID string) calendar.Event {
	evt, err := svc.Create(context.Background(), orgID, "teacher1", calendar.NewEvent{
		Title:      "Weekly standup",
		Location:   "Room 4",
		StartTime:  time.Date(2021, 3, 1, 14, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2021, 3, 1, 15, 0, 0, 0, time.UTC),
		Recurrence: "FREQ=WEEKLY;COUNT=5",
	})
	require.NoError(t, err)
	return evt
}

func queryMarch(t *testing.T, svc calendar.Service, orgID string) []calendar.Occurrence {
	occurrences, err := svc.Query(context.Background(), orgID,
		time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 3, 31, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	return occurrences
}

func TestService_Create(t *testing.T) {
	svc := setup(t)

	evt := createWeekly(t, svc, "org1")
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, "org1", evt.OrgID)
	assert.Equal(t, "teacher1", evt.CreatedBy)
	assert.False(t, evt.CreatedAt.IsZero())
	assert.True(t, evt.IsRecurring())
}

func TestService_Get_CrossOrgHidden(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	evt := createWeekly(t, svc, "org1")

	_, err := svc.Get(ctx, "org1", evt.ID)
	assert.NoError(t, err)

	// another org sees nothing, not a permission error
	_, err = svc.Get(ctx, "org2", evt.ID)
	assert.Equal(t, calendar.ErrNotFound, err)
}

func TestService_Query(t *testing.T) {
	svc := setup(t)

	createWeekly(t, svc, "org1")
	_, err := svc.Create(context.Background(), "org1", "teacher1", calendar.NewEvent{
		Title:     "Exam",
		StartTime: time.Date(2021, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2021, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	occurrences := queryMarch(t, svc, "org1")
	assert.Len(t, occurrences, 6) // 5 weekly + 1 one-off

	// other orgs are fully isolated
	assert.Empty(t, queryMarch(t, svc, "org2"))
}

func TestService_Update_Series(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	evt := createWeekly(t, svc, "org1")

	updated, err := svc.Update(ctx, "org1", evt.ID, calendar.UpdateEvent{
		Title: "Daily sync",
		Scope: calendar.ScopeSeries,
	})
	require.NoError(t, err)
	assert.Equal(t, "Daily sync", updated.Title)
	assert.Equal(t, evt.Recurrence, updated.Recurrence)

	// every remaining occurrence carries the new title
	for _, occ := range queryMarch(t, svc, "org1") {
		assert.Equal(t, "Daily sync", occ.Title)
	}
}

func TestService_Update_SingleDetachesOccurrence(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	evt := createWeekly(t, svc, "org1")
	instanceDate := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)

	detached, err := svc.Update(ctx, "org1", evt.ID, calendar.UpdateEvent{
		Title:        "Rescheduled standup",
		Scope:        calendar.ScopeSingle,
		InstanceDate: instanceDate,
	})
	require.NoError(t, err)
	assert.NotEqual(t, evt.ID, detached.ID)
	assert.False(t, detached.IsRecurring())
	assert.Equal(t, time.Date(2021, 3, 15, 14, 0, 0, 0, time.UTC), detached.StartTime)
	assert.Equal(t, evt.Duration(), detached.Duration())

	// the series now skips that date
	series, err := svc.Get(ctx, "org1", evt.ID)
	require.NoError(t, err)
	assert.True(t, series.HasException(instanceDate))

	// the occurrence count is unchanged: one detached, one excluded
	occurrences := queryMarch(t, svc, "org1")
	assert.Len(t, occurrences, 5)

	var detachedSeen, seriesOnDate bool
	for _, occ := range occurrences {
		if occ.EventID == detached.ID {
			detachedSeen = true
			assert.Equal(t, "Rescheduled standup", occ.Title)
		}
		if occ.EventID == evt.ID && occ.StartTime.Day() == 15 {
			seriesOnDate = true
		}
	}
	assert.True(t, detachedSeen)
	assert.False(t, seriesOnDate)
}

func TestService_Update_SingleRequiresInstanceDate(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	evt := createWeekly(t, svc, "org1")

	_, err := svc.Update(ctx, "org1", evt.ID, calendar.UpdateEvent{
		Title: "Rescheduled standup",
		Scope: calendar.ScopeSingle,
	})
	assert.Equal(t, calendar.ErrInstanceDateRequired, err)

	// a one-off event is no exception: the scope is still malformed
	oneOff, err := svc.Create(ctx, "org1", "teacher1", calendar.NewEvent{
		Title:     "Exam",
		StartTime: time.Date(2021, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2021, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "org1", oneOff.ID, calendar.UpdateEvent{
		Title: "Final exam",
		Scope: calendar.ScopeSingle,
	})
	assert.Equal(t, calendar.ErrInstanceDateRequired, err)

	unchanged, err := svc.Get(ctx, "org1", oneOff.ID)
	require.NoError(t, err)
	assert.Equal(t, "Exam", unchanged.Title)

	// validation happens before the lookup
	_, err = svc.Update(ctx, "org1", "lol", calendar.UpdateEvent{Scope: calendar.ScopeSingle})
	assert.Equal(t, calendar.ErrInstanceDateRequired, err)
}

func TestService_Update_SingleOnOneOff(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	evt, err := svc.Create(ctx, "org1", "teacher1", calendar.NewEvent{
		Title:     "Exam",
		StartTime: time.Date(2021, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2021, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// single scope on a one-off event is a plain update, nothing detaches
	updated, err := svc.Update(ctx, "org1", evt.ID, calendar.UpdateEvent{
		Title:        "Final exam",
		Scope:        calendar.ScopeSingle,
		InstanceDate: evt.StartTime,
	})
	require.NoError(t, err)
	assert.Equal(t, evt.ID, updated.ID)
	assert.Equal(t, "Final exam", updated.Title)
	assert.Len(t, queryMarch(t, svc, "org1"), 1)
}

func TestService_Delete_SingleExcludesOccurrence(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	evt := createWeekly(t, svc, "org1")
	instanceDate := time.Date(2021, 3, 8, 0, 0, 0, 0, time.UTC)

	err := svc.Delete(ctx, "org1", evt.ID, calendar.ScopeSingle, instanceDate)
	require.NoError(t, err)

	// the event survives, minus that occurrence
	_, err = svc.Get(ctx, "org1", evt.ID)
	assert.NoError(t, err)

	occurrences := queryMarch(t, svc, "org1")
	assert.Len(t, occurrences, 4)
	for _, occ := range occurrences {
		assert.NotEqual(t, 8, occ.StartTime.Day())
	}
}

func TestService_Delete_Series(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	evt := createWeekly(t, svc, "org1")

	err := svc.Delete(ctx, "org1", evt.ID, calendar.ScopeSeries, time.Time{})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "org1", evt.ID)
	assert.Equal(t, calendar.ErrNotFound, err)
	assert.Empty(t, queryMarch(t, svc, "org1"))
}

func TestService_Delete_SingleRequiresInstanceDate(t *testing.T) {
	svc := setup(t)

	evt := createWeekly(t, svc, "org1")

	err := svc.Delete(context.Background(), "org1", evt.ID, calendar.ScopeSingle, time.Time{})
	assert.Equal(t, calendar.ErrInstanceDateRequired, err)
}

func TestService_Delete_CrossOrgHidden(t *testing.T) {
	svc := setup(t)

	evt := createWeekly(t, svc, "org1")

	err := svc.Delete(context.Background(), "org2", evt.ID, calendar.ScopeSeries, time.Time{})
	assert.Equal(t, calendar.ErrNotFound, err)
}
