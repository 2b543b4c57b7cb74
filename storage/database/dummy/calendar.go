package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasadev/darasa/core"
	"github.com/darasadev/darasa/core/calendar"
)

type eventRepository struct {
	db *eventTable
}

var _ calendar.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) calendar.Repository {
	return &eventRepository{db: db.event}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt calendar.Event, exec ...core.DBExecutor) (calendar.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	evt.ID = uuid.New().String()
	repo.db.table[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (calendar.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if evt, ok := repo.db.table[id]; ok {
		return *evt, nil
	}
	return calendar.Event{}, calendar.ErrNotFound
}

func (repo *eventRepository) QueryEvents(ctx context.Context, filter *calendar.QueryFilter, exec ...core.DBExecutor) ([]calendar.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	// keep events able to produce occurrences within the window; a recurring
	// rule only needs to have started before the window's end
	events := make([]calendar.Event, 0, len(repo.db.table))
	for _, evt := range repo.db.table {
		if evt.OrgID != filter.OrgID {
			continue
		}
		if evt.StartTime.After(filter.To) {
			continue
		}
		if !evt.IsRecurring() && evt.EndTime.Before(filter.From) {
			continue
		}
		events = append(events, *evt)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return events, nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, evt calendar.Event, exec ...core.DBExecutor) (calendar.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[evt.ID]; !ok {
		return calendar.Event{}, calendar.ErrNotFound
	}
	repo.db.table[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
