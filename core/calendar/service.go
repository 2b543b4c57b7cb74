package calendar

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasadev/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("event not found")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (Event, error)
		// QueryEvents returns canonical events of the org whose own span or
		// recurrence may intersect [filter.From, filter.To].
		QueryEvents(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Event, error)
		UpdateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		DeleteEventsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Create(ctx context.Context, orgID, createdBy string, ne NewEvent) (Event, error)
		Get(ctx context.Context, orgID, id string) (Event, error)
		// Query expands the org's events into occurrences within [from, to].
		Query(ctx context.Context, orgID string, from, to time.Time) ([]Occurrence, error)
		Update(ctx context.Context, orgID, id string, ue UpdateEvent) (Event, error)
		Delete(ctx context.Context, orgID, id string, scope Scope, instanceDate time.Time) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

var nowFunc = time.Now // mockable

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, orgID, createdBy string, ne NewEvent) (Event, error) {
	now := nowFunc().UTC()
	evt := Event{
		OrgID:       orgID,
		Title:       ne.Title,
		Description: ne.Description,
		Location:    ne.Location,
		AllDay:      ne.AllDay,
		StartTime:   ne.StartTime.UTC(),
		EndTime:     ne.EndTime.UTC(),
		Recurrence:  ne.Recurrence,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *service) Get(ctx context.Context, orgID, id string) (Event, error) {
	evt, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	// cross-org access is indistinguishable from a missing event
	if evt.OrgID != orgID {
		return Event{}, ErrNotFound
	}
	return evt, nil
}

func (svc *service) Query(ctx context.Context, orgID string, from, to time.Time) ([]Occurrence, error) {
	events, err := svc.repo.QueryEvents(ctx, &QueryFilter{OrgID: orgID, From: from.UTC(), To: to.UTC()})
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return Expand(events, from.UTC(), to.UTC())
}

func (svc *service) Update(ctx context.Context, orgID, id string, ue UpdateEvent) (Event, error) {
	if ue.Scope == ScopeSingle && ue.InstanceDate.IsZero() {
		return Event{}, ErrInstanceDateRequired
	}

	evt, err := svc.Get(ctx, orgID, id)
	if err != nil {
		return Event{}, err
	}

	if ue.Scope == ScopeSingle && evt.IsRecurring() {
		return svc.detachOccurrence(ctx, evt, ue)
	}

	evt = ue.apply(evt)
	evt.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateEvent(ctx, evt)
}

// detachOccurrence removes the targeted occurrence from the series and
// persists it as an independent one-off event carrying the patch.
func (svc *service) detachOccurrence(ctx context.Context, evt Event, ue UpdateEvent) (Event, error) {
	now := nowFunc().UTC()

	evt.Exceptions = append(evt.Exceptions, ue.InstanceDate.UTC())
	evt.UpdatedAt = now
	if _, err := svc.repo.UpdateEvent(ctx, evt); err != nil {
		return Event{}, errors.Wrap(err, "excluding occurrence from series")
	}

	detached := evt
	detached.ID = ""
	detached.Recurrence = ""
	detached.Exceptions = nil
	detached.StartTime = occurrenceStart(evt, ue.InstanceDate)
	detached.EndTime = detached.StartTime.Add(evt.Duration())
	detached.CreatedAt = now
	detached.UpdatedAt = now

	detached = ue.apply(detached)
	detached.Recurrence = "" // a detached occurrence never recurs
	return svc.repo.CreateEvent(ctx, detached)
}

func (svc *service) Delete(ctx context.Context, orgID, id string, scope Scope, instanceDate time.Time) error {
	if scope == ScopeSingle && instanceDate.IsZero() {
		return ErrInstanceDateRequired
	}

	evt, err := svc.Get(ctx, orgID, id)
	if err != nil {
		return err
	}

	if scope == ScopeSingle && evt.IsRecurring() {
		evt.Exceptions = append(evt.Exceptions, instanceDate.UTC())
		evt.UpdatedAt = nowFunc().UTC()
		_, err = svc.repo.UpdateEvent(ctx, evt)
		return errors.Wrap(err, "excluding occurrence from series")
	}

	// single scope on a one-off event degenerates to a series delete
	cnt, err := svc.repo.DeleteEventsByID(ctx, []string{evt.ID})
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	if cnt == 0 {
		return ErrNotFound
	}
	return nil
}

// occurrenceStart places the canonical start's time-of-day on the instance date.
func occurrenceStart(evt Event, instanceDate time.Time) time.Time {
	day := instanceDate.UTC()
	start := evt.StartTime.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(),
		start.Hour(), start.Minute(), start.Second(), 0, time.UTC)
}
