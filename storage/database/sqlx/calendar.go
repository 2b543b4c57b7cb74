package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasadev/darasa/core"
	"github.com/darasadev/darasa/core/calendar"
)

type eventRepository struct {
	db *sqlx.DB
}

var _ calendar.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *sqlx.DB) *eventRepository {
	return &eventRepository{db: db}
}

type eventRow struct {
	ID          string         `db:"id"`
	OrgID       string         `db:"org_id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Location    string         `db:"location"`
	AllDay      bool           `db:"all_day"`
	StartTime   time.Time      `db:"start_time"`
	EndTime     time.Time      `db:"end_time"`
	Recurrence  string         `db:"recurrence"`
	Exceptions  pq.StringArray `db:"exceptions"` // RFC 3339 dates
	CreatedBy   string         `db:"created_by"`
	CreatedAt   null.Time      `db:"created_at"`
	UpdatedAt   null.Time      `db:"updated_at"`
}

func (repo eventRepository) pack(evt calendar.Event) eventRow {
	exceptions := make([]string, 0, len(evt.Exceptions))
	for _, exc := range evt.Exceptions {
		exceptions = append(exceptions, exc.UTC().Format(time.RFC3339))
	}
	return eventRow{
		ID:          evt.ID,
		OrgID:       evt.OrgID,
		Title:       evt.Title,
		Description: evt.Description,
		Location:    evt.Location,
		AllDay:      evt.AllDay,
		StartTime:   evt.StartTime.UTC(),
		EndTime:     evt.EndTime.UTC(),
		Recurrence:  evt.Recurrence,
		Exceptions:  exceptions,
		CreatedBy:   evt.CreatedBy,
		CreatedAt:   null.NewTime(evt.CreatedAt.UTC(), !evt.CreatedAt.IsZero()),
		UpdatedAt:   null.NewTime(evt.UpdatedAt.UTC(), !evt.UpdatedAt.IsZero()),
	}
}

func (repo eventRepository) unpack(row eventRow) (calendar.Event, error) {
	var exceptions []time.Time
	for _, exc := range row.Exceptions {
		t, err := time.Parse(time.RFC3339, exc)
		if err != nil {
			return calendar.Event{}, errors.Wrapf(err, "parsing exception date %q", exc)
		}
		exceptions = append(exceptions, t)
	}
	return calendar.Event{
		ID:          row.ID,
		OrgID:       row.OrgID,
		Title:       row.Title,
		Description: row.Description,
		Location:    row.Location,
		AllDay:      row.AllDay,
		StartTime:   row.StartTime.UTC(),
		EndTime:     row.EndTime.UTC(),
		Recurrence:  row.Recurrence,
		Exceptions:  exceptions,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}, nil
}

// trapNoRowsErr maps psql "no rows" err to calendar.ErrNotFound
func (repo eventRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return calendar.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo eventRepository) CreateEvent(ctx context.Context, evt calendar.Event, exec ...core.DBExecutor) (calendar.Event, error) {
	evt.ID = uuid.New().String()
	row := repo.pack(evt)

	query := `INSERT INTO event
		(id, org_id, title, description, location, all_day, start_time, end_time, recurrence, exceptions, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query,
		row.ID, row.OrgID, row.Title, row.Description, row.Location, row.AllDay,
		row.StartTime, row.EndTime, row.Recurrence, row.Exceptions, row.CreatedBy,
		row.CreatedAt, row.UpdatedAt,
	); err != nil {
		return calendar.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo eventRepository) GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (calendar.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return calendar.Event{}, calendar.ErrNotFound
	}

	var row eventRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, `SELECT * FROM event WHERE id = $1`, id); err != nil {
		return calendar.Event{}, repo.trapNoRowsErr(err, "finding event")
	}
	return repo.unpack(row)
}

func (repo eventRepository) QueryEvents(ctx context.Context, filter *calendar.QueryFilter, exec ...core.DBExecutor) ([]calendar.Event, error) {
	// recurring events are selected by rule start only; occurrence filtering
	// against the window happens during expansion
	query := `SELECT * FROM event
		WHERE org_id = $1
		AND start_time <= $3
		AND (recurrence <> '' OR end_time >= $2)
		ORDER BY start_time`

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query,
		filter.OrgID, filter.From.UTC(), filter.To.UTC(),
	); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}

	events := make([]calendar.Event, 0, len(rows))
	for _, row := range rows {
		evt, err := repo.unpack(row)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, evt calendar.Event, exec ...core.DBExecutor) (calendar.Event, error) {
	row := repo.pack(evt)

	query := `UPDATE event SET
		title = $2, description = $3, location = $4, all_day = $5,
		start_time = $6, end_time = $7, recurrence = $8, exceptions = $9,
		updated_at = $10
		WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(ctx, query,
		row.ID, row.Title, row.Description, row.Location, row.AllDay,
		row.StartTime, row.EndTime, row.Recurrence, row.Exceptions, row.UpdatedAt,
	)
	if err != nil {
		return calendar.Event{}, errors.Wrap(err, "updating event")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return calendar.Event{}, calendar.ErrNotFound
	}
	return evt, nil
}

func (repo eventRepository) DeleteEventsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.db, exec)

	query, args, err := sqlx.In(`DELETE FROM event WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting events")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting events")
	}
	return int(cnt), nil
}
