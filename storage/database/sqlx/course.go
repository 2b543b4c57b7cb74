package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasadev/darasa/core"
	"github.com/darasadev/darasa/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID          string    `db:"id"`
	OrgID       string    `db:"org_id"`
	Code        string    `db:"code"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	TeacherID   string    `db:"teacher_id"`
	IsPublished null.Bool `db:"is_published"`
	CreatedAt   null.Time `db:"created_at"`
	UpdatedAt   null.Time `db:"updated_at"`
}

func (repo courseRepository) pack(crs course.Course) courseRow {
	return courseRow{
		ID:          crs.ID,
		OrgID:       crs.OrgID,
		Code:        crs.Code,
		Title:       crs.Title,
		Description: crs.Description,
		TeacherID:   crs.TeacherID,
		IsPublished: null.BoolFromPtr(crs.IsPublished),
		CreatedAt:   null.NewTime(crs.CreatedAt.UTC(), !crs.CreatedAt.IsZero()),
		UpdatedAt:   null.NewTime(crs.UpdatedAt.UTC(), !crs.UpdatedAt.IsZero()),
	}
}

func (repo courseRepository) unpack(row courseRow) course.Course {
	return course.Course{
		ID:          row.ID,
		OrgID:       row.OrgID,
		Code:        row.Code,
		Title:       row.Title,
		Description: row.Description,
		TeacherID:   row.TeacherID,
		IsPublished: row.IsPublished.Ptr(),
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to course.ErrNotFound
func (repo courseRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return course.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CheckCodeUniqueness(ctx context.Context, orgID, code string, exec ...core.DBExecutor) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM course WHERE org_id = $1 AND code = $2)`
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &exists, query, orgID, code); err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	if exists {
		return course.ErrCodeExists
	}
	return nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	crs.ID = uuid.New().String()
	row := repo.pack(crs)

	query := `INSERT INTO course
		(id, org_id, code, title, description, teacher_id, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query,
		row.ID, row.OrgID, row.Code, row.Title, row.Description, row.TeacherID,
		row.IsPublished, row.CreatedAt, row.UpdatedAt,
	); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}

	var row courseRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "finding course")
	}
	return repo.unpack(row), nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]course.Course, error) {
	exe := getExec(repo.db, exec)

	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.OrgID != "" {
			conds = append(conds, `org_id = ?`)
			args = append(args, filter.OrgID)
		}
		// courses with Code or Title matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, `(code ILIKE ? OR title ILIKE ?)`)
			args = append(args, val, val)
		}
		if filter.TeacherID != "" {
			conds = append(conds, `teacher_id = ?`)
			args = append(args, filter.TeacherID)
		}
		if filter.IsPublished != nil {
			conds = append(conds, `is_published = ?`)
			args = append(args, *filter.IsPublished)
		}
	}

	query := `SELECT * FROM course`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += ` ORDER BY ` + strings.Join(orderList, ", ")
	} else {
		query += ` ORDER BY code`
	}

	var rows []courseRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, repo.unpack(row))
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	row := repo.pack(crs)

	query := `UPDATE course SET
		code = $2, title = $3, description = $4, teacher_id = $5,
		is_published = $6, updated_at = $7
		WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(ctx, query,
		row.ID, row.Code, row.Title, row.Description, row.TeacherID,
		row.IsPublished, row.UpdatedAt,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.db, exec)

	query, args, err := sqlx.In(`DELETE FROM course WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting courses")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting courses")
	}
	return int(cnt), nil
}
