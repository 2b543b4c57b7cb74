package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasadev/darasa/core"
)

var (
	// errors
	ErrNotFound   = errors.New("course not found")
	ErrCodeExists = errors.New("a course with this code already exists")
)

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, orgID, code string, exec ...core.DBExecutor) error
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Course.Code or Course.Title.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CheckCodeUniqueness(orgID, code string) error
		Create(ctx context.Context, orgID string, nc NewCourse) (Course, error)
		Get(ctx context.Context, orgID, id string) (Course, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		Update(ctx context.Context, orgID, id string, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, orgID string, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckCodeUniqueness(orgID, code string) error {
	if err := svc.repo.CheckCodeUniqueness(context.Background(), orgID, code); err != nil {
		if errors.Cause(err) == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, orgID string, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		OrgID:       orgID,
		Code:        nc.Code,
		Title:       nc.Title,
		Description: nc.Description,
		TeacherID:   nc.TeacherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	crs.SetPublished(false)
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) Get(ctx context.Context, orgID, id string) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if crs.OrgID != orgID {
		return Course{}, ErrNotFound
	}
	return crs, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, orgID, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.Get(ctx, orgID, id)
	if err != nil {
		return Course{}, err
	}

	crs.Code = uc.Code
	if uc.Title != "" {
		crs.Title = uc.Title
	}
	if uc.Description != nil {
		crs.Description = *uc.Description
	}
	if uc.TeacherID != "" {
		crs.TeacherID = uc.TeacherID
	}
	if uc.IsPublished != nil {
		crs.IsPublished = uc.IsPublished
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) Delete(ctx context.Context, orgID string, ids ...string) error {
	// only delete courses owned by the org
	owned := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := svc.Get(ctx, orgID, id); err != nil {
			if errors.Cause(err) == ErrNotFound {
				continue
			}
			return err
		}
		owned = append(owned, id)
	}
	if len(owned) == 0 {
		return nil
	}
	_, err := svc.repo.DeleteCoursesByID(ctx, owned)
	return err
}
