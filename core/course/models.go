package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasadev/darasa/core"
)

type Course struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TeacherID   string    `json:"teacher_id"`
	IsPublished *bool     `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (c *Course) SetPublished(published bool) {
	c.IsPublished = &published
}

func (c *Course) Published() bool {
	return c.IsPublished != nil && *c.IsPublished
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Code        string `json:"code" validate:"required,alphanum_"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	TeacherID   string `json:"teacher_id" validate:"required"`
}

func (nc *NewCourse) Validate(orgID string, validate *validator.Validate, svc Service) error {
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(orgID, nc.Code)
}

// UpdateCourse defines what information may be provided to modify an existing
// Course. Zero values leave the original attribute untouched.
type UpdateCourse struct {
	Code        string `json:"code" validate:"omitempty,alphanum_"`
	Title       string `json:"title"`
	Description *string `json:"description"`
	TeacherID   string `json:"teacher_id"`
	IsPublished *bool  `json:"is_published"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate, svc Service) error {
	code := core.CleanString(uc.Code, true /* lower */)
	if code != "" {
		uc.Code = code
	} else {
		uc.Code = orig.Code
	}
	uc.Title = core.CleanString(uc.Title)

	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.Code != orig.Code {
		return svc.CheckCodeUniqueness(orig.OrgID, uc.Code)
	}
	return nil
}

type QueryFilter struct {
	Search      string `query:"search"`
	OrgID       string `query:"-"`
	TeacherID   string `query:"teacher_id"`
	IsPublished *bool  `query:"is_published"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
