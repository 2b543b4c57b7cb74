package calendar

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"

	"github.com/darasadev/darasa/core"
)

// Scope qualifies a mutation on a recurring Event: either a lone
// occurrence or the whole series.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeSeries Scope = "series"
)

var (
	ErrInvalidScope         = core.NewValidationError(nil, core.FieldError{Field: "deleteType", Error: "must be one of: single, series"})
	ErrInstanceDateRequired = core.NewValidationError(nil, core.FieldError{Field: "instanceDate", Error: "required when scope is single"})
)

// ParseScope parses a scope query/body value. An empty value defaults to series.
func ParseScope(s string) (Scope, error) {
	switch Scope(core.CleanString(s, true /* lower */)) {
	case "", ScopeSeries:
		return ScopeSeries, nil
	case ScopeSingle:
		return ScopeSingle, nil
	}
	return "", ErrInvalidScope
}

// Event is the canonical calendar record. A recurring event is one Event
// carrying an RFC 5545 RRULE; its occurrences are derived, never persisted,
// unless explicitly detached by a single-scope edit.
type Event struct {
	ID          string      `json:"id"`
	OrgID       string      `json:"org_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	AllDay      bool        `json:"all_day"`
	StartTime   time.Time   `json:"start_time"` // UTC
	EndTime     time.Time   `json:"end_time"`   // UTC
	Recurrence  string      `json:"recurrence,omitempty"` // RRULE; empty for one-off events
	Exceptions  []time.Time `json:"exceptions,omitempty"` // occurrence dates removed from the series (UTC)
	CreatedBy   string      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

func (e *Event) IsRecurring() bool {
	return e.Recurrence != ""
}

func (e *Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// HasException reports whether the occurrence on the given UTC day was removed.
func (e *Event) HasException(date time.Time) bool {
	day := date.UTC().Truncate(24 * time.Hour)
	for _, exc := range e.Exceptions {
		if exc.UTC().Truncate(24*time.Hour).Equal(day) {
			return true
		}
	}
	return false
}

// Occurrence is a single calendar appearance of a (possibly recurring) Event.
type Occurrence struct {
	EventID     string    `json:"event_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	AllDay      bool      `json:"all_day"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Recurring   bool      `json:"recurring"`
}

// NewEvent contains information needed to create a new Event.
type NewEvent struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	AllDay      bool      `json:"all_day"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtefield=StartTime"`
	Recurrence  string    `json:"recurrence" validate:"omitempty,rrule"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.Location = core.CleanString(ne.Location)
	ne.Recurrence = core.CleanString(ne.Recurrence)
	return validate.Struct(ne)
}

// UpdateEvent defines what information may be provided to modify an existing
// Event. Zero values leave the original attribute untouched; Recurrence may be
// cleared explicitly by providing an empty non-nil pointer.
type UpdateEvent struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	AllDay      *bool      `json:"all_day"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Recurrence  *string    `json:"recurrence" validate:"omitempty,rrule"`

	Scope        Scope     `json:"scope"` // single | series; defaults to series
	InstanceDate time.Time `json:"instance_date"`
}

func (ue *UpdateEvent) Validate(validate *validator.Validate) error {
	ue.Title = core.CleanString(ue.Title)

	scope, err := ParseScope(string(ue.Scope))
	if err != nil {
		return err
	}
	ue.Scope = scope
	if ue.Scope == ScopeSingle && ue.InstanceDate.IsZero() {
		return ErrInstanceDateRequired
	}
	return validate.Struct(ue)
}

// apply merges the patch into the given event.
func (ue *UpdateEvent) apply(evt Event) Event {
	if ue.Title != "" {
		evt.Title = ue.Title
	}
	if ue.Description != nil {
		evt.Description = *ue.Description
	}
	if ue.Location != nil {
		evt.Location = *ue.Location
	}
	if ue.AllDay != nil {
		evt.AllDay = *ue.AllDay
	}
	if !ue.StartTime.IsZero() {
		evt.StartTime = ue.StartTime.UTC()
	}
	if !ue.EndTime.IsZero() {
		evt.EndTime = ue.EndTime.UTC()
	}
	if ue.Recurrence != nil {
		evt.Recurrence = core.CleanString(*ue.Recurrence)
	}
	return evt
}

// QueryFilter selects canonical events intersecting a time window within an org.
type QueryFilter struct {
	OrgID string
	From  time.Time
	To    time.Time
}

var (
	rruleTag  = "rrule"
	rruleText = "invalid recurrence rule"
)

// InitValidators registers this package's custom validators and translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(rruleTag, rruleValidation)
	core.RegisterCustomTranslation(validate, translator, rruleTag, rruleText)
}

// rruleValidation checks that the value parses as an RFC 5545 RRULE.
func rruleValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	_, err := rrule.StrToRRule(val)
	return err == nil
}
