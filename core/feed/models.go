package feed

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasadev/darasa/core"
)

// Post is a message on the org's community feed.
type Post struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"org_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	Pinned     bool      `json:"pinned"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// NewPost contains information needed to publish a new Post.
type NewPost struct {
	Body string `json:"body" validate:"required,max=4000"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Body = core.CleanString(np.Body)
	return validate.Struct(np)
}

type QueryFilter struct {
	OrgID  string `query:"-"`
	Pinned *bool  `query:"pinned"`
}
