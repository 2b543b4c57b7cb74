package assistant

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasadev/darasa/core"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Conversation struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// NewConversation contains information needed to start a Conversation.
type NewConversation struct {
	Title string `json:"title"`
}

func (nc *NewConversation) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	return validate.Struct(nc)
}

// NewMessage is a user prompt appended to a Conversation.
type NewMessage struct {
	Body string `json:"body" validate:"required,max=8000"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Body = core.CleanString(nm.Body)
	return validate.Struct(nm)
}
