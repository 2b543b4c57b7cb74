package assistant

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasadev/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("conversation not found")
)

type (
	// Responder produces the assistant's reply to a prompt given the
	// conversation history. The actual chat transport lives behind this
	// interface and is provided by services/assistant implementations.
	Responder interface {
		Respond(ctx context.Context, history []Message, prompt string) (string, error)
	}

	Repository interface {
		CreateConversation(ctx context.Context, conv Conversation, exec ...core.DBExecutor) (Conversation, error)
		GetConversation(ctx context.Context, id string, exec ...core.DBExecutor) (Conversation, error)
		// QueryConversations returns the user's conversations, newest first.
		QueryConversations(ctx context.Context, orgID, userID string, exec ...core.DBExecutor) ([]Conversation, error)
		TouchConversation(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error
		DeleteConversationsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)

		CreateMessage(ctx context.Context, msg Message, exec ...core.DBExecutor) (Message, error)
		// QueryMessages returns a conversation's messages, oldest first.
		QueryMessages(ctx context.Context, conversationID string, exec ...core.DBExecutor) ([]Message, error)
	}

	Service interface {
		Start(ctx context.Context, orgID, userID string, nc NewConversation) (Conversation, error)
		Get(ctx context.Context, orgID, userID, id string) (Conversation, error)
		Query(ctx context.Context, orgID, userID string) ([]Conversation, error)
		Messages(ctx context.Context, orgID, userID, conversationID string) ([]Message, error)
		// Send appends the user prompt, obtains the assistant reply and
		// persists both; the reply message is returned.
		Send(ctx context.Context, orgID, userID, conversationID string, nm NewMessage) (Message, error)
		Delete(ctx context.Context, orgID, userID string, ids ...string) error
	}

	service struct {
		repo      Repository
		responder Responder
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, responder Responder) Service {
	return &service{repo: repo, responder: responder}
}

func (svc *service) Start(ctx context.Context, orgID, userID string, nc NewConversation) (Conversation, error) {
	now := time.Now().UTC()
	title := nc.Title
	if title == "" {
		title = "New conversation"
	}
	conv := Conversation{
		OrgID:     orgID,
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateConversation(ctx, conv)
}

func (svc *service) Get(ctx context.Context, orgID, userID, id string) (Conversation, error) {
	conv, err := svc.repo.GetConversation(ctx, id)
	if err != nil {
		return Conversation{}, err
	}
	// conversations are private to their owner
	if conv.OrgID != orgID || conv.UserID != userID {
		return Conversation{}, ErrNotFound
	}
	return conv, nil
}

func (svc *service) Query(ctx context.Context, orgID, userID string) ([]Conversation, error) {
	return svc.repo.QueryConversations(ctx, orgID, userID)
}

func (svc *service) Messages(ctx context.Context, orgID, userID, conversationID string) ([]Message, error) {
	if _, err := svc.Get(ctx, orgID, userID, conversationID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMessages(ctx, conversationID)
}

func (svc *service) Send(ctx context.Context, orgID, userID, conversationID string, nm NewMessage) (Message, error) {
	conv, err := svc.Get(ctx, orgID, userID, conversationID)
	if err != nil {
		return Message{}, err
	}

	history, err := svc.repo.QueryMessages(ctx, conv.ID)
	if err != nil {
		return Message{}, errors.Wrap(err, "querying conversation history")
	}

	now := time.Now().UTC()
	if _, err = svc.repo.CreateMessage(ctx, Message{
		ConversationID: conv.ID,
		Role:           RoleUser,
		Body:           nm.Body,
		CreatedAt:      now,
	}); err != nil {
		return Message{}, errors.Wrap(err, "storing prompt")
	}

	reply, err := svc.responder.Respond(ctx, history, nm.Body)
	if err != nil {
		return Message{}, errors.Wrap(err, "obtaining assistant reply")
	}

	msg, err := svc.repo.CreateMessage(ctx, Message{
		ConversationID: conv.ID,
		Role:           RoleAssistant,
		Body:           reply,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return Message{}, errors.Wrap(err, "storing reply")
	}

	if err = svc.repo.TouchConversation(ctx, conv.ID, msg.CreatedAt); err != nil {
		return Message{}, errors.Wrap(err, "touching conversation")
	}
	return msg, nil
}

func (svc *service) Delete(ctx context.Context, orgID, userID string, ids ...string) error {
	owned := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := svc.Get(ctx, orgID, userID, id); err != nil {
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
	_, err := svc.repo.DeleteConversationsByID(ctx, owned)
	return err
}
