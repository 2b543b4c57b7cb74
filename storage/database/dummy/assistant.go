package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/darasadev/darasa/core"
	"github.com/darasadev/darasa/core/assistant"
)

type conversationRepository struct {
	db *conversationTable
}

var _ assistant.Repository = (*conversationRepository)(nil) // interface compliance check

func NewConversationRepository(db *DB) assistant.Repository {
	return &conversationRepository{db: db.conversation}
}

func (repo *conversationRepository) CreateConversation(ctx context.Context, conv assistant.Conversation, exec ...core.DBExecutor) (assistant.Conversation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	conv.ID = uuid.New().String()
	repo.db.table[conv.ID] = &conv
	return conv, nil
}

func (repo *conversationRepository) GetConversation(ctx context.Context, id string, exec ...core.DBExecutor) (assistant.Conversation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if conv, ok := repo.db.table[id]; ok {
		return *conv, nil
	}
	return assistant.Conversation{}, assistant.ErrNotFound
}

func (repo *conversationRepository) QueryConversations(ctx context.Context, orgID, userID string, exec ...core.DBExecutor) ([]assistant.Conversation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	convs := make([]assistant.Conversation, 0, len(repo.db.table))
	for _, conv := range repo.db.table {
		if conv.OrgID == orgID && conv.UserID == userID {
			convs = append(convs, *conv)
		}
	}

	sort.Slice(convs, func(i, j int) bool { return convs[i].UpdatedAt.After(convs[j].UpdatedAt) })
	return convs, nil
}

func (repo *conversationRepository) TouchConversation(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	conv, ok := repo.db.table[id]
	if !ok {
		return assistant.ErrNotFound
	}
	conv.UpdatedAt = at.UTC()
	return nil
}

func (repo *conversationRepository) DeleteConversationsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			delete(repo.db.messages, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *conversationRepository) CreateMessage(ctx context.Context, msg assistant.Message, exec ...core.DBExecutor) (assistant.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	msg.ID = uuid.New().String()
	repo.db.messages[msg.ConversationID] = append(repo.db.messages[msg.ConversationID], msg)
	return msg, nil
}

func (repo *conversationRepository) QueryMessages(ctx context.Context, conversationID string, exec ...core.DBExecutor) ([]assistant.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	msgs := make([]assistant.Message, len(repo.db.messages[conversationID]))
	copy(msgs, repo.db.messages[conversationID])

	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}
