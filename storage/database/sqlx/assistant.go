package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasadev/darasa/core"
	"github.com/darasadev/darasa/core/assistant"
)

type conversationRepository struct {
	db *sqlx.DB
}

var _ assistant.Repository = (*conversationRepository)(nil) // interface compliance check

func NewConversationRepository(db *sqlx.DB) *conversationRepository {
	return &conversationRepository{db: db}
}

type conversationRow struct {
	ID        string    `db:"id"`
	OrgID     string    `db:"org_id"`
	UserID    string    `db:"user_id"`
	Title     string    `db:"title"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

type messageRow struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	Role           string    `db:"role"`
	Body           string    `db:"body"`
	CreatedAt      null.Time `db:"created_at"`
}

func (repo conversationRepository) pack(conv assistant.Conversation) conversationRow {
	return conversationRow{
		ID:        conv.ID,
		OrgID:     conv.OrgID,
		UserID:    conv.UserID,
		Title:     conv.Title,
		CreatedAt: null.NewTime(conv.CreatedAt.UTC(), !conv.CreatedAt.IsZero()),
		UpdatedAt: null.NewTime(conv.UpdatedAt.UTC(), !conv.UpdatedAt.IsZero()),
	}
}

func (repo conversationRepository) unpack(row conversationRow) assistant.Conversation {
	return assistant.Conversation{
		ID:        row.ID,
		OrgID:     row.OrgID,
		UserID:    row.UserID,
		Title:     row.Title,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func (repo conversationRepository) unpackMessage(row messageRow) assistant.Message {
	return assistant.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		Role:           row.Role,
		Body:           row.Body,
		CreatedAt:      row.CreatedAt.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to assistant.ErrNotFound
func (repo conversationRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return assistant.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo conversationRepository) CreateConversation(ctx context.Context, conv assistant.Conversation, exec ...core.DBExecutor) (assistant.Conversation, error) {
	conv.ID = uuid.New().String()
	row := repo.pack(conv)

	query := `INSERT INTO conversation (id, org_id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query,
		row.ID, row.OrgID, row.UserID, row.Title, row.CreatedAt, row.UpdatedAt,
	); err != nil {
		return assistant.Conversation{}, errors.Wrap(err, "inserting conversation")
	}
	return conv, nil
}

func (repo conversationRepository) GetConversation(ctx context.Context, id string, exec ...core.DBExecutor) (assistant.Conversation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assistant.Conversation{}, assistant.ErrNotFound
	}

	var row conversationRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, `SELECT * FROM conversation WHERE id = $1`, id); err != nil {
		return assistant.Conversation{}, repo.trapNoRowsErr(err, "finding conversation")
	}
	return repo.unpack(row), nil
}

func (repo conversationRepository) QueryConversations(ctx context.Context, orgID, userID string, exec ...core.DBExecutor) ([]assistant.Conversation, error) {
	query := `SELECT * FROM conversation
		WHERE org_id = $1 AND user_id = $2
		ORDER BY updated_at DESC`

	var rows []conversationRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, orgID, userID); err != nil {
		return nil, errors.Wrap(err, "querying conversations")
	}

	convs := make([]assistant.Conversation, 0, len(rows))
	for _, row := range rows {
		convs = append(convs, repo.unpack(row))
	}
	return convs, nil
}

func (repo conversationRepository) TouchConversation(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) error {
	query := `UPDATE conversation SET updated_at = $2 WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(ctx, query, id, at.UTC())
	if err != nil {
		return errors.Wrap(err, "touching conversation")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return assistant.ErrNotFound
	}
	return nil
}

func (repo conversationRepository) DeleteConversationsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.db, exec)

	// messages go with their conversation via ON DELETE CASCADE
	query, args, err := sqlx.In(`DELETE FROM conversation WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting conversations")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting conversations")
	}
	return int(cnt), nil
}

func (repo conversationRepository) CreateMessage(ctx context.Context, msg assistant.Message, exec ...core.DBExecutor) (assistant.Message, error) {
	msg.ID = uuid.New().String()

	query := `INSERT INTO message (id, conversation_id, role, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query,
		msg.ID, msg.ConversationID, msg.Role, msg.Body, msg.CreatedAt.UTC(),
	); err != nil {
		return assistant.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo conversationRepository) QueryMessages(ctx context.Context, conversationID string, exec ...core.DBExecutor) ([]assistant.Message, error) {
	query := `SELECT * FROM message WHERE conversation_id = $1 ORDER BY created_at`

	var rows []messageRow
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, query, conversationID); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}

	msgs := make([]assistant.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, repo.unpackMessage(row))
	}
	return msgs, nil
}
