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
	"github.com/darasadev/darasa/core/feed"
)

type postRepository struct {
	db *sqlx.DB
}

var _ feed.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *sqlx.DB) *postRepository {
	return &postRepository{db: db}
}

type postRow struct {
	ID         string    `db:"id"`
	OrgID      string    `db:"org_id"`
	AuthorID   string    `db:"author_id"`
	AuthorName string    `db:"author_name"`
	Body       string    `db:"body"`
	Pinned     bool      `db:"pinned"`
	CreatedAt  null.Time `db:"created_at"`
	UpdatedAt  null.Time `db:"updated_at"`
}

func (repo postRepository) pack(post feed.Post) postRow {
	return postRow{
		ID:         post.ID,
		OrgID:      post.OrgID,
		AuthorID:   post.AuthorID,
		AuthorName: post.AuthorName,
		Body:       post.Body,
		Pinned:     post.Pinned,
		CreatedAt:  null.NewTime(post.CreatedAt.UTC(), !post.CreatedAt.IsZero()),
		UpdatedAt:  null.NewTime(post.UpdatedAt.UTC(), !post.UpdatedAt.IsZero()),
	}
}

func (repo postRepository) unpack(row postRow) feed.Post {
	return feed.Post{
		ID:         row.ID,
		OrgID:      row.OrgID,
		AuthorID:   row.AuthorID,
		AuthorName: row.AuthorName,
		Body:       row.Body,
		Pinned:     row.Pinned,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to feed.ErrNotFound
func (repo postRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return feed.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo postRepository) CreatePost(ctx context.Context, post feed.Post, exec ...core.DBExecutor) (feed.Post, error) {
	post.ID = uuid.New().String()
	row := repo.pack(post)

	query := `INSERT INTO feed_post
		(id, org_id, author_id, author_name, body, pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, query,
		row.ID, row.OrgID, row.AuthorID, row.AuthorName, row.Body, row.Pinned,
		row.CreatedAt, row.UpdatedAt,
	); err != nil {
		return feed.Post{}, errors.Wrap(err, "inserting post")
	}
	return post, nil
}

func (repo postRepository) GetPost(ctx context.Context, id string, exec ...core.DBExecutor) (feed.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return feed.Post{}, feed.ErrNotFound
	}

	var row postRow
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row, `SELECT * FROM feed_post WHERE id = $1`, id); err != nil {
		return feed.Post{}, repo.trapNoRowsErr(err, "finding post")
	}
	return repo.unpack(row), nil
}

func (repo postRepository) QueryPosts(ctx context.Context, filter *feed.QueryFilter, exec ...core.DBExecutor) ([]feed.Post, error) {
	exe := getExec(repo.db, exec)

	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.OrgID != "" {
			conds = append(conds, `org_id = ?`)
			args = append(args, filter.OrgID)
		}
		if filter.Pinned != nil {
			conds = append(conds, `pinned = ?`)
			args = append(args, *filter.Pinned)
		}
	}

	query := `SELECT * FROM feed_post`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY pinned DESC, created_at DESC`

	var rows []postRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}

	posts := make([]feed.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, repo.unpack(row))
	}
	return posts, nil
}

func (repo postRepository) UpdatePost(ctx context.Context, post feed.Post, exec ...core.DBExecutor) (feed.Post, error) {
	row := repo.pack(post)

	query := `UPDATE feed_post SET body = $2, pinned = $3, updated_at = $4 WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(ctx, query, row.ID, row.Body, row.Pinned, row.UpdatedAt)
	if err != nil {
		return feed.Post{}, errors.Wrap(err, "updating post")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return feed.Post{}, feed.ErrNotFound
	}
	return post, nil
}

func (repo postRepository) DeletePostsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.db, exec)

	query, args, err := sqlx.In(`DELETE FROM feed_post WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting posts")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting posts")
	}
	return int(cnt), nil
}
