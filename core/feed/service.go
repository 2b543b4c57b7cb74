package feed

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasadev/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("post not found")
)

type (
	Repository interface {
		CreatePost(ctx context.Context, post Post, exec ...core.DBExecutor) (Post, error)
		GetPost(ctx context.Context, id string, exec ...core.DBExecutor) (Post, error)
		// QueryPosts returns org posts, pinned first then newest first.
		QueryPosts(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Post, error)
		UpdatePost(ctx context.Context, post Post, exec ...core.DBExecutor) (Post, error)
		DeletePostsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Create(ctx context.Context, orgID, authorID, authorName string, np NewPost) (Post, error)
		Get(ctx context.Context, orgID, id string) (Post, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Post, error)
		Pin(ctx context.Context, orgID, id string, pinned bool) (Post, error)
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

func (svc *service) Create(ctx context.Context, orgID, authorID, authorName string, np NewPost) (Post, error) {
	now := time.Now().UTC()
	post := Post{
		OrgID:      orgID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       np.Body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreatePost(ctx, post)
}

func (svc *service) Get(ctx context.Context, orgID, id string) (Post, error) {
	post, err := svc.repo.GetPost(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if post.OrgID != orgID {
		return Post{}, ErrNotFound
	}
	return post, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Post, error) {
	return svc.repo.QueryPosts(ctx, filter)
}

func (svc *service) Pin(ctx context.Context, orgID, id string, pinned bool) (Post, error) {
	post, err := svc.Get(ctx, orgID, id)
	if err != nil {
		return Post{}, err
	}
	post.Pinned = pinned
	post.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePost(ctx, post)
}

func (svc *service) Delete(ctx context.Context, orgID string, ids ...string) error {
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
	_, err := svc.repo.DeletePostsByID(ctx, owned)
	return err
}
