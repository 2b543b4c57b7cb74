package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasadev/darasa/core"
	"github.com/darasadev/darasa/core/feed"
)

type postRepository struct {
	db *postTable
}

var _ feed.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *DB) feed.Repository {
	return &postRepository{db: db.post}
}

func (repo *postRepository) CreatePost(ctx context.Context, post feed.Post, exec ...core.DBExecutor) (feed.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	post.ID = uuid.New().String()
	repo.db.table[post.ID] = &post
	return post, nil
}

func (repo *postRepository) GetPost(ctx context.Context, id string, exec ...core.DBExecutor) (feed.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if post, ok := repo.db.table[id]; ok {
		return *post, nil
	}
	return feed.Post{}, feed.ErrNotFound
}

func (repo *postRepository) QueryPosts(ctx context.Context, filter *feed.QueryFilter, exec ...core.DBExecutor) ([]feed.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	posts := make([]feed.Post, 0, len(repo.db.table))
	for _, post := range repo.db.table {
		if filter != nil {
			if filter.OrgID != "" && post.OrgID != filter.OrgID {
				continue
			}
			if filter.Pinned != nil && post.Pinned != *filter.Pinned {
				continue
			}
		}
		posts = append(posts, *post)
	}

	// pinned first, then newest first
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].Pinned != posts[j].Pinned {
			return posts[i].Pinned
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (repo *postRepository) UpdatePost(ctx context.Context, post feed.Post, exec ...core.DBExecutor) (feed.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[post.ID]; !ok {
		return feed.Post{}, feed.ErrNotFound
	}
	repo.db.table[post.ID] = &post
	return post, nil
}

func (repo *postRepository) DeletePostsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}
