package feed_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasadev/darasa/core/feed"
	dummydb "github.com/darasadev/darasa/storage/database/dummy"
)

func setup(t *testing.T) feed.Service {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return feed.NewService(dummydb.NewPostRepository(db))
}

func createPost(t *testing.T, svc feed.Service, orgID, authorID, body string) feed.Post {
	post, err := svc.Create(context.Background(), orgID, authorID, "Author "+authorID, feed.NewPost{Body: body})
	require.NoError(t, err)
	return post
}

func TestService_Create(t *testing.T) {
	svc := setup(t)

	post := createPost(t, svc, "org1", "user1", "Welcome to the new term!")
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "org1", post.OrgID)
	assert.Equal(t, "user1", post.AuthorID)
	assert.Equal(t, "Author user1", post.AuthorName)
	assert.Equal(t, "Welcome to the new term!", post.Body)
	assert.False(t, post.Pinned)
	assert.False(t, post.CreatedAt.IsZero())
}

func TestService_Get_CrossOrgHidden(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	post := createPost(t, svc, "org1", "user1", "hello")

	_, err := svc.Get(ctx, "org1", post.ID)
	assert.NoError(t, err)

	// another org sees nothing, not a permission error
	_, err = svc.Get(ctx, "org2", post.ID)
	assert.Equal(t, feed.ErrNotFound, err)
}

func TestService_Query(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	oldest := createPost(t, svc, "org1", "user1", "first post")
	time.Sleep(time.Millisecond)
	pinned := createPost(t, svc, "org1", "user2", "rules of the forum")
	time.Sleep(time.Millisecond)
	newest := createPost(t, svc, "org1", "user1", "latest news")
	createPost(t, svc, "org2", "user3", "other org post")

	_, err := svc.Pin(ctx, "org1", pinned.ID, true)
	require.NoError(t, err)

	// pinned first, then newest first; other orgs fully isolated
	posts, err := svc.Query(ctx, &feed.QueryFilter{OrgID: "org1"})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, pinned.ID, posts[0].ID)
	assert.Equal(t, newest.ID, posts[1].ID)
	assert.Equal(t, oldest.ID, posts[2].ID)

	// pinned filter
	onlyPinned := true
	posts, err = svc.Query(ctx, &feed.QueryFilter{OrgID: "org1", Pinned: &onlyPinned})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, pinned.ID, posts[0].ID)
}

func TestService_Pin(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	post := createPost(t, svc, "org1", "user1", "hello")

	updated, err := svc.Pin(ctx, "org1", post.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Pinned)

	updated, err = svc.Pin(ctx, "org1", post.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Pinned)

	_, err = svc.Pin(ctx, "org1", "lol", true)
	assert.Equal(t, feed.ErrNotFound, err)

	// cross-org pinning is a lookup miss
	_, err = svc.Pin(ctx, "org2", post.ID, true)
	assert.Equal(t, feed.ErrNotFound, err)
}

func TestService_Delete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	post := createPost(t, svc, "org1", "user1", "hello")
	foreign := createPost(t, svc, "org2", "user2", "other org post")

	// foreign posts are silently skipped
	err := svc.Delete(ctx, "org1", post.ID, foreign.ID, "lol")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "org1", post.ID)
	assert.Equal(t, feed.ErrNotFound, err)
	_, err = svc.Get(ctx, "org2", foreign.ID)
	assert.NoError(t, err)
}
