package assistant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasadev/darasa/core/assistant"
	assistantsvc "github.com/darasadev/darasa/services/assistant"
	dummydb "github.com/darasadev/darasa/storage/database/dummy"
)

func setup(t *testing.T) assistant.Service {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return assistant.NewService(dummydb.NewConversationRepository(db), assistantsvc.NewEchoResponder())
}

func TestService_Start(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	conv, err := svc.Start(ctx, "org1", "user1", assistant.NewConversation{})
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "New conversation", conv.Title)

	conv, err = svc.Start(ctx, "org1", "user1", assistant.NewConversation{Title: "Homework help"})
	require.NoError(t, err)
	assert.Equal(t, "Homework help", conv.Title)
}

func TestService_Get_PrivateToOwner(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	conv, err := svc.Start(ctx, "org1", "user1", assistant.NewConversation{})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "org1", "user1", conv.ID)
	assert.NoError(t, err)

	// not even org mates see it
	_, err = svc.Get(ctx, "org1", "user2", conv.ID)
	assert.Equal(t, assistant.ErrNotFound, err)

	_, err = svc.Get(ctx, "org2", "user1", conv.ID)
	assert.Equal(t, assistant.ErrNotFound, err)
}

func TestService_Send(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	conv, err := svc.Start(ctx, "org1", "user1", assistant.NewConversation{})
	require.NoError(t, err)

	reply, err := svc.Send(ctx, "org1", "user1", conv.ID, assistant.NewMessage{Body: "What is recursion?"})
	require.NoError(t, err)
	assert.Equal(t, assistant.RoleAssistant, reply.Role)
	assert.Equal(t, "You said: What is recursion?", reply.Body)

	// prompt and reply were both persisted, oldest first
	messages, err := svc.Messages(ctx, "org1", "user1", conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, assistant.RoleUser, messages[0].Role)
	assert.Equal(t, "What is recursion?", messages[0].Body)
	assert.Equal(t, assistant.RoleAssistant, messages[1].Role)

	// the conversation surfaces as recently active
	refreshed, err := svc.Get(ctx, "org1", "user1", conv.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.UpdatedAt.Before(conv.UpdatedAt))
}

func TestService_Send_UnknownConversation(t *testing.T) {
	svc := setup(t)

	_, err := svc.Send(context.Background(), "org1", "user1", "lol", assistant.NewMessage{Body: "hi"})
	assert.Equal(t, assistant.ErrNotFound, err)
}

func TestService_Delete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	conv, err := svc.Start(ctx, "org1", "user1", assistant.NewConversation{})
	require.NoError(t, err)
	foreign, err := svc.Start(ctx, "org1", "user2", assistant.NewConversation{})
	require.NoError(t, err)

	// other users' conversations are silently skipped
	err = svc.Delete(ctx, "org1", "user1", conv.ID, foreign.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "org1", "user1", conv.ID)
	assert.Equal(t, assistant.ErrNotFound, err)
	_, err = svc.Get(ctx, "org1", "user2", foreign.ID)
	assert.NoError(t, err)
}
