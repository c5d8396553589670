package session_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennec-ai/fennec/pkg/session"
	"github.com/fennec-ai/fennec/pkg/store"
	sqliteStore "github.com/fennec-ai/fennec/pkg/store/sqlite"
)

func setupManager(t *testing.T) (*session.Manager, *sqliteStore.Client) {
	t.Helper()

	client, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: filepath.Join(t.TempDir(), "fennec_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return session.NewManager(client, client), client
}

func TestManager_AddMessageLazyInit(t *testing.T) {
	mgr, _ := setupManager(t)
	ctx := context.Background()

	assert.Empty(t, mgr.CurrentSession())

	require.NoError(t, mgr.AddMessage(ctx, store.RoleUser, "first message of the day"))
	assert.NotEmpty(t, mgr.CurrentSession())

	messages, err := mgr.ContextMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "first message of the day", messages[0].Content)
}

func TestManager_StartNewSessionAbandonsOld(t *testing.T) {
	mgr, _ := setupManager(t)
	ctx := context.Background()

	first, err := mgr.StartNewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, mgr.AddMessage(ctx, store.RoleUser, "message in the first conversation"))

	second, err := mgr.StartNewSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// The new conversation starts empty.
	messages, err := mgr.ContextMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, messages)

	// The old conversation is still there.
	conversations, err := mgr.Conversations(ctx)
	require.NoError(t, err)
	assert.Len(t, conversations, 2)
}

func TestManager_ContextWindow(t *testing.T) {
	mgr, _ := setupManager(t)
	ctx := context.Background()

	_, err := mgr.StartNewSession(ctx)
	require.NoError(t, err)

	for i := 1; i <= 25; i++ {
		require.NoError(t, mgr.AddMessage(ctx, store.RoleUser, fmt.Sprintf("turn number %d", i)))
	}

	messages, err := mgr.ContextMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, session.ContextWindow)

	// The 20 most recent turns, chronological, newest last.
	assert.Equal(t, "turn number 6", messages[0].Content)
	assert.Equal(t, "turn number 25", messages[len(messages)-1].Content)
}

func TestManager_UnknownSessionIsEmptyHistory(t *testing.T) {
	mgr, _ := setupManager(t)

	mgr.SetSession("no-such-conversation")
	messages, err := mgr.ContextMessages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestManager_EnhancedContextDigestFirst(t *testing.T) {
	mgr, client := setupManager(t)
	ctx := context.Background()

	require.NoError(t, client.UpsertMemory(ctx, "user_name", "Hamed", store.CategoryPreference, 9))

	_, err := mgr.StartNewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, mgr.AddMessage(ctx, store.RoleUser, "hello there my friend"))

	messages, err := mgr.EnhancedContext(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, store.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "user_name")
	assert.Contains(t, messages[0].Content, "Hamed")
	assert.Equal(t, store.RoleUser, messages[1].Role)
}

func TestManager_EnhancedContextWithoutMemories(t *testing.T) {
	mgr, _ := setupManager(t)
	ctx := context.Background()

	_, err := mgr.StartNewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, mgr.AddMessage(ctx, store.RoleUser, "hello there my friend"))

	messages, err := mgr.EnhancedContext(ctx)
	require.NoError(t, err)
	// No digest when nothing is remembered.
	require.Len(t, messages, 1)
	assert.Equal(t, store.RoleUser, messages[0].Role)
}

func TestManager_ExtractsUserName(t *testing.T) {
	mgr, client := setupManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.AddMessage(ctx, store.RoleUser, "اسم من حامد هست"))

	memories, err := client.GetMemories(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, "user_name", memories[0].Key)
	assert.Equal(t, "حامد", memories[0].Value)
	assert.Equal(t, 9, memories[0].Importance)
}

func TestManager_ExtractsLikesAndDislikes(t *testing.T) {
	mgr, client := setupManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.AddMessage(ctx, store.RoleUser, "من نجوم رو خیلی دوست دارم"))
	require.NoError(t, mgr.AddMessage(ctx, store.RoleUser, "از ترافیک متنفرم"))

	likes, err := client.GetMemories(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, likes, 2)

	keys := []string{likes[0].Key, likes[1].Key}
	assert.Contains(t, keys, "user_likes")
	assert.Contains(t, keys, "user_dislikes")
}

func TestManager_AssistantTurnsSkipExtraction(t *testing.T) {
	mgr, client := setupManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.AddMessage(ctx, store.RoleAssistant, "اسم من فنک هست"))

	memories, err := client.GetMemories(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, memories)
}

func TestManager_SavePreference(t *testing.T) {
	mgr, client := setupManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.SavePreference(ctx, "favorite_color", "orange"))
	assert.Error(t, mgr.SavePreference(ctx, "  ", "x"))

	memories, err := client.GetMemories(ctx, store.CategoryPreference, 10)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, "favorite_color", memories[0].Key)
	assert.Equal(t, 8, memories[0].Importance)
}

func TestManager_SearchHistory(t *testing.T) {
	mgr, _ := setupManager(t)
	ctx := context.Background()

	_, err := mgr.StartNewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, mgr.AddMessage(ctx, store.RoleUser, "let's plan the trip to Shiraz"))

	matches, err := mgr.SearchHistory(ctx, "Shiraz")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Content, "Shiraz")

	_, err = mgr.SearchHistory(ctx, "")
	assert.Error(t, err)
}
