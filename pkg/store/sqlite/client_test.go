package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennec-ai/fennec/pkg/store"
	sqliteStore "github.com/fennec-ai/fennec/pkg/store/sqlite"
)

func setupSQLiteTest(t *testing.T) *sqliteStore.Client {
	t.Helper()

	client, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: filepath.Join(t.TempDir(), "fennec_test.db"),
	})
	require.NoError(t, err)
	require.NotNil(t, client)

	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSQLiteClient_CreateConversation(t *testing.T) {
	client := setupSQLiteTest(t)
	ctx := context.Background()

	id, err := client.CreateConversation(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	summaries, err := client.ListRecentConversations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, id, summaries[0].ID)
	assert.Equal(t, store.DefaultTitle, summaries[0].Title)
	assert.Equal(t, 0, summaries[0].TurnCount)
}

func TestSQLiteClient_AppendTurn_DerivesTitleOnce(t *testing.T) {
	client := setupSQLiteTest(t)
	ctx := context.Background()

	id, err := client.CreateConversation(ctx)
	require.NoError(t, err)

	// Short opener keeps the default title.
	require.NoError(t, client.AppendTurn(ctx, id, store.RoleUser, "سلام"))

	summaries, err := client.ListRecentConversations(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultTitle, summaries[0].Title)

	// The first long enough turn becomes the title.
	require.NoError(t, client.AppendTurn(ctx, id, store.RoleUser,
		"می‌خوام درباره تاریخ ایران باستان بیشتر بدونم"))

	summaries, err = client.ListRecentConversations(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "می‌خوام درباره تاریخ ایران باستان", summaries[0].Title)

	// Later turns never change it again.
	require.NoError(t, client.AppendTurn(ctx, id, store.RoleUser,
		"a completely different topic now with many words"))

	summaries, err = client.ListRecentConversations(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "می‌خوام درباره تاریخ ایران باستان", summaries[0].Title)
	assert.Equal(t, 3, summaries[0].TurnCount)
}

func TestSQLiteClient_AppendTurn_UnknownConversation(t *testing.T) {
	client := setupSQLiteTest(t)

	err := client.AppendTurn(context.Background(), "no-such-id", store.RoleUser, "hello")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSQLiteClient_GetTurns_WindowAndOrder(t *testing.T) {
	client := setupSQLiteTest(t)
	ctx := context.Background()

	id, err := client.CreateConversation(ctx)
	require.NoError(t, err)

	contents := []string{"one", "two", "three", "four", "five"}
	for _, content := range contents {
		require.NoError(t, client.AppendTurn(ctx, id, store.RoleUser, content))
	}

	turns, err := client.GetTurns(ctx, id, 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)

	// The three most recent turns, oldest first.
	assert.Equal(t, "three", turns[0].Content)
	assert.Equal(t, "four", turns[1].Content)
	assert.Equal(t, "five", turns[2].Content)
}

func TestSQLiteClient_GetTurns_UnknownConversation(t *testing.T) {
	client := setupSQLiteTest(t)

	turns, err := client.GetTurns(context.Background(), "no-such-id", 20)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSQLiteClient_SearchTurns(t *testing.T) {
	client := setupSQLiteTest(t)
	ctx := context.Background()

	id, err := client.CreateConversation(ctx)
	require.NoError(t, err)
	require.NoError(t, client.AppendTurn(ctx, id, store.RoleUser, "let's talk about astronomy tonight"))
	require.NoError(t, client.AppendTurn(ctx, id, store.RoleAssistant, "astronomy it is"))
	require.NoError(t, client.AppendTurn(ctx, id, store.RoleUser, "something else entirely"))

	matches, err := client.SearchTurns(ctx, "astronomy")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, id, m.ConversationID)
		assert.Contains(t, m.Content, "astronomy")
	}
}

func TestSQLiteClient_SearchTurns_EscapesWildcards(t *testing.T) {
	client := setupSQLiteTest(t)
	ctx := context.Background()

	id, err := client.CreateConversation(ctx)
	require.NoError(t, err)
	require.NoError(t, client.AppendTurn(ctx, id, store.RoleUser, "discount is 100% off today"))
	require.NoError(t, client.AppendTurn(ctx, id, store.RoleUser, "no percent sign here"))

	matches, err := client.SearchTurns(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Content, "100% off")
}

func TestSQLiteClient_CloseConversation(t *testing.T) {
	client := setupSQLiteTest(t)
	ctx := context.Background()

	id, err := client.CreateConversation(ctx)
	require.NoError(t, err)

	require.NoError(t, client.CloseConversation(ctx, id))

	summaries, err := client.ListRecentConversations(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	assert.ErrorIs(t, client.CloseConversation(ctx, "no-such-id"), store.ErrNotFound)
}

func TestSQLiteClient_UpsertMemory(t *testing.T) {
	client := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, client.UpsertMemory(ctx, "user_name", "Hamed", store.CategoryPreference, 9))
	require.NoError(t, client.UpsertMemory(ctx, "user_name", "Sara", store.CategoryPreference, 9))

	memories, err := client.GetMemories(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, "Sara", memories[0].Value)
}

func TestSQLiteClient_GetMemories_Ordering(t *testing.T) {
	client := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, client.UpsertMemory(ctx, "low", "a", store.CategoryFact, 2))
	require.NoError(t, client.UpsertMemory(ctx, "high", "b", store.CategoryFact, 9))
	require.NoError(t, client.UpsertMemory(ctx, "mid", "c", store.CategoryPreference, 5))

	memories, err := client.GetMemories(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, memories, 3)
	assert.Equal(t, "high", memories[0].Key)
	assert.Equal(t, "mid", memories[1].Key)
	assert.Equal(t, "low", memories[2].Key)

	// Category filter.
	facts, err := client.GetMemories(ctx, store.CategoryFact, 10)
	require.NoError(t, err)
	assert.Len(t, facts, 2)

	// Limit <= 0 means everything.
	all, err := client.GetMemories(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteClient_Profiles(t *testing.T) {
	client := setupSQLiteTest(t)
	ctx := context.Background()

	_, err := client.GetProfile(ctx, "Hamed")
	assert.ErrorIs(t, err, store.ErrNotFound)

	profile := &store.Profile{
		Name:              "Hamed",
		Interests:         []string{"astronomy", "go"},
		PersonalityTraits: []string{"curious"},
		RelationshipLevel: 3,
		InteractionCount:  7,
	}
	require.NoError(t, client.SaveProfile(ctx, profile))

	loaded, err := client.GetProfile(ctx, "Hamed")
	require.NoError(t, err)
	assert.Equal(t, "Hamed", loaded.Name)
	assert.Equal(t, []string{"astronomy", "go"}, loaded.Interests)
	assert.Equal(t, []string{"curious"}, loaded.PersonalityTraits)
	assert.Equal(t, 3, loaded.RelationshipLevel)
	assert.Equal(t, 7, loaded.InteractionCount)

	// Saving a profile also registers the user in the directory.
	entries, err := client.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Hamed", entries[0].Name)
}

func TestSQLiteClient_CurrentUser(t *testing.T) {
	client := setupSQLiteTest(t)
	ctx := context.Background()

	name, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Empty(t, name)

	require.NoError(t, client.SetCurrentUser(ctx, "Hamed"))
	require.NoError(t, client.SetCurrentUser(ctx, "Sara"))

	name, err = client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sara", name)
}

func TestSQLiteClient_Lessons(t *testing.T) {
	client := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, client.SaveLesson(ctx, "WiFi Password", "the password is hunter2"))

	lessons, err := client.ListLessons(ctx)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	// Triggers are stored lowercased.
	assert.Equal(t, "wifi password", lessons[0].Trigger)
	assert.Equal(t, 0, lessons[0].UsageCount)

	require.NoError(t, client.IncrementLessonUsage(ctx, "WIFI PASSWORD"))
	require.NoError(t, client.IncrementLessonUsage(ctx, "wifi password"))

	lessons, err = client.ListLessons(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, lessons[0].UsageCount)

	// Re-teaching replaces the response.
	require.NoError(t, client.SaveLesson(ctx, "wifi password", "it changed"))
	lessons, err = client.ListLessons(ctx)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "it changed", lessons[0].Response)
}
