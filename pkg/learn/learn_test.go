package learn_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennec-ai/fennec/pkg/learn"
	sqliteStore "github.com/fennec-ai/fennec/pkg/store/sqlite"
)

func setupLessons(t *testing.T) *learn.Lessons {
	t.Helper()

	client, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: filepath.Join(t.TempDir(), "fennec_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return learn.New(client)
}

func TestLessons_TeachValidation(t *testing.T) {
	lessons := setupLessons(t)
	ctx := context.Background()

	assert.Error(t, lessons.Teach(ctx, "", "a reply"))
	assert.Error(t, lessons.Teach(ctx, "a trigger", "  "))
	assert.NoError(t, lessons.Teach(ctx, "  wifi  ", "hunter2"))
}

func TestLessons_LookupSubstringCaseInsensitive(t *testing.T) {
	lessons := setupLessons(t)
	ctx := context.Background()

	require.NoError(t, lessons.Teach(ctx, "wifi password", "the password is hunter2"))

	reply, ok, err := lessons.Lookup(ctx, "hey, what was the WiFi Password again?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "the password is hunter2", reply)

	_, ok, err = lessons.Lookup(ctx, "unrelated question")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLessons_LookupIncrementsUsage(t *testing.T) {
	lessons := setupLessons(t)
	ctx := context.Background()

	require.NoError(t, lessons.Teach(ctx, "رمز وای فای", "fennec1234"))

	_, ok, err := lessons.Lookup(ctx, "رمز وای فای چی بود؟")
	require.NoError(t, err)
	require.True(t, ok)

	stats, err := lessons.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.LessonCount)
	assert.Equal(t, 1, stats.TotalUsage)
}

func TestLessons_LongestTriggerWins(t *testing.T) {
	lessons := setupLessons(t)
	ctx := context.Background()

	require.NoError(t, lessons.Teach(ctx, "password", "which password?"))
	require.NoError(t, lessons.Teach(ctx, "wifi password", "hunter2"))

	reply, ok, err := lessons.Lookup(ctx, "what's the wifi password?")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hunter2", reply)
}
