package users_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennec-ai/fennec/pkg/store"
	sqliteStore "github.com/fennec-ai/fennec/pkg/store/sqlite"
	"github.com/fennec-ai/fennec/pkg/users"
)

func setupDirectory(t *testing.T) *users.Directory {
	t.Helper()

	client, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: filepath.Join(t.TempDir(), "fennec_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return users.NewDirectory(client)
}

func TestDirectory_ResolveCreatesStranger(t *testing.T) {
	dir := setupDirectory(t)
	ctx := context.Background()

	profile, created, err := dir.Resolve(ctx, "Sara")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Sara", profile.Name)
	assert.Equal(t, 0, profile.RelationshipLevel)

	// The resolved user is now active.
	current, err := dir.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sara", current.Name)

	// Resolving again finds the existing profile.
	_, created, err = dir.Resolve(ctx, "Sara")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestDirectory_CurrentWithoutUser(t *testing.T) {
	dir := setupDirectory(t)

	_, err := dir.Current(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDirectory_SwitchChangesActiveUser(t *testing.T) {
	dir := setupDirectory(t)
	ctx := context.Background()

	_, _, err := dir.Resolve(ctx, "Sara")
	require.NoError(t, err)
	_, _, err = dir.Switch(ctx, "Reza")
	require.NoError(t, err)

	current, err := dir.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Reza", current.Name)

	entries, err := dir.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestDirectory_SuggestSwitch(t *testing.T) {
	dir := setupDirectory(t)
	ctx := context.Background()

	_, _, err := dir.Resolve(ctx, "Sara")
	require.NoError(t, err)

	// A different name in an introduction suggests a switch.
	name, ok := dir.SuggestSwitch(ctx, "my name is Reza")
	assert.True(t, ok)
	assert.Equal(t, "Reza", name)

	// The active user introducing themselves again does not.
	_, ok = dir.SuggestSwitch(ctx, "my name is Sara")
	assert.False(t, ok)

	// Plain chat does not.
	_, ok = dir.SuggestSwitch(ctx, "what's the weather like")
	assert.False(t, ok)
}
