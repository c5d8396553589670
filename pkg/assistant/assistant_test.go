package assistant

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennec-ai/fennec/pkg/learn"
	"github.com/fennec-ai/fennec/pkg/llm"
	"github.com/fennec-ai/fennec/pkg/persona"
	"github.com/fennec-ai/fennec/pkg/session"
	"github.com/fennec-ai/fennec/pkg/store"
	sqliteStore "github.com/fennec-ai/fennec/pkg/store/sqlite"
	"github.com/fennec-ai/fennec/pkg/users"
	"github.com/fennec-ai/fennec/pkg/websearch"
)

// fakeProvider records the messages it was asked to complete.
type fakeProvider struct {
	calls    int
	received []llm.Message
	reply    string
	err      error
}

func (f *fakeProvider) Complete(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (string, error) {
	f.calls++
	f.received = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) Close() error { return nil }

// fakeSearch returns canned results for every query.
type fakeSearch struct {
	results []websearch.Result
}

func (f *fakeSearch) Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
	return f.results, nil
}

func setupAssistant(t *testing.T, provider llm.Provider) (*Assistant, *sqliteStore.Client) {
	t.Helper()

	client, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: filepath.Join(t.TempDir(), "fennec_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	a := &Assistant{
		store:    client,
		provider: provider,
		Sessions: session.NewManager(client, client),
		Users:    users.NewDirectory(client),
		Persona:  persona.NewSystem("Fennec"),
		Lessons:  learn.New(client),
	}
	return a, client
}

func TestAssistant_Respond(t *testing.T) {
	provider := &fakeProvider{reply: "سلام! چه خبر؟"}
	a, _ := setupAssistant(t, provider)
	ctx := context.Background()

	reply, err := a.Respond(ctx, "سلام چطوری امروز حالت خوبه؟")
	require.NoError(t, err)
	assert.Equal(t, "سلام! چه خبر؟", reply)
	assert.Equal(t, 1, provider.calls)

	// The persona prompt leads the assembled context.
	require.NotEmpty(t, provider.received)
	assert.Equal(t, store.RoleSystem, provider.received[0].Role)
	assert.Contains(t, provider.received[0].Content, "Fennec")

	// History ends with the newest user turn.
	last := provider.received[len(provider.received)-1]
	assert.Equal(t, store.RoleUser, last.Role)

	// Both turns were persisted.
	messages, err := a.Sessions.ContextMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, store.RoleAssistant, messages[1].Role)
}

func TestAssistant_RespondEmptyMessage(t *testing.T) {
	a, _ := setupAssistant(t, &fakeProvider{})

	_, err := a.Respond(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAssistant_LessonShortCircuitsModel(t *testing.T) {
	provider := &fakeProvider{reply: "should never be used"}
	a, _ := setupAssistant(t, provider)
	ctx := context.Background()

	require.NoError(t, a.Lessons.Teach(ctx, "wifi password", "hunter2"))

	reply, err := a.Respond(ctx, "what's the WiFi password?")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", reply)
	assert.Equal(t, 0, provider.calls)

	// The taught exchange still lands in history.
	messages, err := a.Sessions.ContextMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hunter2", messages[1].Content)
}

func TestAssistant_UpstreamFailureKeepsUserTurn(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	a, _ := setupAssistant(t, provider)
	ctx := context.Background()

	_, err := a.Respond(ctx, "this one will fail upstream")
	assert.ErrorIs(t, err, ErrUpstream)

	// The user's message survived the failure.
	messages, err := a.Sessions.ContextMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "this one will fail upstream", messages[0].Content)
}

func TestAssistant_SearchInjection(t *testing.T) {
	provider := &fakeProvider{reply: "based on the results..."}
	a, _ := setupAssistant(t, provider)
	a.search = &fakeSearch{results: []websearch.Result{
		{Title: "Dollar rate today", URL: "https://example.com", Snippet: "the rate is..."},
	}}
	a.detector = websearch.NewTriggerDetector(nil)

	ctx := context.Background()
	_, err := a.Respond(ctx, "جستجو کن قیمت دلار امروز چنده")
	require.NoError(t, err)

	// A system turn with the search digest precedes the completion.
	var found bool
	for _, m := range provider.received {
		if m.Role == store.RoleSystem && strings.Contains(m.Content, "Dollar rate today") {
			found = true
		}
	}
	assert.True(t, found)
}

// fakeStreamProvider feeds chunks from a channel that is never closed,
// like a provider mid-response.
type fakeStreamProvider struct {
	fakeProvider
	chunks chan llm.Chunk
}

func (f *fakeStreamProvider) CompleteStream(ctx context.Context, messages []llm.Message, opts ...llm.CompleteOption) (<-chan llm.Chunk, error) {
	return f.chunks, nil
}

func TestAssistant_RespondStreamStopsOnCancel(t *testing.T) {
	provider := &fakeStreamProvider{chunks: make(chan llm.Chunk, 3)}
	provider.chunks <- llm.Chunk{Content: "one "}
	provider.chunks <- llm.Chunk{Content: "two "}
	provider.chunks <- llm.Chunk{Content: "three"}

	a, _ := setupAssistant(t, provider)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := a.RespondStream(ctx, "tell me something long")
	require.NoError(t, err)

	first, ok := <-out
	require.True(t, ok)
	assert.Equal(t, "one ", first.Content)

	// Abandon the stream. With no reader present the forwarder has to
	// notice the cancellation and close out instead of blocking on the
	// send forever.
	cancel()
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		for range out {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream channel never closed after cancellation")
	}
}

func TestAssistant_RecordsInteraction(t *testing.T) {
	provider := &fakeProvider{reply: "hey!"}
	a, _ := setupAssistant(t, provider)
	ctx := context.Background()

	_, _, err := a.Users.Resolve(ctx, "Sara")
	require.NoError(t, err)

	_, err = a.Respond(ctx, "hello hello hello my friend")
	require.NoError(t, err)

	profile, err := a.Users.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.InteractionCount)
	assert.Equal(t, 1, profile.ArtificialExperience)
}
