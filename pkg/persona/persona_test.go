package persona_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennec-ai/fennec/pkg/persona"
	"github.com/fennec-ai/fennec/pkg/store"
)

func TestSystem_Defaults(t *testing.T) {
	sys := persona.NewSystem("Fennec")
	state := sys.State()

	assert.Equal(t, 5.0, state.Happiness)
	assert.Equal(t, 8.0, state.Friendliness)
	assert.Equal(t, 7.0, state.Curiosity)

	// Friendliness 8 is the strongest default emotion.
	assert.Equal(t, persona.Friendliness, sys.Dominant())
}

func TestSystem_AdjustClamps(t *testing.T) {
	sys := persona.NewSystem("Fennec")

	require.NoError(t, sys.Adjust(persona.Happiness, 100, false))
	assert.Equal(t, 10.0, sys.State().Happiness)

	require.NoError(t, sys.Adjust(persona.Happiness, -100, false))
	assert.Equal(t, 0.0, sys.State().Happiness)

	assert.Error(t, sys.Adjust("confidence", 1, false))
}

func TestSystem_SetAndReset(t *testing.T) {
	sys := persona.NewSystem("Fennec")

	require.NoError(t, sys.Set(persona.Seriousness, 9.5, false))
	assert.Equal(t, 9.5, sys.State().Seriousness)
	assert.Equal(t, persona.Seriousness, sys.Dominant())

	sys.Reset()
	assert.Equal(t, 5.0, sys.State().Seriousness)
}

func TestSystem_PermanentSetSurvivesReset(t *testing.T) {
	sys := persona.NewSystem("Fennec")

	require.NoError(t, sys.Set(persona.Humor, 9, true))
	sys.Reset()
	assert.Equal(t, 9.0, sys.State().Humor)
}

func TestSystem_AnalyzeInput(t *testing.T) {
	sys := persona.NewSystem("Fennec")

	applied := sys.AnalyzeInput("این خیلی بامزه بود 😂")
	assert.Equal(t, 0.5, applied[persona.Humor])
	assert.Equal(t, 6.5, sys.State().Humor)

	applied = sys.AnalyzeInput("یه مسئله جدی دارم")
	assert.Equal(t, 0.5, applied[persona.Seriousness])
	assert.Equal(t, 5.5, sys.State().Seriousness)

	applied = sys.AnalyzeInput("nothing emotional here")
	assert.Empty(t, applied)
}

func TestSystem_Prompt(t *testing.T) {
	sys := persona.NewSystem("Fennec")

	prompt := sys.Prompt(nil)
	assert.Contains(t, prompt, "Fennec")
	assert.Contains(t, prompt, "خوشحالی: 5.0/10")
	assert.Contains(t, prompt, persona.Friendliness)

	profile := &store.Profile{
		Name:              "Sara",
		RelationshipLevel: 7,
		Interests:         []string{"astronomy"},
	}
	prompt = sys.Prompt(profile)
	assert.Contains(t, prompt, "Sara")
	assert.Contains(t, prompt, "astronomy")
	// Close friends get the intimate register.
	assert.True(t, strings.Contains(prompt, "خودمونی"))
}
