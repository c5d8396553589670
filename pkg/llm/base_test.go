package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fennec-ai/fennec/pkg/llm"
)

func TestApplyCompleteOptions_Defaults(t *testing.T) {
	opts := llm.ApplyCompleteOptions(nil)

	assert.Equal(t, 0.7, opts.Temperature)
	assert.Equal(t, 1000, opts.MaxTokens)
	assert.Equal(t, 1.0, opts.TopP)
	assert.Empty(t, opts.Stop)
}

func TestApplyCompleteOptions_Overrides(t *testing.T) {
	opts := llm.ApplyCompleteOptions([]llm.CompleteOption{
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(64),
		llm.WithTopP(0.9),
		llm.WithStop("\n"),
	})

	assert.Equal(t, 0.2, opts.Temperature)
	assert.Equal(t, 64, opts.MaxTokens)
	assert.Equal(t, 0.9, opts.TopP)
	assert.Equal(t, []string{"\n"}, opts.Stop)
}
