package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentfleet/tokengate/pkg/tokenizer"
)

func TestEstimateTokens_KnownModels(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		model    string
		minCount int64
		maxCount int64
	}{
		{"short text gpt-4o", "Hello world", "gpt-4o", 1, 5},
		{"medium text gpt-4o", "The quick brown fox jumps over the lazy dog", "gpt-4o", 5, 15},
		{"empty text", "", "gpt-4o", 0, 0},
		{"gpt-4", "Hello world", "gpt-4", 1, 5},
		{"gpt-3.5-turbo", "Hello world", "gpt-3.5-turbo", 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := tokenizer.EstimateTokens(tt.text, tt.model)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, count, tt.minCount)
			assert.LessOrEqual(t, count, tt.maxCount)
		})
	}
}

func TestEstimateTokens_UnknownModelUsesChars(t *testing.T) {
	text := "Hello, this is a test message for token counting."
	count, err := tokenizer.EstimateTokens(text, "claude-sonnet")
	require.NoError(t, err)
	assert.Equal(t, int64((len(text)+3)/4), count)
}

func TestEstimateTokens_WhitespaceOnly(t *testing.T) {
	count, err := tokenizer.EstimateTokens("   ", "claude-sonnet")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestEstimateChatTokens(t *testing.T) {
	messages := []map[string]string{
		{"role": "user", "content": "Hello"},
		{"role": "assistant", "content": "Hi there"},
	}
	count, err := tokenizer.EstimateChatTokens(messages, "claude-sonnet")
	require.NoError(t, err)

	// 2 messages * 4 overhead + 2 priming, plus the content itself.
	assert.Greater(t, count, int64(10))
}
