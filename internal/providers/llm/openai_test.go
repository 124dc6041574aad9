package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webchatkit/webchatkit/internal/config"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T, baseURL string, opts func(*config.OpenAIConfig)) *OpenAIProvider {
	t.Helper()

	cfg := config.OpenAIConfig{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		ChatModel:   "gpt-4o",
		MaxTokens:   1000,
		Temperature: 0.8,
	}
	if opts != nil {
		opts(&cfg)
	}
	return NewOpenAI(cfg, zap.NewNop())
}

func TestCompleteUsesProviderTokenCount(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Hello there!"}},
			},
			"usage": map[string]any{"prompt_tokens": 20, "completion_tokens": 8, "total_tokens": 28},
		})
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL, nil)
	completion, err := provider.Complete(context.Background(), CompletionRequest{
		Message: "Hi",
		History: []Message{
			{Role: RoleUser, Content: "earlier question"},
			{Role: RoleAssistant, Content: "earlier answer"},
			{Role: "tool", Content: "dropped"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", completion.Reply)
	assert.Equal(t, int64(28), completion.TokensUsed)
	assert.False(t, completion.CostEstimated)

	assert.Equal(t, "gpt-4o", captured.Model)
	assert.Equal(t, 0.8, captured.Temperature)
	assert.Equal(t, 1000, captured.MaxTokens)
	// History keeps only user/assistant turns; the new message comes last.
	require.Len(t, captured.Messages, 3)
	assert.Equal(t, RoleUser, captured.Messages[0].Role)
	assert.Equal(t, "Hi", captured.Messages[2].Content)
}

func TestCompleteFallsBackToEstimate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "A reply without usage data"}},
			},
		})
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL, nil)
	completion, err := provider.Complete(context.Background(), CompletionRequest{Message: "Hi"})
	require.NoError(t, err)
	assert.True(t, completion.CostEstimated)
	assert.Equal(t, EstimateTokens("Hi"+"A reply without usage data"), completion.TokensUsed)
}

func TestCompleteIncludesSystemPromptAndLanguage(t *testing.T) {
	dir := t.TempDir()
	instructions := filepath.Join(dir, "instructions.md")
	knowledge := filepath.Join(dir, "knowledge.md")
	require.NoError(t, os.WriteFile(instructions, []byte("You are a helpful assistant."), 0o600))
	require.NoError(t, os.WriteFile(knowledge, []byte("The product costs 10."), 0o600))

	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "ok"}},
			},
			"usage": map[string]any{"total_tokens": 5},
		})
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL, func(cfg *config.OpenAIConfig) {
		cfg.InstructionsPath = instructions
		cfg.KnowledgePath = knowledge
	})
	_, err := provider.Complete(context.Background(), CompletionRequest{Message: "Oi", Language: "pt"})
	require.NoError(t, err)

	require.NotEmpty(t, captured.Messages)
	system := captured.Messages[0]
	assert.Equal(t, RoleSystem, system.Role)
	assert.Contains(t, system.Content, "You are a helpful assistant.")
	assert.Contains(t, system.Content, "The product costs 10.")
	assert.Contains(t, system.Content, "pt")
}

func TestCompleteErrors(t *testing.T) {
	provider := newTestProvider(t, "http://127.0.0.1:0", nil)

	_, err := provider.Complete(context.Background(), CompletionRequest{Message: "   "})
	assert.ErrorIs(t, err, ErrMissingMessage)

	provider = newTestProvider(t, "http://127.0.0.1:0", func(cfg *config.OpenAIConfig) { cfg.APIKey = "" })
	_, err = provider.Complete(context.Background(), CompletionRequest{Message: "hi"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCompleteUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL, nil)
	_, err := provider.Complete(context.Background(), CompletionRequest{Message: "hi"})
	assert.Error(t, err)
}

func TestCompleteEmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL, nil)
	_, err := provider.Complete(context.Background(), CompletionRequest{Message: "hi"})
	assert.ErrorIs(t, err, ErrEmptyReply)
}
