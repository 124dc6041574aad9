package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/webchatkit/webchatkit/internal/config"
	"go.uber.org/zap"
)

type OpenAIProvider struct {
	cfg    config.OpenAIConfig
	log    *zap.Logger
	client *http.Client

	promptOnce   sync.Once
	systemPrompt string
}

func NewOpenAI(cfg config.OpenAIConfig, log *zap.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		cfg:    cfg,
		log:    log.Named("providers.llm"),
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrMissingMessage
	}
	if p.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	messages := p.buildMessages(req)
	payload, err := json.Marshal(chatCompletionRequest{
		Model:       p.cfg.ChatModel,
		Messages:    messages,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(p.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("completion_failed_status_%d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyReply
	}

	reply := completion.Choices[0].Message.Content
	result := &Completion{
		Reply:      reply,
		TokensUsed: completion.Usage.TotalTokens,
		Model:      completion.Model,
	}
	if result.TokensUsed <= 0 {
		result.TokensUsed = EstimateTokens(req.Message + reply)
		result.CostEstimated = true
		p.log.Warn("provider returned no token usage, falling back to estimate",
			zap.Int64("estimated_tokens", result.TokensUsed))
	}
	return result, nil
}

// buildMessages assembles the conversation: system prompt first, then the
// prior turns, then the new user message.
func (p *OpenAIProvider) buildMessages(req CompletionRequest) []Message {
	messages := make([]Message, 0, len(req.History)+2)

	system := p.loadSystemPrompt()
	if req.Language != "" {
		system = strings.TrimSpace(system + "\n\nRespond in the following language: " + req.Language)
	}
	if system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: system})
	}
	for _, turn := range req.History {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			continue
		}
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		messages = append(messages, turn)
	}
	return append(messages, Message{Role: RoleUser, Content: req.Message})
}

// loadSystemPrompt merges the instruction and knowledge documents once.
// Missing files are tolerated; the prompt is simply shorter.
func (p *OpenAIProvider) loadSystemPrompt() string {
	p.promptOnce.Do(func() {
		var parts []string
		for _, path := range []string{p.cfg.InstructionsPath, p.cfg.KnowledgePath} {
			if path == "" {
				continue
			}
			content, err := os.ReadFile(path)
			if err != nil {
				p.log.Warn("system prompt document unavailable",
					zap.String("path", path), zap.Error(err))
				continue
			}
			if text := strings.TrimSpace(string(content)); text != "" {
				parts = append(parts, text)
			}
		}
		p.systemPrompt = strings.Join(parts, "\n\n")
	})
	return p.systemPrompt
}

// EstimateTokens approximates a token count as one token per four
// characters.
func EstimateTokens(text string) int64 {
	estimate := int64(len(text) / 4)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}
