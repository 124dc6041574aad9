// Package domain defines the accounted chat turn contract: resolve the
// site, gate it, obtain the reply, then commit the usage counters.
package domain

import (
	"context"
	"errors"

	"github.com/webchatkit/webchatkit/internal/providers/llm"
)

type ChatRequest struct {
	Hostname     string        `json:"hostname"`
	Message      string        `json:"message"`
	History      []llm.Message `json:"conversation_history"`
	SessionToken string        `json:"session_token,omitempty"`
	Language     string        `json:"language,omitempty"`
}

type ChatResponse struct {
	Reply         string `json:"reply"`
	Language      string `json:"language"`
	TokensUsed    int64  `json:"tokens_used"`
	CostEstimated bool   `json:"cost_estimated"`
	// RemainingInteractions is best-effort when accounting could not be
	// recorded.
	RemainingInteractions int64 `json:"remaining_interactions"`
	// AccountingRecorded is false when the reply was produced but the
	// usage write failed on transport; under-counting is accepted.
	AccountingRecorded bool `json:"accounting_recorded"`
}

type Service interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

var (
	ErrMissingMessage = errors.New("missing_message")
	ErrRateLimited    = errors.New("rate_limited")
)
