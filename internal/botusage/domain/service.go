package domain

import (
	"context"
	"errors"
)

type IncrementRequest struct {
	Hostname     string `json:"hostname"`
	Tokens       int64  `json:"tokens"`
	Interactions int64  `json:"interactions"`
}

type InitializeRequest struct {
	Hostname string `json:"hostname"`
	BotID    string `json:"bot_id"`
	BotName  string `json:"bot_name"`
}

// Availability is the read-only gate result surfaced to callers.
type Availability struct {
	Available bool         `json:"available"`
	Reason    string       `json:"reason,omitempty"`
	Record    *UsageRecord `json:"record,omitempty"`
}

type Service interface {
	GetUsage(ctx context.Context, hostname string) (*UsageRecord, error)
	CheckAvailability(ctx context.Context, hostname string) (Availability, error)
	IncrementUsage(ctx context.Context, req IncrementRequest) (*UsageRecord, error)
	ResetUsage(ctx context.Context, hostname string) (*UsageRecord, error)
	InitializeUsage(ctx context.Context, req InitializeRequest) (*UsageRecord, error)
}

var (
	ErrInvalidHostname          = errors.New("invalid_hostname")
	ErrInvalidIncrement         = errors.New("invalid_increment")
	ErrHostnameNotFound         = errors.New("hostname_not_found")
	ErrBotDisabled              = errors.New("bot_disabled")
	ErrInteractionLimitExceeded = errors.New("interaction_limit_exceeded")
)

// Gate reasons reported through Availability.Reason.
const (
	ReasonHostnameNotFound         = "hostname_not_found"
	ReasonBotDisabled              = "bot_disabled"
	ReasonInteractionLimitExceeded = "interaction_limit_exceeded"
)
