// Package domain contains persistence models and contracts for per-site
// bot usage accounting.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Bot operational states, independent of the enabled kill switch.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// UsageRecord tracks one deployed website's quota consumption. The
// normalized hostname is the natural key; it is unique among enabled rows.
type UsageRecord struct {
	ID                    snowflake.ID `gorm:"primaryKey" json:"id"`
	Hostname              string       `gorm:"type:text;not null;index" json:"hostname"`
	BotID                 string       `gorm:"type:text" json:"bot_id"`
	BotName               string       `gorm:"type:text;not null" json:"bot_name"`
	Enabled               bool         `gorm:"not null" json:"enabled"`
	Status                string       `gorm:"type:text;not null;default:'active'" json:"status"`
	TokensUsed            int64        `gorm:"not null;default:0" json:"tokens_used"`
	Interactions          int64        `gorm:"not null;default:0" json:"interactions"`
	AvailableInteractions int64        `gorm:"not null" json:"available_interactions"`
	AllowBotAccess        bool         `gorm:"not null" json:"allow_bot_access"`
	CreatedAt             time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "bot_usage" }
