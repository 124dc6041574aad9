// Package usagelog persists a durable trail of widget activity. Entries
// are queued in memory and written in batches so the chat hot path never
// waits on the log table.
package usagelog

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Entry kinds.
const (
	KindTokenConsumption = "token_consumption"
	KindUserAccess       = "user_access"
)

// LogEntry is one persisted activity event.
type LogEntry struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Hostname   string            `gorm:"type:text;not null;index" json:"hostname"`
	Kind       string            `gorm:"type:text;not null" json:"kind"`
	UserID     string            `gorm:"type:text" json:"user_id"`
	Tokens     int64             `gorm:"not null;default:0" json:"tokens"`
	Details    datatypes.JSONMap `gorm:"type:jsonb" json:"details"`
	OccurredAt time.Time         `gorm:"not null" json:"occurred_at"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LogEntry) TableName() string { return "usage_logs" }
