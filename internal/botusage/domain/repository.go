package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository isolates the raw SQL against the bot_usage table. Reads only
// see enabled rows except FindAnyByHostname, which the idempotent
// initialize path uses to re-enable a killed record.
type Repository interface {
	FindEnabledByHostname(ctx context.Context, db *gorm.DB, hostname string) (*UsageRecord, error)
	FindAnyByHostname(ctx context.Context, db *gorm.DB, hostname string) (*UsageRecord, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*UsageRecord, error)
	Insert(ctx context.Context, db *gorm.DB, record *UsageRecord) error
	// IncrementWithinQuota applies both deltas in one conditional UPDATE and
	// reports whether a row was touched. On a quota breach the row is left
	// unchanged.
	IncrementWithinQuota(ctx context.Context, db *gorm.DB, id snowflake.ID, tokens, interactions int64, now time.Time) (bool, error)
	ResetCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error
	SetEnabled(ctx context.Context, db *gorm.DB, id snowflake.ID, enabled bool, now time.Time) error
}
