package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/webchatkit/webchatkit/internal/botusage/domain"
	"gorm.io/gorm"
)

type usageRepo struct{}

func Provide() usagedomain.Repository {
	return &usageRepo{}
}

func (r *usageRepo) FindEnabledByHostname(ctx context.Context, db *gorm.DB, hostname string) (*usagedomain.UsageRecord, error) {
	var record usagedomain.UsageRecord
	err := db.WithContext(ctx).
		Where("hostname = ? AND enabled = ?", hostname, true).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *usageRepo) FindAnyByHostname(ctx context.Context, db *gorm.DB, hostname string) (*usagedomain.UsageRecord, error) {
	var record usagedomain.UsageRecord
	err := db.WithContext(ctx).
		Where("hostname = ?", hostname).
		Order("enabled DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *usageRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*usagedomain.UsageRecord, error) {
	var record usagedomain.UsageRecord
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *usageRepo) Insert(ctx context.Context, db *gorm.DB, record *usagedomain.UsageRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *usageRepo) IncrementWithinQuota(ctx context.Context, db *gorm.DB, id snowflake.ID, tokens, interactions int64, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE bot_usage
		 SET tokens_used = tokens_used + ?,
		     interactions = interactions + ?,
		     updated_at = ?
		 WHERE id = ?
		   AND enabled = ?
		   AND status = ?
		   AND interactions + ? <= available_interactions`,
		tokens,
		interactions,
		now,
		id,
		true,
		usagedomain.StatusActive,
		interactions,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *usageRepo) ResetCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bot_usage
		 SET tokens_used = 0,
		     interactions = 0,
		     updated_at = ?
		 WHERE id = ?`,
		now,
		id,
	).Error
}

func (r *usageRepo) SetEnabled(ctx context.Context, db *gorm.DB, id snowflake.ID, enabled bool, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bot_usage
		 SET enabled = ?,
		     updated_at = ?
		 WHERE id = ?`,
		enabled,
		now,
		id,
	).Error
}
