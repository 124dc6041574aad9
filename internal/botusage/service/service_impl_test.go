package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	usagedomain "github.com/webchatkit/webchatkit/internal/botusage/domain"
	usagerepo "github.com/webchatkit/webchatkit/internal/botusage/repository"
	usageservice "github.com/webchatkit/webchatkit/internal/botusage/service"
	"github.com/webchatkit/webchatkit/internal/cache"
	"github.com/webchatkit/webchatkit/internal/clock"
	"github.com/webchatkit/webchatkit/internal/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&usagedomain.UsageRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) usagedomain.Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return usageservice.NewService(usageservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg: config.Config{
			DefaultQuota:   1000000,
			DefaultBotName: "AI Assistant",
		},
		Repo:          usagerepo.Provide(),
		Clock:         clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		ResolverCache: cache.NewUsageResolverCache(),
	})
}

var seedNode, _ = snowflake.NewNode(2)

func seedRecord(t *testing.T, db *gorm.DB, record usagedomain.UsageRecord) usagedomain.UsageRecord {
	t.Helper()

	if record.ID == 0 {
		record.ID = seedNode.Generate()
	}
	if record.Status == "" {
		record.Status = usagedomain.StatusActive
	}
	require.NoError(t, db.Create(&record).Error)
	return record
}

func TestCheckAvailabilityUnknownHostname(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, setupTestDB(t))

	availability, err := svc.CheckAvailability(ctx, "nobody.example")
	require.NoError(t, err)
	assert.False(t, availability.Available)
	assert.Equal(t, usagedomain.ReasonHostnameNotFound, availability.Reason)
	assert.Nil(t, availability.Record)
}

func TestCheckAvailabilityHealthyRecord(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "acme.io",
		BotName:               "Acme Bot",
		Enabled:               true,
		Interactions:          10,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})

	availability, err := svc.CheckAvailability(ctx, "acme.io")
	require.NoError(t, err)
	assert.True(t, availability.Available)
	assert.Empty(t, availability.Reason)
	require.NotNil(t, availability.Record)
	assert.Equal(t, "acme.io", availability.Record.Hostname)
}

func TestCheckAvailabilityTiers(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "revoked.example",
		BotName:               "Bot",
		Enabled:               true,
		AvailableInteractions: 100,
		AllowBotAccess:        false,
	})
	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "paused.example",
		BotName:               "Bot",
		Enabled:               true,
		Status:                usagedomain.StatusInactive,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})
	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "exhausted.example",
		BotName:               "Bot",
		Enabled:               true,
		Interactions:          100,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})

	revoked, err := svc.CheckAvailability(ctx, "revoked.example")
	require.NoError(t, err)
	assert.False(t, revoked.Available)
	assert.Equal(t, usagedomain.ReasonBotDisabled, revoked.Reason)

	paused, err := svc.CheckAvailability(ctx, "paused.example")
	require.NoError(t, err)
	assert.False(t, paused.Available)
	assert.Equal(t, usagedomain.ReasonBotDisabled, paused.Reason)

	exhausted, err := svc.CheckAvailability(ctx, "exhausted.example")
	require.NoError(t, err)
	assert.False(t, exhausted.Available)
	assert.Equal(t, usagedomain.ReasonInteractionLimitExceeded, exhausted.Reason)
}

func TestCheckAvailabilityServesCachedRecord(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "acme.io",
		BotName:               "Acme Bot",
		Enabled:               true,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})

	first, err := svc.CheckAvailability(ctx, "acme.io")
	require.NoError(t, err)
	require.True(t, first.Available)

	// The row vanishing out from under the service must not be visible
	// until the record TTL lapses or a local write invalidates it.
	require.NoError(t, db.Exec("DELETE FROM bot_usage").Error)

	second, err := svc.CheckAvailability(ctx, "acme.io")
	require.NoError(t, err)
	assert.True(t, second.Available)
	require.NotNil(t, second.Record)
	assert.Equal(t, "acme.io", second.Record.Hostname)
}

func TestIncrementUsageInvalidatesCachedRecord(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "acme.io",
		BotName:               "Acme Bot",
		Enabled:               true,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})

	// Prime the record cache, then write through the service. The
	// follow-up read must see the new counters, not the cached copy.
	_, err := svc.CheckAvailability(ctx, "acme.io")
	require.NoError(t, err)

	_, err = svc.IncrementUsage(ctx, usagedomain.IncrementRequest{
		Hostname:     "acme.io",
		Tokens:       42,
		Interactions: 1,
	})
	require.NoError(t, err)

	record, err := svc.GetUsage(ctx, "acme.io")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int64(1), record.Interactions)
	assert.Equal(t, int64(42), record.TokensUsed)
}

func TestResetUsageInvalidatesCachedRecord(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "acme.io",
		BotName:               "Acme Bot",
		Enabled:               true,
		Interactions:          50,
		TokensUsed:            5000,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})

	_, err := svc.GetUsage(ctx, "acme.io")
	require.NoError(t, err)

	_, err = svc.ResetUsage(ctx, "acme.io")
	require.NoError(t, err)

	record, err := svc.GetUsage(ctx, "acme.io")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Zero(t, record.Interactions)
	assert.Zero(t, record.TokensUsed)
}

func TestIncrementUsageAppliesExactDeltas(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "acme.io",
		BotName:               "Bot",
		Enabled:               true,
		TokensUsed:            500,
		Interactions:          3,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})

	updated, err := svc.IncrementUsage(ctx, usagedomain.IncrementRequest{
		Hostname:     "acme.io",
		Tokens:       42,
		Interactions: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(542), updated.TokensUsed)
	assert.Equal(t, int64(4), updated.Interactions)

	fetched, err := svc.GetUsage(ctx, "acme.io")
	require.NoError(t, err)
	assert.Equal(t, int64(542), fetched.TokensUsed)
	assert.Equal(t, int64(4), fetched.Interactions)
}

func TestIncrementUsageRejectsNegativeDeltas(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, setupTestDB(t))

	_, err := svc.IncrementUsage(ctx, usagedomain.IncrementRequest{
		Hostname:     "acme.io",
		Tokens:       -1,
		Interactions: 1,
	})
	assert.ErrorIs(t, err, usagedomain.ErrInvalidIncrement)
}

func TestIncrementUsageUnknownHostname(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, setupTestDB(t))

	_, err := svc.IncrementUsage(ctx, usagedomain.IncrementRequest{
		Hostname:     "nobody.example",
		Tokens:       10,
		Interactions: 1,
	})
	assert.ErrorIs(t, err, usagedomain.ErrHostnameNotFound)
}

func TestIncrementUsageQuotaBreachLeavesRecordUnchanged(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "acme.io",
		BotName:               "Bot",
		Enabled:               true,
		TokensUsed:            900,
		Interactions:          99,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})

	// 99 -> 100 sits exactly at the ceiling and must be accepted.
	availability, err := svc.CheckAvailability(ctx, "acme.io")
	require.NoError(t, err)
	assert.True(t, availability.Available)

	updated, err := svc.IncrementUsage(ctx, usagedomain.IncrementRequest{
		Hostname:     "acme.io",
		Tokens:       50,
		Interactions: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), updated.Interactions)
	assert.Equal(t, int64(950), updated.TokensUsed)

	// The next turn would push past the ceiling; the row must not move.
	_, err = svc.IncrementUsage(ctx, usagedomain.IncrementRequest{
		Hostname:     "acme.io",
		Tokens:       10,
		Interactions: 1,
	})
	assert.ErrorIs(t, err, usagedomain.ErrInteractionLimitExceeded)

	fetched, err := svc.GetUsage(ctx, "acme.io")
	require.NoError(t, err)
	assert.Equal(t, int64(100), fetched.Interactions)
	assert.Equal(t, int64(950), fetched.TokensUsed)
}

func TestResetUsageZeroesCounters(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "acme.io",
		BotName:               "Bot",
		Enabled:               true,
		TokensUsed:            12345,
		Interactions:          88,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})

	record, err := svc.ResetUsage(ctx, "acme.io")
	require.NoError(t, err)
	assert.Equal(t, int64(0), record.TokensUsed)
	assert.Equal(t, int64(0), record.Interactions)
	assert.Equal(t, int64(100), record.AvailableInteractions)
}

func TestHostnameVariantLookup(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "example.com",
		BotName:               "Bot",
		Enabled:               true,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})
	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "www.widget.example",
		BotName:               "Bot",
		Enabled:               true,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})

	bare, err := svc.GetUsage(ctx, "www.example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", bare.Hostname)

	prefixed, err := svc.GetUsage(ctx, "widget.example")
	require.NoError(t, err)
	assert.Equal(t, "www.widget.example", prefixed.Hostname)
}

func TestIncrementUsageThroughVariant(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "example.com",
		BotName:               "Bot",
		Enabled:               true,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})

	updated, err := svc.IncrementUsage(ctx, usagedomain.IncrementRequest{
		Hostname:     "www.example.com",
		Tokens:       7,
		Interactions: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "example.com", updated.Hostname)
	assert.Equal(t, int64(7), updated.TokensUsed)
	assert.Equal(t, int64(1), updated.Interactions)
}

func TestInitializeUsageIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	first, err := svc.InitializeUsage(ctx, usagedomain.InitializeRequest{Hostname: "Fresh.Example"})
	require.NoError(t, err)
	assert.Equal(t, "fresh.example", first.Hostname)
	assert.Equal(t, "AI Assistant", first.BotName)
	assert.True(t, first.Enabled)
	assert.Equal(t, usagedomain.StatusActive, first.Status)
	assert.Equal(t, int64(1000000), first.AvailableInteractions)
	assert.Equal(t, int64(0), first.Interactions)

	second, err := svc.InitializeUsage(ctx, usagedomain.InitializeRequest{Hostname: "fresh.example"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&usagedomain.UsageRecord{}).Where("hostname = ?", "fresh.example").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestInitializeUsageReenablesKilledRecord(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestService(t, db)

	seeded := seedRecord(t, db, usagedomain.UsageRecord{
		Hostname:              "killed.example",
		BotName:               "Bot",
		Enabled:               false,
		TokensUsed:            10,
		Interactions:          2,
		AvailableInteractions: 100,
		AllowBotAccess:        true,
	})

	record, err := svc.InitializeUsage(ctx, usagedomain.InitializeRequest{Hostname: "killed.example"})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, record.ID)
	assert.True(t, record.Enabled)
	// Counters survive a re-enable; only an explicit reset zeroes them.
	assert.Equal(t, int64(10), record.TokensUsed)
	assert.Equal(t, int64(2), record.Interactions)
}

func TestGetUsageInvalidHostname(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, setupTestDB(t))

	_, err := svc.GetUsage(ctx, "   ")
	assert.ErrorIs(t, err, usagedomain.ErrInvalidHostname)
}
