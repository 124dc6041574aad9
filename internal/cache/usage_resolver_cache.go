package cache

import (
	"strings"
	"time"

	usagedomain "github.com/webchatkit/webchatkit/internal/botusage/domain"
)

const (
	defaultRecordTTL  = 15 * time.Second
	defaultVariantTTL = 10 * time.Minute
)

// UsageResolverCache stores hot-path lookups for the availability gate.
// Records are cached briefly so quota checks stay close to the store;
// hostname variant resolutions are stable and cached longer.
type UsageResolverCache interface {
	GetRecord(hostname string) (usagedomain.UsageRecord, bool)
	SetRecord(hostname string, record usagedomain.UsageRecord)
	InvalidateRecord(hostname string)
	GetVariant(hostname string) (string, bool)
	SetVariant(hostname, resolved string)
}

type usageResolverCache struct {
	records    Cache[string, usagedomain.UsageRecord]
	variants   Cache[string, string]
	recordTTL  time.Duration
	variantTTL time.Duration
}

// NewUsageResolverCache returns an in-memory cache tuned for availability checks.
func NewUsageResolverCache() UsageResolverCache {
	return &usageResolverCache{
		records:    NewTTLCache[string, usagedomain.UsageRecord](),
		variants:   NewTTLCache[string, string](),
		recordTTL:  defaultRecordTTL,
		variantTTL: defaultVariantTTL,
	}
}

func (c *usageResolverCache) GetRecord(hostname string) (usagedomain.UsageRecord, bool) {
	return c.records.Get(cacheKey(hostname))
}

func (c *usageResolverCache) SetRecord(hostname string, record usagedomain.UsageRecord) {
	if record.ID == 0 {
		return
	}
	c.records.Set(cacheKey(hostname), record, c.recordTTL)
}

func (c *usageResolverCache) InvalidateRecord(hostname string) {
	c.records.Delete(cacheKey(hostname))
}

func (c *usageResolverCache) GetVariant(hostname string) (string, bool) {
	return c.variants.Get(cacheKey(hostname))
}

func (c *usageResolverCache) SetVariant(hostname, resolved string) {
	if strings.TrimSpace(resolved) == "" {
		return
	}
	c.variants.Set(cacheKey(hostname), resolved, c.variantTTL)
}

func cacheKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
