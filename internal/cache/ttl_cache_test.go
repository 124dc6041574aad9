package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	usagedomain "github.com/webchatkit/webchatkit/internal/botusage/domain"
)

func TestTTLCacheSetGetDelete(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	value, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, value)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheExpiresEntries(t *testing.T) {
	c := NewTTLCache[string, string]()

	c.Set("a", "stale", time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewTTLCache[string, string]()

	c.Set("a", "pinned", 0)
	value, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "pinned", value)
}

func TestUsageResolverCacheRejectsUnsavedRecords(t *testing.T) {
	c := NewUsageResolverCache()

	c.SetRecord("acme.io", usagedomain.UsageRecord{Hostname: "acme.io"})
	_, ok := c.GetRecord("acme.io")
	assert.False(t, ok)

	c.SetRecord("acme.io", usagedomain.UsageRecord{ID: 7, Hostname: "acme.io"})
	record, ok := c.GetRecord("acme.io")
	require.True(t, ok)
	assert.Equal(t, "acme.io", record.Hostname)
}

func TestUsageResolverCacheKeyIsCaseInsensitive(t *testing.T) {
	c := NewUsageResolverCache()

	c.SetVariant("WWW.Acme.io", "acme.io")
	resolved, ok := c.GetVariant("www.acme.io")
	require.True(t, ok)
	assert.Equal(t, "acme.io", resolved)
}
