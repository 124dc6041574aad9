package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAccessStatusNoRecord(t *testing.T) {
	status := GetAccessStatus(nil)
	assert.False(t, status.HasAccess)
	assert.False(t, status.Allowed())
	assert.Equal(t, ReasonHostnameNotFound, status.Reason)
}

func TestGetAccessStatusAccessRevoked(t *testing.T) {
	status := GetAccessStatus(&UsageRecord{
		Enabled:               true,
		Status:                StatusActive,
		AvailableInteractions: 10,
	})
	assert.False(t, status.HasAccess)
	assert.Equal(t, ReasonBotDisabled, status.Reason)
}

func TestGetAccessStatusPaused(t *testing.T) {
	status := GetAccessStatus(&UsageRecord{
		Enabled:               true,
		Status:                StatusInactive,
		AllowBotAccess:        true,
		AvailableInteractions: 10,
	})
	assert.True(t, status.HasAccess)
	assert.False(t, status.IsActive)
	assert.False(t, status.Allowed())
}

func TestGetAccessStatusQuotaExhausted(t *testing.T) {
	status := GetAccessStatus(&UsageRecord{
		Enabled:               true,
		Status:                StatusActive,
		AllowBotAccess:        true,
		Interactions:          10,
		AvailableInteractions: 10,
	})
	assert.True(t, status.HasAccess)
	assert.True(t, status.IsActive)
	assert.False(t, status.HasInteractions)
	assert.Equal(t, ReasonInteractionLimitExceeded, status.Reason)
}

func TestGetAccessStatusPermitted(t *testing.T) {
	status := GetAccessStatus(&UsageRecord{
		Enabled:               true,
		Status:                StatusActive,
		AllowBotAccess:        true,
		Interactions:          9,
		AvailableInteractions: 10,
	})
	assert.True(t, status.Allowed())
	assert.Empty(t, status.Reason)
}
