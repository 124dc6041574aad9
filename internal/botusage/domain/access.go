package domain

// AccessStatus is the three-tier gate decision over a usage record. The
// tiers let callers render "never provisioned", "exists but paused" and
// "quota exhausted" as distinct outcomes instead of one boolean.
type AccessStatus struct {
	HasAccess       bool   `json:"has_access"`
	IsActive        bool   `json:"is_active"`
	HasInteractions bool   `json:"has_interactions"`
	Reason          string `json:"reason,omitempty"`
}

// Allowed reports whether a billable action may proceed.
func (s AccessStatus) Allowed() bool {
	return s.HasAccess && s.IsActive && s.HasInteractions
}

// GetAccessStatus decides, before any billable action, whether the bot may
// respond. Pure function over a record or its absence; it never mutates
// state.
func GetAccessStatus(record *UsageRecord) AccessStatus {
	if record == nil || !record.Enabled {
		return AccessStatus{Reason: ReasonHostnameNotFound}
	}
	if !record.AllowBotAccess {
		return AccessStatus{Reason: ReasonBotDisabled}
	}
	if record.Status != StatusActive {
		return AccessStatus{HasAccess: true, Reason: ReasonBotDisabled}
	}
	if record.Interactions >= record.AvailableInteractions {
		return AccessStatus{HasAccess: true, IsActive: true, Reason: ReasonInteractionLimitExceeded}
	}
	return AccessStatus{HasAccess: true, IsActive: true, HasInteractions: true}
}
