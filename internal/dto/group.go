package dto

import "time"

type GroupUpsertRequest struct {
	Name       string   `json:"name" binding:"required"`
	InboundTag string   `json:"inbound_tag"`
	Protocols  []string `json:"protocols"`
	QuotaGB    int      `json:"quota_gb"`
	ExpiryDays int      `json:"expiry_days"`
	Enabled    *bool    `json:"enabled"`
	Note       string   `json:"note"`
}

// GroupRolloutRequest stages a policy change: the new policy document plus
// when it should go live. A zero RolloutAt applies immediately.
type GroupRolloutRequest struct {
	Policy    GroupUpsertRequest `json:"policy" binding:"required"`
	RolloutAt *time.Time         `json:"rollout_at"`
}
