package model

import "time"

// Group is a user group with its access policy. Rollout fields drive staged
// policy changes: a pending policy document plus the instant it goes live.
type Group struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Name        string     `gorm:"uniqueIndex;size:128" json:"name"`
	InboundTag  string     `gorm:"size:64" json:"inbound_tag"`
	Protocols   string     `gorm:"size:256" json:"protocols"` // comma separated: vless,vmess,trojan
	QuotaGB     int        `json:"quota_gb"`
	ExpiryDays  int        `json:"expiry_days"`
	Enabled     bool       `json:"enabled"`
	Note        string     `gorm:"size:512" json:"note"`
	PendingJSON string     `gorm:"type:text" json:"-"`
	RolloutAt   *time.Time `json:"rollout_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// APIKey stores only the bcrypt hash of the secret. The plaintext is shown
// exactly once, at creation time. Prefix is the lookup handle carried inside
// the presented token.
type APIKey struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Name       string     `gorm:"size:128" json:"name"`
	Prefix     string     `gorm:"uniqueIndex;size:16" json:"prefix"`
	SecretHash string     `gorm:"size:128" json:"-"`
	Scope      string     `gorm:"size:32" json:"scope"` // admin | readonly
	Revoked    bool       `json:"revoked"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Setting is one typed settings document (branding, security, telegram,
// backup) stored as its JSON encoding.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BackupRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	FileName  string    `gorm:"size:256" json:"file_name"`
	Path      string    `gorm:"size:512" json:"-"`
	SizeBytes int64     `json:"size_bytes"`
	Trigger   string    `gorm:"size:16" json:"trigger"` // manual | scheduled
	Status    string    `gorm:"size:16" json:"status"`  // ok | failed
	Detail    string    `gorm:"size:512" json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
