package model

import "time"

// Audit categories. Connection events come from the xray access log, the rest
// from panel mutations.
const (
	AuditCategoryAuth       = "auth"
	AuditCategorySettings   = "settings"
	AuditCategoryGroups     = "groups"
	AuditCategoryKeys       = "keys"
	AuditCategoryBackup     = "backup"
	AuditCategoryXray       = "xray"
	AuditCategoryConnection = "connection"
)

const (
	AuditStatusSuccess = "success"
	AuditStatusDenied  = "denied"
	AuditStatusFailure = "failure"
)

type AuditEvent struct {
	Timestamp time.Time `json:"@timestamp"`
	Category  string    `json:"category"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	ActorIP   string    `json:"actor_ip"`
	Target    string    `json:"target"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail"`
	RequestID string    `json:"request_id"`
}
