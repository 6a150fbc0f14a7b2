package dto

import (
	"time"

	"one-ui-backend/internal/model"
)

type AuditSearchRequest struct {
	StartTime  time.Time
	EndTime    time.Time
	Query      string
	Categories []string
	Statuses   []string
	Actor      string
	ActorIP    string
	SortBy     string
	SortOrder  string
	Page       int
	Size       int
}

type AuditSearchResponse struct {
	Events     []model.AuditEvent `json:"events"`
	TotalCount int64              `json:"totalCount"`
	Page       int                `json:"page"`
	Size       int                `json:"size"`
}
