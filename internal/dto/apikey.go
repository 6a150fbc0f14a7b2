package dto

import "one-ui-backend/internal/model"

type APIKeyCreateRequest struct {
	Name    string `json:"name" binding:"required"`
	Scope   string `json:"scope"` // admin | readonly, defaults to readonly
	TTLDays int    `json:"ttl_days"`
}

// APIKeyCreateResponse carries the plaintext token. It is never retrievable
// again; only the bcrypt hash is stored.
type APIKeyCreateResponse struct {
	Key    model.APIKey `json:"key"`
	Secret string       `json:"secret"`
}
