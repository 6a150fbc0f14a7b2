package dto

import "encoding/json"

type XrayStatusResponse struct {
	Running       bool   `json:"running"`
	PID           int    `json:"pid,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Version       string `json:"version,omitempty"`
	ConfigPath    string `json:"config_path"`
	LastExitError string `json:"last_exit_error,omitempty"`
}

// XrayConfigUpdateRequest replaces the active config. With DryRun the config
// is validated only. A failed apply rolls back to the previous config.
type XrayConfigUpdateRequest struct {
	Config json.RawMessage `json:"config" binding:"required"`
	DryRun bool            `json:"dry_run"`
}
