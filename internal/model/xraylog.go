package model

import "time"

const (
	XrayLogKindAccess = "access"
	XrayLogKindError  = "error"
)

// XrayLogEntry is one parsed line from the xray-core access or error log.
// Access lines carry connection routing fields; error lines carry a level and
// free-form content. Raw always holds the original line.
type XrayLogEntry struct {
	Timestamp   time.Time `json:"@timestamp"`
	Kind        string    `json:"kind"`
	Level       string    `json:"level"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	User        string    `json:"user"`
	Inbound     string    `json:"inbound"`
	Outbound    string    `json:"outbound"`
	Content     string    `json:"content"`
	Raw         string    `json:"raw_log"`
}
