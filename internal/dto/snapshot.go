package dto

// StreamCounters are the summary tallies carried inside every snapshot frame.
type StreamCounters struct {
	Total  int64            `json:"total"`
	Levels map[string]int64 `json:"levels"`
	Kinds  map[string]int64 `json:"kinds"`
}

// StreamSnapshot is the payload of one SSE "snapshot" event: the raw lines in
// wire order, the structurally parsed entries for the same window, and the
// running counters. Entries is the per-stream entry slice (audit events or
// xray log entries).
type StreamSnapshot struct {
	Lines    []string       `json:"lines"`
	Entries  interface{}    `json:"entries"`
	Counters StreamCounters `json:"counters"`
}

// StreamErrorPayload is the payload of an SSE "error" event. Server-reported
// errors are informational; the stream stays up.
type StreamErrorPayload struct {
	Message string `json:"message"`
}

// StreamQuery is the filter set a stream subscriber sends as query
// parameters. Zero values mean "no filter"; Limit is clamped server-side.
type StreamQuery struct {
	Search string
	Level  string
	IP     string
	User   string
	Limit  int
}
