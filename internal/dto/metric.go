package dto

import "time"

type MetricSummaryRequest struct {
	StartTime time.Time
	EndTime   time.Time
	Streams   []string
}

type MetricSummaryResponse struct {
	TotalConnections int64 `json:"totalConnections"`
	TotalErrors      int64 `json:"totalErrors"`
	DistinctUsers    int64 `json:"distinctUsers"`
}

type SortOptions struct {
	Field string `json:"field"`
	Order string `json:"order"` // asc | desc
}

type MetricTimeseriesRequest struct {
	StartTime  time.Time
	EndTime    time.Time
	Streams    []string
	MetricName string // connection_event | error_event
	Interval   string // e.g. "5 minute", "1 hour"
	GroupBy    string // status | level | user | inbound | outbound | error_key | stream | total
	Sort       *SortOptions
	Limit      *int
}

type TimeseriesDataPoint struct {
	Timestamp int64 `json:"timestamp"` // epoch milliseconds
	Value     int64 `json:"value"`
}

type TimeseriesSeries struct {
	Name string                `json:"name"`
	Data []TimeseriesDataPoint `json:"data"`
}

type MetricTimeseriesResponse struct {
	Series []TimeseriesSeries `json:"series"`
}

type UserListRequest struct {
	StartTime time.Time
	EndTime   time.Time
}

type UserListResponse struct {
	Users []string `json:"users"`
}

type MetricDistributionRequest struct {
	StartTime  time.Time
	EndTime    time.Time
	Streams    []string
	MetricName string
	Dimension  string // status | level | user | inbound | outbound | error_key
}

type DistributionDataPoint struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

type MetricDistributionResponse struct {
	MetricName   string                  `json:"metricName"`
	Dimension    string                  `json:"dimension"`
	Distribution []DistributionDataPoint `json:"distribution"`
}
