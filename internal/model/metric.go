package model

import "time"

type MetricEvent struct {
	Time       time.Time         `json:"time"`
	MetricName string            `json:"metric_name"`
	Stream     string            `json:"stream"`
	Tags       map[string]string `json:"tags"`
}
