// ABOUTME: Raw and normalized sample types crossing the provider boundary.
// ABOUTME: Raw samples are ephemeral inputs; only normalized values persist.
package models

import "time"

// RawSample is a single sample as returned by a native health provider.
type RawSample struct {
	MetricType MetricType `json:"metric_type"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit,omitempty"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	SourceName string     `json:"source_name,omitempty"`
}

// RawHealthData groups the raw samples fetched for one window.
type RawHealthData struct {
	Start   time.Time
	End     time.Time
	Samples []RawSample
}

// NormalizedMetric is one validated, unit-normalized value derived from raw
// samples. Produced by a single pass over the raw data; not restartable.
type NormalizedMetric struct {
	MetricType MetricType
	Value      float64
	Unit       string
	RecordedAt time.Time
}
