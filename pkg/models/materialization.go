package models

import (
	"time"

	"github.com/google/uuid"
)

// MaterializationResult describes one completed materialization.
type MaterializationResult struct {
	RunID          uuid.UUID     `json:"run_id"`
	FeatureName    string        `json:"feature_name"`
	FeatureVersion string        `json:"feature_version"`
	SinkFormat     string        `json:"sink_format"`
	SinkPath       string        `json:"sink_path"`
	RowCount       int64         `json:"row_count"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}
