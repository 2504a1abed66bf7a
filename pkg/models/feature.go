package models

import (
	"fmt"
	"time"
)

// FeatureStatus is advisory metadata on a feature definition. Resolution and
// materialization never read it.
type FeatureStatus string

const (
	FeatureStatusTodo       FeatureStatus = "todo"
	FeatureStatusPending    FeatureStatus = "pending"
	FeatureStatusActive     FeatureStatus = "active"
	FeatureStatusDeprecated FeatureStatus = "deprecated"
)

// Feature is a fully resolved feature definition. Source and Entity are embedded
// by value; a Feature is never constructed with a dangling reference.
type Feature struct {
	Name                string            `json:"name"`
	Version             string            `json:"version"`
	Source              Source            `json:"source"`
	Entity              Entity            `json:"entity"`
	EventTimestampField string            `json:"event_timestamp_field"`
	ValidityStart       *time.Time        `json:"validity_start,omitempty"`
	ValidityEnd         *time.Time        `json:"validity_end,omitempty"`
	TTL                 int               `json:"ttl"` // seconds
	Schema              map[string]string `json:"schema"`
	Sink                map[string]string `json:"sink"`
	Transform           string            `json:"transform"`
	Description         string            `json:"description"`
	Owner               string            `json:"owner"`
	Status              FeatureStatus     `json:"status"`
}

func (f *Feature) String() string {
	return fmt.Sprintf("<Feature %s:%s>", f.Name, f.Version)
}

// FeatureRow is a feature row as stored. JSON columns and ttl stay as text so the
// registry, not the repository, decides whether they are well-formed.
type FeatureRow struct {
	ID                  int64
	Name                string
	Version             string
	Source              string
	Entity              string
	EventTimestampField *string
	StartEventDatetime  *time.Time
	EndEventDatetime    *time.Time
	TTL                 *string
	Schema              *string
	Sink                *string
	Transform           *string
	Description         *string
	Owner               *string
	Status              *string
}
