package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-features/pkg/apperrors"
)

// Keys read by FeatureRequestFromMap.
const (
	RequestKeyName    = "name"
	RequestKeyVersion = "version"
	RequestKeyStart   = "start_event_datetime"
	RequestKeyEnd     = "end_event_datetime"
)

// FeatureRequest identifies the feature definition to resolve. Window is nil when
// no temporal range applies.
type FeatureRequest struct {
	Name    string
	Version string
	Window  *TimeRange
}

func (r FeatureRequest) String() string {
	if r.Window == nil {
		return r.Name + ":" + r.Version
	}
	return fmt.Sprintf("%s:%s[%s]", r.Name, r.Version, r.Window)
}

// NewFeatureRequest builds a request from textual range bounds. The range applies only
// when both bounds are non-empty; a single bound is ignored.
func NewFeatureRequest(name, version, start, end string) (FeatureRequest, error) {
	req := FeatureRequest{Name: name, Version: version}
	if name == "" || version == "" {
		return req, fmt.Errorf("feature name and version are required: %w", apperrors.ErrInvalidArgument)
	}

	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return req, nil
	}

	startAt, err := ParseTimestamp(start)
	if err != nil {
		return req, fmt.Errorf("%s: %w", RequestKeyStart, err)
	}
	endAt, err := ParseTimestamp(end)
	if err != nil {
		return req, fmt.Errorf("%s: %w", RequestKeyEnd, err)
	}
	req.Window = &TimeRange{Start: startAt, End: endAt}
	return req, nil
}

// FeatureRequestFromMap extracts a request from an arbitrary reference map.
func FeatureRequestFromMap(m map[string]string) (FeatureRequest, error) {
	return NewFeatureRequest(m[RequestKeyName], m[RequestKeyVersion], m[RequestKeyStart], m[RequestKeyEnd])
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats accepted in feature requests.
// Values without a zone are read as UTC, matching the registry's TIMESTAMP columns.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q: %w", value, apperrors.ErrInvalidArgument)
}
