package models

import (
	"errors"
	"fmt"

	"github.com/ekaya-inc/ekaya-features/pkg/jsonutil"
)

var (
	errMissingName    = errors.New(`reference has no "name"`)
	errMissingVersion = errors.New(`reference has no "version"`)
)

// EntityRef is the decoded form of a feature row's embedded entity map.
type EntityRef struct {
	Name string
}

func (r EntityRef) String() string { return r.Name }

// SourceRef is the decoded form of a feature row's embedded source map.
type SourceRef struct {
	Name    string
	Version string
}

func (r SourceRef) String() string { return r.Name + ":" + r.Version }

// EntityRefFromMap extracts an entity reference from a loosely-typed map.
func EntityRefFromMap(m map[string]string) (EntityRef, error) {
	if m["name"] == "" {
		return EntityRef{}, errMissingName
	}
	return EntityRef{Name: m["name"]}, nil
}

// SourceRefFromMap extracts a source reference from a loosely-typed map.
func SourceRefFromMap(m map[string]string) (SourceRef, error) {
	if m["name"] == "" {
		return SourceRef{}, errMissingName
	}
	if m["version"] == "" {
		return SourceRef{}, errMissingVersion
	}
	return SourceRef{Name: m["name"], Version: m["version"]}, nil
}

// DecodeEntityRef decodes the JSON text of a stored entity reference.
func DecodeEntityRef(text string) (EntityRef, error) {
	m, err := jsonutil.DecodeStringMap(text)
	if err != nil {
		return EntityRef{}, fmt.Errorf("invalid entity reference: %w", err)
	}
	return EntityRefFromMap(m)
}

// DecodeSourceRef decodes the JSON text of a stored source reference.
func DecodeSourceRef(text string) (SourceRef, error) {
	m, err := jsonutil.DecodeStringMap(text)
	if err != nil {
		return SourceRef{}, fmt.Errorf("invalid source reference: %w", err)
	}
	return SourceRefFromMap(m)
}
