package models

import "fmt"

// Source describes a versioned raw dataset. InfraType selects the loader that
// interprets TableName and Config (e.g. "parquet", "csv", "postgres", "sqlserver").
type Source struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	TableName    string            `json:"table_name"`
	InfraType    string            `json:"infra_type"`
	FieldMapping map[string]string `json:"field_mapping"`
	Owner        string            `json:"owner"`
	Description  string            `json:"description"`
	Config       map[string]string `json:"config"`
}

func (s *Source) String() string {
	return fmt.Sprintf("<Source %s:%s:%s>", s.Name, s.Version, s.TableName)
}

// SourceRow is a source row as stored, before its JSON columns are decoded.
type SourceRow struct {
	Name         string
	Version      string
	TableName    string
	InfraType    string
	FieldMapping *string
	Owner        *string
	Description  *string
	Config       *string
}
