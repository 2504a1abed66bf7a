package datasource

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// LoaderInfo describes a registered source loader.
type LoaderInfo struct {
	Type        string `json:"type"`         // "parquet", "postgres", "sqlserver"
	DisplayName string `json:"display_name"` // "Parquet files", "PostgreSQL"
	Description string `json:"description"`
}

// LoaderRegistration contains info and the factory for a loader.
// Aliases are additional infra_type values served by the same loader.
type LoaderRegistration struct {
	Info    LoaderInfo
	Aliases []string
	Factory func(logger *zap.Logger) SourceLoader
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]LoaderRegistration)
)

// Register is called by each loader package's init() function.
func Register(reg LoaderRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[normalize(reg.Info.Type)] = reg
	for _, alias := range reg.Aliases {
		registry[normalize(alias)] = reg
	}
}

// RegisteredLoaders returns info for every registered loader, sorted by type.
func RegisteredLoaders() []LoaderInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	result := make([]LoaderInfo, 0, len(registry))
	for _, reg := range registry {
		if seen[reg.Info.Type] {
			continue
		}
		seen[reg.Info.Type] = true
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// NewLoader returns the loader registered for infraType.
func NewLoader(infraType string, logger *zap.Logger) (SourceLoader, error) {
	registryMu.RLock()
	reg, ok := registry[normalize(infraType)]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported infra_type %q (not compiled in)", infraType)
	}
	return reg.Factory(logger.Named(reg.Info.Type)), nil
}

// IsRegistered checks if a loader serves infraType.
func IsRegistered(infraType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[normalize(infraType)]
	return ok
}

func normalize(infraType string) string {
	return strings.ToLower(strings.TrimSpace(infraType))
}
