package models

// Sink map keys and their defaults.
const (
	SinkKeyFormat = "format"
	SinkKeyPath   = "path"

	DefaultSinkFormat = "parquet"
	DefaultSinkPath   = "/tmp/feature_output"
)

// SinkTarget is the fully determined output of a materialization.
// Options holds every other key of the feature's sink map.
type SinkTarget struct {
	Format  string
	Path    string
	Options map[string]string
}

// ResolveSinkTarget applies the format and path defaults independently.
func ResolveSinkTarget(sink map[string]string) SinkTarget {
	target := SinkTarget{
		Format:  DefaultSinkFormat,
		Path:    DefaultSinkPath,
		Options: make(map[string]string),
	}
	for key, value := range sink {
		switch key {
		case SinkKeyFormat:
			if value != "" {
				target.Format = value
			}
		case SinkKeyPath:
			if value != "" {
				target.Path = value
			}
		default:
			target.Options[key] = value
		}
	}
	return target
}
