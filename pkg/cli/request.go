package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-features/pkg/models"
)

// requestFlags are shared by commands that take a feature request.
type requestFlags struct {
	name    string
	version string
	start   string
	end     string
	file    string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "feature name")
	cmd.Flags().StringVar(&f.version, "version", "", "feature version")
	cmd.Flags().StringVar(&f.start, "start", "", "start of the validity window (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "end of the validity window (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVarP(&f.file, "request", "r", "",
		"YAML file with name, version, start_event_datetime and end_event_datetime keys")
	cmd.MarkFlagsMutuallyExclusive("request", "name")
}

// build returns the request described by the flags or the request file.
func (f *requestFlags) build() (models.FeatureRequest, error) {
	if f.file == "" {
		return models.NewFeatureRequest(f.name, f.version, f.start, f.end)
	}

	data, err := os.ReadFile(f.file)
	if err != nil {
		return models.FeatureRequest{}, fmt.Errorf("read request file: %w", err)
	}
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return models.FeatureRequest{}, fmt.Errorf("parse request file %s: %w", f.file, err)
	}
	return models.FeatureRequestFromMap(m)
}
