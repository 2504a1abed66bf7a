package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ekaya-features",
	Short: "Resolve and materialize versioned feature definitions",
	Long: `ekaya-features reads feature, source and entity definitions from the
registry store, resolves the definition that applies to a request, and
materializes it by running its transform over its source and writing the
result to its sink.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: environment variables only)")
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command. Cancelling ctx aborts in-flight registry and engine work.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
