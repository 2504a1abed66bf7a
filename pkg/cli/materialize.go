package cli

import (
	"github.com/spf13/cobra"
)

var materializeFlags requestFlags

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Compute a feature and write it to its sink",
	Long: `Resolve a feature request, load the feature's source, run its transform and
write the result to its sink, replacing anything already at the sink path.
Prints the run summary as JSON.

Sinks default to parquet at /tmp/feature_output when the definition leaves
format or path unset.

Examples:
  ekaya-features materialize --name click_count --version 1
  ekaya-features materialize --request click_count.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := materializeFlags.build()
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.materializer.MaterializeRequest(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	materializeFlags.register(materializeCmd)
	rootCmd.AddCommand(materializeCmd)
}
