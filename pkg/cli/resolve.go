package cli

import (
	"github.com/spf13/cobra"
)

var resolveFlags requestFlags

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the feature definition that applies to a request",
	Long: `Resolve a feature request against the registry and print the feature
definition, with its entity and source embedded, as JSON.

Examples:
  # Latest definition of click_count v1
  ekaya-features resolve --name click_count --version 1

  # Latest definition whose validity lies within January 2024
  ekaya-features resolve --name click_count --version 1 --start 2024-01-01 --end 2024-02-01

  # Request read from a file
  ekaya-features resolve --request click_count.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := resolveFlags.build()
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		feature, err := a.features.Resolve(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), feature)
	},
}

func init() {
	resolveFlags.register(resolveCmd)
	rootCmd.AddCommand(resolveCmd)
}
