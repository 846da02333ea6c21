package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/greeter/internal/presentation/graph"
	"github.com/aretw0/greeter/pkg/feature"
)

// featuresCmd initializes every feature and reports the outcome without serving.
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Initialize features and report their state",
	Long:  `Runs feature initialization and prints each feature state as JSON, as YAML with --yaml, or as a Mermaid diagram with --mermaid.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := bootstrap(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		startErr := app.Start(cmd.Context())
		var initErr *feature.InitializationError
		if startErr != nil && !errors.As(startErr, &initErr) {
			return startErr
		}

		status := app.Coordinator().Status()
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		asYAML, _ := cmd.Flags().GetBool("yaml")
		switch {
		case mermaid:
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(status))
		case asYAML:
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(status); err != nil {
				return err
			}
			if err := enc.Close(); err != nil {
				return err
			}
		default:
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(status); err != nil {
				return err
			}
		}
		return startErr
	},
}

func init() {
	rootCmd.AddCommand(featuresCmd)
	featuresCmd.Flags().Bool("mermaid", false, "Print a Mermaid flowchart instead of JSON")
	featuresCmd.Flags().Bool("yaml", false, "Print YAML instead of JSON")
	featuresCmd.MarkFlagsMutuallyExclusive("mermaid", "yaml")
}
