package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/greeter/internal/presentation/tui"
	"github.com/aretw0/greeter/pkg/usecase"
)

var greetCmd = &cobra.Command{
	Use:   "greet <name>",
	Short: "Create and store a greeting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := bootstrap(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		uc, release, err := app.UseCases(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		created, err := uc.CreateGreeting(cmd.Context(), usecase.CreateGreetingRequest{Name: args[0]})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), created.Message)
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "id: %s\n", created.ID)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored greetings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := bootstrap(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		uc, release, err := app.UseCases(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		var list []usecase.GreetingResponse
		if name, _ := cmd.Flags().GetString("name"); name != "" {
			list, err = uc.FindGreetingsByName(cmd.Context(), name)
		} else {
			list, err = uc.ListGreetings(cmd.Context())
		}
		if err != nil {
			return err
		}

		return tui.RenderGreetings(cmd.OutOrStdout(), list)
	},
}

func init() {
	rootCmd.AddCommand(greetCmd)
	rootCmd.AddCommand(listCmd)

	greetCmd.Flags().BoolP("verbose", "v", false, "Also print the greeting id")
	listCmd.Flags().String("name", "", "Only greetings for this name (case-insensitive)")
}
