package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the stored functions",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.newApp(cmd, "")
			if err != nil {
				return err
			}
			names := a.Registry().Names()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved functions.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "• %s\n", name)
			}
			return nil
		},
	}
}
