package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a function",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.newApp(cmd, "")
			if err != nil {
				return err
			}
			deleted, err := a.Registry().Delete(args[0])
			if err != nil {
				return failure(err)
			}
			if !deleted {
				return failuref("function '%s' not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Function '%s' deleted.\n", args[0])
			return nil
		},
	}
}
