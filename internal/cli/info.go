package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info NAME",
		Short: "Show the metadata of a function as JSON",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.newApp(cmd, "")
			if err != nil {
				return err
			}
			def, ok := a.Registry().Lookup(args[0])
			if !ok {
				return failuref("function '%s' not found", args[0])
			}
			return writeIndentedJSON(cmd, def.Metadata)
		},
	}
}

// writeIndentedJSON prints v as JSON indented with two spaces.
func writeIndentedJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return failure(fmt.Errorf("failed to encode output: %w", err))
	}
	return nil
}
