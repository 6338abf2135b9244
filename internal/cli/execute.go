package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ExecuteOptions holds flags for the execute command.
type ExecuteOptions struct {
	*RootOptions
	Inputs []string
	Params []string
	JSON   bool
}

// NewExecuteCommand creates the execute command.
func NewExecuteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecuteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "execute NAME [--input k=v]... [--param k=v]...",
		Short: "Execute a function",
		Long: `Execute a function with inputs and parameters.

Values containing a dot are read as floats, other values as integers; a value
that is neither is passed as a string. A parameter overrides an input with
the same name.

Example:
  paramfn execute add --input x=2 --param factor=3`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringArrayVar(&opts.Inputs, "input", nil, "input value as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "parameter value as key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the full execution result as JSON")

	return cmd
}

func runExecute(cmd *cobra.Command, opts *ExecuteOptions, name string) error {
	inputs, err := parsePairs(opts.Inputs, "input")
	if err != nil {
		return err
	}
	params, err := parsePairs(opts.Params, "parameter")
	if err != nil {
		return err
	}

	a, err := opts.newApp(cmd, "")
	if err != nil {
		return err
	}
	res, err := a.Engine().Execute(a.Context(), name, inputs, params)
	if err != nil {
		return failure(err)
	}

	if opts.JSON {
		return writeIndentedJSON(cmd, res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Result: %s\n", formatResult(res.Result))
	return nil
}

// formatResult renders scalars as plain text and everything else as
// compact JSON.
func formatResult(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool, int64, float64:
		return fmt.Sprint(v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
