package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/paramfn/internal/engine"
	"github.com/specialistvlad/paramfn/internal/script"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		asJSON       bool
		showBuiltins bool
	)

	cmd := &cobra.Command{
		Use:   "validate NAME",
		Short: "Compile a function without running it",
		Long: `Compile a stored function without running it and report its parameters,
the functions each definition calls, and names that do not resolve.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.newApp(cmd, "")
			if err != nil {
				return err
			}
			report, err := a.Engine().Check(a.Context(), args[0])
			if err != nil {
				return failure(err)
			}
			if asJSON {
				if showBuiltins {
					return writeIndentedJSON(cmd, struct {
						*engine.CheckReport
						Builtins []string `json:"builtins"`
					}{report, script.BuiltinNames()})
				}
				return writeIndentedJSON(cmd, report)
			}
			printReport(cmd.OutOrStdout(), report)
			if showBuiltins {
				fmt.Fprintf(cmd.OutOrStdout(), "Builtins: %s\n", strings.Join(script.BuiltinNames(), ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&showBuiltins, "builtins", false, "also list the builtin functions")

	return cmd
}

func printReport(w io.Writer, r *engine.CheckReport) {
	fmt.Fprintf(w, "Function '%s' compiled successfully.\n", r.Function)

	params := strings.Join(r.Params, ", ")
	if r.AcceptsExtra {
		params += " (+ extra keyword arguments)"
	}
	if strings.TrimSpace(params) == "" {
		params = "none"
	}
	fmt.Fprintf(w, "Parameters: %s\n", params)

	fmt.Fprintln(w, "Definitions:")
	for _, info := range r.Functions {
		calls := "none"
		if len(info.Calls) > 0 {
			calls = strings.Join(info.Calls, ", ")
		}
		fmt.Fprintf(w, "  %s(%s) calls: %s\n", info.Name, strings.Join(info.Params, ", "), calls)
	}

	if r.OK() {
		fmt.Fprintln(w, "No problems found.")
		return
	}
	fmt.Fprintln(w, "Warnings:")
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  - %s\n", warning)
	}
}
