package cli

import (
	"github.com/specialistvlad/paramfn/internal/app"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.newApp(cmd, addr)
			if err != nil {
				return err
			}
			if err := a.Serve(cmd.Context()); err != nil {
				return failure(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr(EnvAddr, app.DefaultAddr), "listen address (env "+EnvAddr+")")

	return cmd
}
