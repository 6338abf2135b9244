package cli

import (
	"context"
	"io"
	"os"

	"github.com/specialistvlad/paramfn/internal/app"
	"github.com/spf13/cobra"
)

// Environment variables that provide flag defaults.
const (
	EnvFunctionsDir = "PARAMFN_FUNCTIONS_DIR"
	EnvAddr         = "PARAMFN_ADDR"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	FunctionsDir string
	LogLevel     string
	LogFormat    string

	config *app.Config
}

// newApp builds the application for one command run. Logs go to the
// command's error stream so they never mix with command output.
func (o *RootOptions) newApp(cmd *cobra.Command, addr string) (*app.App, error) {
	cfg := *o.config
	if addr != "" {
		cfg.Addr = addr
	}
	a, err := app.NewApp(cmd.Context(), cmd.ErrOrStderr(), &cfg)
	if err != nil {
		return nil, failure(err)
	}
	return a, nil
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "paramfn",
		Short: "Manage and execute parametric functions",
		Long: `paramfn stores named function definitions and executes them with two
groups of values: inputs (per-call data) and parameters (tuning values).`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.NewConfig(app.Config{
				FunctionsDir: opts.FunctionsDir,
				LogFormat:    opts.LogFormat,
				LogLevel:     opts.LogLevel,
			})
			if err != nil {
				return usageError(err)
			}
			opts.config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	cmd.PersistentFlags().StringVar(&opts.FunctionsDir, "functions-dir", envOr(EnvFunctionsDir, app.DefaultFunctionsDir), "directory holding the stored functions (env "+EnvFunctionsDir+")")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "logging level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log output format (text|json)")

	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewExecuteCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// Execute runs the command line described by args.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(outW)
	cmd.SetErr(errW)
	return cmd.ExecuteContext(ctx)
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
