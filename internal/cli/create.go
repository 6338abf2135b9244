package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/paramfn/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Code        string
	File        string
	InputParams []string
	ParamNames  []string
	OutputType  string
	Description string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create NAME (--code CODE | --file PATH)",
		Short: "Create or replace a function",
		Long: `Create or replace a function.

The code is given inline with --code or read from a file with --file. A file
ending in .json, .yaml or .yml holds a whole definition (metadata and code);
any other file holds only the code.

Example:
  paramfn create add --code 'def add(x, factor): return x + factor' \
    --input-params x --param-names factor --output-type float`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Code, "code", "", "function source, starting with def")
	cmd.Flags().StringVar(&opts.File, "file", "", "read the code or a whole definition from a file")
	cmd.Flags().StringArrayVar(&opts.InputParams, "input-params", nil, "declared input name (repeatable)")
	cmd.Flags().StringArrayVar(&opts.ParamNames, "param-names", nil, "declared parameter name (repeatable)")
	cmd.Flags().StringVar(&opts.OutputType, "output-type", "Any", "declared output type")
	cmd.Flags().StringVar(&opts.Description, "description", "", "function description")

	return cmd
}

func runCreate(cmd *cobra.Command, opts *CreateOptions, name string) error {
	def, err := opts.definition(cmd, name)
	if err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return usageError(err)
	}

	a, err := opts.newApp(cmd, "")
	if err != nil {
		return err
	}
	existed := a.Registry().Exists(name)
	if err := a.Registry().Save(def); err != nil {
		return failure(err)
	}

	verb := "created"
	if existed {
		verb = "updated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Function '%s' %s.\n", name, verb)
	return nil
}

// definition assembles the definition from the flags. Flags that were set
// explicitly override the fields of a definition file.
func (o *CreateOptions) definition(cmd *cobra.Command, name string) (*model.FunctionDefinition, error) {
	sig := model.FunctionSignature{
		InputParams: o.InputParams,
		ParamNames:  o.ParamNames,
		OutputType:  o.OutputType,
	}

	switch {
	case o.File == "" && o.Code == "":
		return nil, usageErrorf("either --code or --file is required")
	case o.File != "" && o.Code != "":
		return nil, usageErrorf("--code and --file cannot be used together")
	case o.File == "":
		return model.NewFunctionDefinition(name, o.Code, sig, o.Description), nil
	}

	data, err := os.ReadFile(o.File)
	if err != nil {
		return nil, usageError(fmt.Errorf("failed to read %s: %w", o.File, err))
	}

	switch strings.ToLower(filepath.Ext(o.File)) {
	case ".json", ".yaml", ".yml":
	default:
		return model.NewFunctionDefinition(name, string(data), sig, o.Description), nil
	}

	// YAML is a superset of JSON, so one decoder reads both.
	var def model.FunctionDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, usageError(fmt.Errorf("failed to decode %s: %w", o.File, err))
	}
	switch def.Metadata.Name {
	case "":
		def.Metadata.Name = name
	case name:
	default:
		return nil, usageErrorf("name %q in %s does not match %q", def.Metadata.Name, o.File, name)
	}

	flags := cmd.Flags()
	if flags.Changed("input-params") {
		def.Metadata.Signature.InputParams = o.InputParams
	}
	if flags.Changed("param-names") {
		def.Metadata.Signature.ParamNames = o.ParamNames
	}
	if flags.Changed("output-type") || def.Metadata.Signature.OutputType == "" {
		def.Metadata.Signature.OutputType = o.OutputType
	}
	if flags.Changed("description") {
		def.Metadata.Description = &o.Description
	}
	return model.NewFunctionDefinition(def.Metadata.Name, def.Code, def.Metadata.Signature, deref(def.Metadata.Description)), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
