package cli

import (
    "fmt"
    "strings"

    "github.com/spf13/cobra"
)

// Execute runs the qigen CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "qigen [flags] <input>",
        Short: "Compile an OpenAPI v3 document into typed server source",
        Long: "qigen reads an OpenAPI v3 document (.json, .yaml or .yml), compiles it into an " +
            "ordered intermediate representation and renders Go or Rust request/response types " +
            "with optional route scaffolding.",
        Example: strings.TrimSpace(`  qigen openapi.yaml
  qigen --target rust --package petstore --out ./src petstore.json
  qigen --config qigen.yaml --include-tags public --dry-run api.yml`),
        Args: func(c *cobra.Command, args []string) error {
            if len(args) > 1 {
                return newUsageError(fmt.Sprintf("expected one input document, got %d\n\n%s", len(args), c.UsageString()))
            }
            return nil
        },
        SilenceErrors: true,
        SilenceUsage:  true,
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, err := resolveGenerateConfig(cmd, args)
            if err != nil {
                return err
            }
            return generateRunner(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
        },
    }

    // Convert Cobra flag errors (like unknown flags) into friendly usage errors
    // that also show the command's help text.
    cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
        return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
    })

    cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML)")
    cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")
    addGenerateFlags(cmd)

    i := newInitCmd()
    i.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
        return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
    })
    cmd.AddCommand(i)

    return cmd
}
