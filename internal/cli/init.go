package cli

import (
    "context"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "init",
        Short: "Scaffold a sample qigen configuration file",
        Long:  "Scaffold a commented qigen configuration file that documents available options.",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, args []string) error {
            out, err := cmd.Flags().GetString("out")
            if err != nil {
                return err
            }
            force, err := cmd.Flags().GetBool("force")
            if err != nil {
                return err
            }
            cfg := &InitConfig{
                OutputPath: out,
                Force:      force,
            }
            return initRunner(cmd.Context(), cfg, cmd.OutOrStdout())
        },
    }

    cmd.Flags().String("out", "qigen.yaml", "Where to write the sample config file")
    cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

    return cmd
}

func runInit(ctx context.Context, cfg *InitConfig, stdout io.Writer) error {
    _ = ctx

    out := strings.TrimSpace(cfg.OutputPath)
    if out == "" {
        out = "qigen.yaml"
    }
    absPath, err := filepath.Abs(out)
    if err != nil {
        return fmt.Errorf("init: resolve output path: %w", err)
    }

    if st, err := os.Stat(absPath); err == nil && !cfg.Force {
        if st.Mode().IsRegular() {
            return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
        }
    }

    if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
        return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
    }

    content := strings.TrimSpace(sampleConfigYAML) + "\n"

    // Atomic write via temp + rename
    tmp := absPath + ".tmp"
    if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
        return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
    }
    if err := os.Rename(tmp, absPath); err != nil {
        _ = os.Remove(tmp)
        return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
    }
    fmt.Fprintf(stdout, "Wrote sample config to %s\n", absPath)
    return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# qigen configuration (YAML)
# All fields are optional. Command-line flags and the positional input
# argument override config values.

# OpenAPI v3 document to compile (.json, .yaml or .yml).
# input: ./openapi.yaml

# Target language to emit (go|rust). Defaults to go when omitted.
# target: go

# Go package or Rust module name of the generated file. Defaults to api.
# package: api

# Directory to write the generated file into. Prints to stdout when omitted.
# out: ./gen

# Emit route registration and stub handlers.
# routes: true

# Only include operations with these tags (comma-separated or list).
# includeTags: [public,read]

# Exclude operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Only include operations with these HTTP methods.
# methods: [get,post]

# Only include operations whose path matches one of these regular expressions.
# paths: ['^/widgets']

# Preview the planned file without writing it.
# dryRun: false

# Overwrite an existing output file.
# force: false

# Enable verbose (debug) logging.
# verbose: false
`
