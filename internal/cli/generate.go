package cli

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/qigen/internal/compile"
	"github.com/mark3labs/qigen/internal/emitter"
	"github.com/mark3labs/qigen/internal/emitter/goemitter"
	"github.com/mark3labs/qigen/internal/emitter/rustemitter"
	"github.com/mark3labs/qigen/internal/ir"
	"github.com/mark3labs/qigen/internal/spec"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// GenerateConfig captures all inputs that influence generation after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input       string   `flag:"input" validate:"required"`
	Target      string   `flag:"--target" validate:"oneof=go rust"`
	Package     string   `flag:"--package" validate:"omitempty,goident"`
	Out         string   `flag:"--out"`
	Routes      bool     `flag:"--routes"`
	IncludeTags []string `flag:"--include-tags"`
	ExcludeTags []string `flag:"--exclude-tags"`
	Methods     []string `flag:"--methods" validate:"dive,oneof=get put post delete options head patch trace"`
	Paths       []string `flag:"--paths"`
	ConfigPath  string   `flag:"--config"`
	DryRun      bool     `flag:"--dry-run"`
	Force       bool     `flag:"--force"`
	Verbose     bool     `flag:"--verbose"`
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Target: "go", Routes: true}
}

var generateRunner = runGenerate

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("flag")
	})
	if err := v.RegisterValidation("goident", func(fl validator.FieldLevel) bool {
		return token.IsIdentifier(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func addGenerateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("target", "", "Target language to emit (go|rust); defaults to go")
	flags.String("package", "", "Package (Go) or module (Rust) name of the generated file; defaults to api")
	flags.String("out", "", "Write the generated file into this directory instead of stdout")
	flags.Bool("routes", true, "Emit route registration and stub handlers")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include operations with these HTTP methods")
	flags.StringSlice("paths", nil, "Only include operations whose path matches one of these regular expressions")
	flags.Bool("dry-run", false, "Preview the planned file without writing it")
	flags.Bool("force", false, "Overwrite an existing output file")
}

func resolveGenerateConfig(cmd *cobra.Command, args []string) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if len(args) == 1 {
		cfg.Input = args[0]
	}
	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := map[string]*string{
		"target":  &cfg.Target,
		"package": &cfg.Package,
		"out":     &cfg.Out,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = value
	}
	lists := map[string]*[]string{
		"include-tags": &cfg.IncludeTags,
		"exclude-tags": &cfg.ExcludeTags,
		"methods":      &cfg.Methods,
		"paths":        &cfg.Paths,
	}
	for name, dst := range lists {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = value
	}
	bools := map[string]*bool{
		"routes":  &cfg.Routes,
		"dry-run": &cfg.DryRun,
		"force":   &cfg.Force,
		"verbose": &cfg.Verbose,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Target = strings.ToLower(strings.TrimSpace(c.Target))
	if c.Target == "" {
		c.Target = "go"
	}
	c.Package = strings.TrimSpace(c.Package)
	c.Out = strings.TrimSpace(c.Out)
	c.IncludeTags = sanitizeList(c.IncludeTags)
	c.ExcludeTags = sanitizeList(c.ExcludeTags)
	c.Methods = sanitizeList(c.Methods)
	for i, m := range c.Methods {
		c.Methods[i] = strings.ToLower(m)
	}
	c.Paths = sanitizeList(c.Paths)
}

func (c *GenerateConfig) validate() error {
	err := validate.Struct(c)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fieldErrorMessage(fe))
		}
		return newUsageError(strings.Join(msgs, "\n"))
	}
	if err != nil {
		return err
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}
	return nil
}

func fieldErrorMessage(fe validator.FieldError) string {
	name, _, _ := strings.Cut(fe.Field(), "[")
	switch fe.Tag() {
	case "required":
		return "an input document is required (positional argument or \"input\" in the config file)"
	case "oneof":
		return fmt.Sprintf("unsupported %s %q (allowed: %s)", name, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "goident":
		return fmt.Sprintf("%s %q is not a valid identifier", name, fe.Value())
	default:
		return fmt.Sprintf("invalid %s: %s", name, fe.Error())
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newRenderer(target string) (emitter.Renderer, error) {
	switch target {
	case "go":
		return goemitter.New(), nil
	case "rust":
		return rustemitter.New(), nil
	default:
		return nil, newUsageError(fmt.Sprintf("unsupported --target %q (allowed: go, rust)", target))
	}
}

func runGenerate(ctx context.Context, cfg *GenerateConfig, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, cfg.Verbose)

	// 1) Load the document, picking the decoder by extension
	doc, err := spec.Load(cfg.Input)
	if err != nil {
		// Map structured spec errors into friendly messages
		var se *spec.SpecError
		if errors.As(err, &se) {
			msg := se.Message
			if se.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
			}
			if se.JSONPointer != "" {
				msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
			}
			return newUsageError(msg)
		}
		return err
	}

	// 2) Compile into the IR with filters applied
	methods := make([]ir.Method, len(cfg.Methods))
	for i, m := range cfg.Methods {
		methods[i] = ir.Method(m)
	}
	svc, err := compile.Build(doc,
		compile.WithIncludeTags(cfg.IncludeTags),
		compile.WithExcludeTags(cfg.ExcludeTags),
		compile.WithMethods(methods),
		compile.WithPathPatterns(cfg.Paths),
		compile.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("compile %s: %w", cfg.Input, err)
	}
	logDiagnostics(logger, svc.Diagnostics)

	// 3) Render for the chosen target
	r, err := newRenderer(cfg.Target)
	if err != nil {
		return err
	}
	res, err := emitter.Emit(ctx, svc, r, emitter.Options{
		Package: cfg.Package,
		Routes:  cfg.Routes,
		OutDir:  cfg.Out,
		Force:   cfg.Force,
		DryRun:  cfg.DryRun,
	})
	if err != nil {
		return wrapOutputError(err, cfg.Out)
	}
	logDiagnostics(logger, res.Diagnostics)

	if cfg.Out == "" {
		_, err := stdout.Write(res.Source)
		return err
	}
	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	if cfg.DryRun {
		printPlan(stdout, absOut, res.Planned)
		return nil
	}
	for _, p := range res.Planned {
		fmt.Fprintf(stdout, "Wrote %s\n", filepath.Join(absOut, p.RelPath))
	}
	return nil
}

func logDiagnostics(logger *slog.Logger, diags []ir.Diagnostic) {
	for _, d := range diags {
		logger.Warn(d.Message, "kind", string(d.Kind), "operation", d.Operation)
	}
}

func printPlan(w io.Writer, outDir string, planned []emitter.PlannedFile) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, len(planned))
	for _, p := range planned {
		fmt.Fprintf(w, "- %s (%d bytes)\n", p.RelPath, p.Size)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "already exists") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		var err error
		switch normalizeKey(key) {
		case "input":
			cfg.Input, err = valueAsString(value)
		case "target":
			cfg.Target, err = valueAsString(value)
		case "package":
			cfg.Package, err = valueAsString(value)
		case "out":
			cfg.Out, err = valueAsString(value)
		case "routes":
			cfg.Routes, err = valueAsBool(value)
		case "includetags":
			cfg.IncludeTags, err = valueAsStringSlice(value)
		case "excludetags":
			cfg.ExcludeTags, err = valueAsStringSlice(value)
		case "methods":
			cfg.Methods, err = valueAsStringSlice(value)
		case "paths":
			cfg.Paths, err = valueAsStringSlice(value)
		case "dryrun":
			cfg.DryRun, err = valueAsBool(value)
		case "force":
			cfg.Force, err = valueAsBool(value)
		case "verbose":
			cfg.Verbose, err = valueAsBool(value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return strings.Split(val, ","), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			items = append(items, str)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
