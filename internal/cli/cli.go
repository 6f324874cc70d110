package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// flags mirrors the command line before it is turned into an app.Config.
type flags struct {
	out         string
	variant     string
	png         bool
	pngScale    float64
	pngWidth    int
	pngHeight   int
	pngBg       string
	labels      bool
	noLabels    bool
	scheme      string
	direction   string
	hideUtility bool
	showUtility bool
	format      string
	registryDir string
	logLevel    string
	logFormat   string
	watch       bool
	debounce    time.Duration
}

// newCommand builds the root command. run receives the object path.
func newCommand(f *flags, run func(path string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flowviz OBJECT_PATH",
		Short: "Visualize a BMF creation flow as a Mermaid diagram",
		Long: `flowviz - Static architecture viewer for BMF object flows.

Reads OBJECT_PATH/flows/creation_flow.py and the YAML rule files of the
object (filter, mapping, merging_rules, tmp, deletion), builds the task
dependency graph and writes Mermaid diagrams next to --out.

Examples:
  flowviz migrations/product__v
  flowviz migrations/product__v --variant both --scheme dark --png
  flowviz migrations/product__v --format json --out build/flow.json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return run("")
			}
			return run(args[0])
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.out, "out", app.DefaultOutPath, "Output path; diagrams are written to its directory.")
	fs.StringVar(&f.variant, "variant", app.VariantDetailed, "Diagram variant: 'detailed', 'overview' or 'both'.")
	fs.BoolVar(&f.png, "png", false, "Also render PNG files with the Mermaid CLI (mmdc).")
	fs.Float64Var(&f.pngScale, "png-scale", 2.0, "PNG scale factor (mmdc -s).")
	fs.IntVar(&f.pngWidth, "png-width", 0, "PNG width in pixels; overrides the scale.")
	fs.IntVar(&f.pngHeight, "png-height", 0, "PNG height in pixels; overrides the scale.")
	fs.StringVar(&f.pngBg, "png-bg", "", "PNG background color. Defaults by scheme.")
	fs.BoolVar(&f.labels, "labels", true, "Label edges with the source task type.")
	fs.BoolVar(&f.noLabels, "no-labels", false, "Derive edge labels from rule summaries instead.")
	fs.StringVar(&f.scheme, "scheme", "default", "Color scheme: 'default' or 'dark'.")
	fs.StringVar(&f.direction, "direction", "", "Diagram direction: 'TD', 'LR' or 'BT'.")
	fs.BoolVar(&f.hideUtility, "hide-utility", true, "Hide utility tasks like SetEnvironmentVariables.")
	fs.BoolVar(&f.showUtility, "show-utility", false, "Show utility tasks in detailed diagrams.")
	fs.StringVar(&f.format, "format", app.FormatMermaid, "Output format: 'mermaid' or 'json'.")
	fs.StringVar(&f.registryDir, "registry-dir", "", "Directory holding a task_definitions.yaml or .hcl override.")
	fs.StringVar(&f.logLevel, "log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.BoolVar(&f.watch, "watch", false, "Rebuild whenever the object's files change.")
	fs.DurationVar(&f.debounce, "debounce", app.DefaultDebounce, "Quiet period before a watch rebuild.")
	cmd.MarkFlagsMutuallyExclusive("labels", "no-labels")
	cmd.MarkFlagsMutuallyExclusive("hide-utility", "show-utility")
	return cmd
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	f := &flags{}
	var path string
	ran := false
	cmd := newCommand(f, func(p string) error {
		ran = true
		path = p
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.Execute(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if !ran {
		// --help was printed.
		return nil, true, nil
	}
	slog.Debug("Arguments parsed successfully.", "path", path)

	if path == "" {
		slog.Debug("No object path provided, printing usage and exiting.")
		_ = cmd.Usage()
		return nil, true, nil
	}
	if err := checkObjectPath(path); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	config, err := app.NewConfig(app.Config{
		ObjectPath:    path,
		OutPath:       f.out,
		Variant:       f.variant,
		Format:        f.format,
		Scheme:        f.scheme,
		Direction:     f.direction,
		Labels:        f.labels && !f.noLabels,
		HideUtility:   f.hideUtility && !f.showUtility,
		PNG:           f.png,
		PNGScale:      f.pngScale,
		PNGWidth:      f.pngWidth,
		PNGHeight:     f.pngHeight,
		PNGBackground: f.pngBg,
		RegistryDir:   f.registryDir,
		LogFormat:     f.logFormat,
		LogLevel:      f.logLevel,
		Watch:         f.watch,
		WatchDebounce: f.debounce,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// checkObjectPath requires an existing directory.
func checkObjectPath(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("invalid value for OBJECT_PATH: directory %q does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("invalid value for OBJECT_PATH: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("invalid value for OBJECT_PATH: %q is a file", path)
	}
	return nil
}
