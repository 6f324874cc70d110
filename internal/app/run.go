package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/builder"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/dag"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/fsutil"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/model"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/render"
)

// ErrNoGraph is returned by Run when the build failed before a graph could be
// assembled, so there is nothing to render.
var ErrNoGraph = errors.New("no graph to render")

// timestampLayout renders as MMDDYYYYHHMMSS.
const timestampLayout = "01022006150405"

// Artifact is one file written by Run.
type Artifact struct {
	Variant string
	Path    string
	// PNGPath is set when the PNG was rendered.
	PNGPath string
	// PNGFallback reports that only the PNG-safe diagram rasterized.
	PNGFallback bool
	// PNGErr is the rasterizer error when no PNG was produced.
	PNGErr error
}

// Outcome is the result of one Run.
type Outcome struct {
	Result *builder.Result
	// Layout lists problems with the object directory layout. They do not
	// affect the build.
	Layout    fsutil.Validation
	Artifacts []Artifact
}

// Run builds the flow graph of the configured object and writes the selected
// diagrams. Build errors are reported in the Outcome; the diagrams are still
// written while a graph exists.
func (a *App) Run(ctx context.Context) (*Outcome, error) {
	ctx = a.Context(ctx)
	a.logger.Debug("App.Run method started.", "object", a.config.ObjectPath)

	b := builder.ForObject(a.config.ObjectPath, a.registry, builder.WithScheme(a.config.Scheme))
	res := b.Build(ctx)
	out := &Outcome{Result: res}
	if layout, err := fsutil.ValidateObject(a.config.ObjectPath); err == nil {
		out.Layout = layout
		a.logger.Debug("Checked object layout.", "valid", layout.Valid(), "info", layout.Info)
	}
	if !res.Success && res.Graph.Len() == 0 {
		return out, ErrNoGraph
	}

	objectName := res.Graph.ObjectName
	if objectName == "" {
		objectName = "flow"
	}
	stamp := a.now().Format(timestampLayout)
	dir := outputDir(a.config.OutPath)

	if a.config.Format == FormatJSON {
		path := filepath.Join(dir, FileName(objectName, a.config.Scheme, "graph", stamp, ".json"))
		if err := writeJSON(path, res, objectSummary(a.config.ObjectPath)); err != nil {
			return out, err
		}
		out.Artifacts = append(out.Artifacts, Artifact{Variant: "graph", Path: path})
		return out, nil
	}

	for _, v := range a.config.Variants() {
		gen := render.NewMermaid(a.registry,
			render.WithDirection(a.config.Direction),
			render.WithScheme(a.config.Scheme),
			render.WithHiddenUtility(v.HideUtility),
		)
		opts := render.Options{
			Title:      fmt.Sprintf("%s (%s)", objectName, v.Name),
			TypeLabels: a.config.Labels,
			Details:    v.Details,
		}
		path := filepath.Join(dir, FileName(objectName, a.config.Scheme, v.Name, stamp, ".mmd"))
		if err := writeFile(path, []byte(gen.Generate(res.Graph, opts))); err != nil {
			return out, err
		}
		a.logger.Info("Wrote diagram.", "variant", v.Name, "path", path)

		art := Artifact{Variant: v.Name, Path: path}
		if a.config.PNG {
			a.rasterize(ctx, gen, res.Graph, opts, &art)
		}
		out.Artifacts = append(out.Artifacts, art)
	}

	a.logger.Debug("App.Run method finished.", "artifacts", len(out.Artifacts))
	return out, nil
}

// rasterize renders the PNG of one variant, retrying with PNG-safe code when
// the rasterizer rejects the regular diagram.
func (a *App) rasterize(ctx context.Context, gen *render.Mermaid, g *model.FlowGraph, opts render.Options, art *Artifact) {
	if a.rasterizer == nil {
		art.PNGErr = render.ErrRasterizerUnavailable
		return
	}
	png := strings.TrimSuffix(art.Path, filepath.Ext(art.Path)) + ".png"
	pngOpts := render.PNGOptions{
		Scale:      a.config.PNGScale,
		Width:      a.config.PNGWidth,
		Height:     a.config.PNGHeight,
		Background: a.config.PNGBackground,
	}
	if pngOpts.Background == "" {
		pngOpts.Background = render.Background(a.config.Scheme)
	}

	err := a.rasterizer.Rasterize(ctx, gen.Generate(g, opts), png, pngOpts)
	if err == nil {
		art.PNGPath = png
		return
	}
	if errors.Is(err, render.ErrRasterizerUnavailable) {
		art.PNGErr = err
		return
	}
	a.logger.Warn("PNG rendering failed, retrying with PNG-safe diagram.", "variant", art.Variant, "error", err)

	opts.PNGSafe = true
	if err := a.rasterizer.Rasterize(ctx, gen.Generate(g, opts), png, pngOpts); err != nil {
		art.PNGErr = err
		return
	}
	art.PNGPath = png
	art.PNGFallback = true
}

// FileName names an output file
// {object}_flow_architecture_{scheme}_{variant}_{stamp}{ext}.
func FileName(object, scheme, variant, stamp, ext string) string {
	return fmt.Sprintf("%s_flow_architecture_%s_%s_%s%s", object, scheme, variant, stamp, ext)
}

// outputDir returns the directory part of the --out path.
func outputDir(out string) string {
	dir := filepath.Dir(out)
	if dir == "" {
		return "."
	}
	return dir
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// graphExport is the JSON document written with --format json.
type graphExport struct {
	Graph    *model.FlowGraph `json:"graph"`
	Success  bool             `json:"success"`
	Errors   []string         `json:"errors"`
	Warnings []string         `json:"warnings"`
	Metadata map[string]any   `json:"metadata"`
	Analysis analysisExport   `json:"analysis"`
	Object   *fsutil.Summary  `json:"object,omitempty"`
}

type analysisExport struct {
	Errors   []string   `json:"errors"`
	Warnings []string   `json:"warnings"`
	Layers   [][]string `json:"execution_layers,omitempty"`
	Critical []string   `json:"critical_path,omitempty"`
}

// objectSummary describes the object directory, or returns nil when it cannot
// be read.
func objectSummary(path string) *fsutil.Summary {
	l, err := fsutil.NewLocator(path)
	if err != nil {
		return nil
	}
	s, err := l.Summary()
	if err != nil {
		return nil
	}
	return &s
}

func writeJSON(path string, res *builder.Result, object *fsutil.Summary) error {
	export := graphExport{
		Object:   object,
		Graph:    res.Graph,
		Success:  res.Success,
		Errors:   nonNil(res.Errors),
		Warnings: nonNil(res.Warnings),
		Metadata: res.Metadata,
		Analysis: analysisExport{
			Errors:   nonNil(res.Analysis.Errors),
			Warnings: nonNil(res.Analysis.Warnings),
		},
	}
	if !dag.HasCycle(res.Graph) {
		export.Analysis.Layers = dag.ExecutionLayers(res.Graph)
		export.Analysis.Critical = dag.CriticalPath(res.Graph)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
