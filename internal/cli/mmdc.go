package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/ctxlog"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/render"
)

// InstallHint tells the user how to get the Mermaid CLI.
const InstallHint = "Install Mermaid CLI: npm i -g @mermaid-js/mermaid-cli"

// MermaidCLI rasterizes diagrams by running the Mermaid CLI (mmdc).
type MermaidCLI struct {
	// Binary is the executable to run, looked up in PATH unless it holds a
	// path separator.
	Binary string
}

var _ render.Rasterizer = (*MermaidCLI)(nil)

// NewMermaidCLI returns a rasterizer running "mmdc".
func NewMermaidCLI() *MermaidCLI {
	return &MermaidCLI{Binary: "mmdc"}
}

// Args returns the mmdc arguments rendering in to out.
func (m *MermaidCLI) Args(in, out string, opts render.PNGOptions) []string {
	args := []string{"-i", in, "-o", out}
	if s := opts.EffectiveScale(); s > 0 {
		args = append(args, "-s", strconv.FormatFloat(s, 'g', -1, 64))
	}
	if opts.Width > 0 {
		args = append(args, "-w", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		args = append(args, "-H", strconv.Itoa(opts.Height))
	}
	if opts.Background != "" {
		args = append(args, "-b", opts.Background)
	}
	return args
}

// Rasterize writes code to a temporary .mmd file and renders it to out.
func (m *MermaidCLI) Rasterize(ctx context.Context, code, out string, opts render.PNGOptions) error {
	logger := ctxlog.FromContext(ctx)

	tmp, err := os.CreateTemp("", "flowviz-*.mmd")
	if err != nil {
		return fmt.Errorf("failed to create temporary diagram: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(code); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary diagram: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write temporary diagram: %w", err)
	}

	args := m.Args(tmp.Name(), out, opts)
	logger.Debug("Running Mermaid CLI.", "binary", m.Binary, "args", args)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.Binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s not found. %s", render.ErrRasterizerUnavailable, m.Binary, InstallHint)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("mmdc failed: %s", msg)
	}
	return nil
}
