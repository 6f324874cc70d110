package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/app"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/fsutil"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/render"
)

var (
	colorSuccess = lipgloss.Color("#2E7D32")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#78909C")
)

var styles = struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
}

// Printer writes run reports for humans. Styling is only applied when the
// writer is a terminal.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter returns a printer for w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, color: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *Printer) println(s lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(p.w, p.style(s, fmt.Sprintf(format, args...)))
}

// Report prints the build messages and the files of one run.
func (p *Printer) Report(out *app.Outcome) {
	if out == nil || out.Result == nil {
		return
	}
	res := out.Result

	if !res.Success {
		p.println(styles.Error, "Build failed:")
		for _, msg := range res.Errors {
			p.println(styles.Error, " - %s", msg)
		}
	}
	if len(res.Warnings) > 0 {
		p.println(styles.Warning, "Warnings:")
		for _, msg := range res.Warnings {
			p.println(styles.Warning, " - %s", msg)
		}
	}
	for _, msg := range res.Analysis.Warnings {
		p.println(styles.Muted, "Note: %s", msg)
	}
	for _, msg := range layoutNotes(out.Layout) {
		p.println(styles.Muted, "Note: %s", msg)
	}

	for _, art := range out.Artifacts {
		if art.Variant == "graph" {
			p.println(styles.Success, "Wrote graph JSON to %s", art.Path)
			continue
		}
		p.println(styles.Success, "Wrote %s Mermaid to %s", art.Variant, art.Path)
		switch {
		case art.PNGPath != "" && art.PNGFallback:
			p.println(styles.Success, "Rendered %s PNG (fallback) to %s", art.Variant, art.PNGPath)
		case art.PNGPath != "":
			p.println(styles.Success, "Rendered %s PNG to %s", art.Variant, art.PNGPath)
		case errors.Is(art.PNGErr, render.ErrRasterizerUnavailable):
			p.println(styles.Warning, "mmdc not found. %s", InstallHint)
		case art.PNGErr != nil:
			p.println(styles.Warning, "%s PNG rendering skipped due to mmdc error.", art.Variant)
			p.println(styles.Muted, "%v", art.PNGErr)
		}
	}
}

// Rebuilding prints the watch-mode banner for a changed file set.
func (p *Printer) Rebuilding(n int) {
	p.println(styles.Title, "Change detected (%d files), rebuilding...", n)
}

// layoutNotes returns the layout problems worth reporting. A missing flow file
// is left out because the build reports it.
func layoutNotes(v fsutil.Validation) []string {
	var out []string
	for _, msg := range append(append([]string{}, v.Errors...), v.Warnings...) {
		if strings.HasPrefix(msg, fsutil.FlowFileName) {
			continue
		}
		out = append(out, msg)
	}
	return out
}
