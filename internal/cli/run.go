package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/app"
)

// Run executes one build for cfg, or keeps rebuilding in watch mode until ctx
// is cancelled. Reports go to outW. A build that produced no graph fails with
// an ExitError of code 1, except in watch mode where the next change is
// awaited.
func Run(ctx context.Context, cfg *app.Config, outW io.Writer, opts ...app.Option) error {
	opts = append([]app.Option{app.WithRasterizer(NewMermaidCLI())}, opts...)
	a := app.NewApp(cfg, opts...)
	ctx = a.Context(ctx)
	p := NewPrinter(outW)

	err := runOnce(ctx, a, p)
	if !cfg.Watch {
		return err
	}
	if err != nil {
		fmt.Fprintln(outW, err)
	}

	w, err := NewWatcher(cfg.ObjectPath, cfg.WatchDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.ObjectPath, err)
	}
	fmt.Fprintf(outW, "Watching %s for changes. Press Ctrl+C to stop.\n", cfg.ObjectPath)
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		p.Rebuilding(len(changed))
		if err := runOnce(ctx, a, p); err != nil {
			var exitErr *ExitError
			if !errors.As(err, &exitErr) {
				return err
			}
			fmt.Fprintln(outW, exitErr.Message)
		}
		return nil
	})
}

func runOnce(ctx context.Context, a *app.App, p *Printer) error {
	out, err := a.Run(ctx)
	p.Report(out)
	if errors.Is(err, app.ErrNoGraph) {
		return &ExitError{Code: 1, Message: "Build failed: no diagram written"}
	}
	return err
}
