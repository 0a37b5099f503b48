package app

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/ensure/internal/ctxlog"
	"github.com/specialistvlad/ensure/internal/evaluator"
	"github.com/specialistvlad/ensure/internal/localexecutor"
	"github.com/specialistvlad/ensure/internal/report"
	"github.com/specialistvlad/ensure/internal/resolver"
	"github.com/specialistvlad/ensure/internal/runner"
	"github.com/specialistvlad/ensure/internal/scope"
	"github.com/zclconf/go-cty/cty"
)

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.List {
		return a.list()
	}

	runDir, err := os.MkdirTemp("", "ensure-run-*")
	if err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(runDir); err != nil {
			a.logger.Warn("Failed to remove run directory.", "path", runDir, "error", err)
		}
	}()

	executor := localexecutor.New(a.sink, a.config.Shell, runDir)
	tree := report.NewTree(a.outW, report.Options{
		NoColor:    a.config.NoColor,
		Timestamps: a.config.Timestamps,
	})
	reporters := report.Multi{tree}
	if a.config.ReportURL != "" {
		broadcast, err := report.Dial(ctx, report.RemoteOptions{
			URL:                a.config.ReportURL,
			Namespace:          a.config.ReportNamespace,
			InsecureSkipVerify: a.config.ReportInsecure,
		})
		if err != nil {
			a.logger.Warn("Tree broadcast unavailable, continuing without it.", "url", a.config.ReportURL, "error", err)
		} else {
			defer broadcast.Close()
			reporters = append(reporters, broadcast)
		}
	}
	res := resolver.New(a.loader, evaluator.New(executor), runner.New(), reporters)

	root := scope.NewRoot(map[string]cty.Value{
		evaluator.VarRunDir: cty.StringVal(runDir),
	}, evaluator.Functions())

	a.logger.Info("Resolution started.", "unit", a.config.Unit, "args", a.config.Args, "run_dir", runDir)
	if err := res.Resolve(ctx, root, a.config.Unit, a.config.Args); err != nil {
		a.logger.Error("Resolution failed.", "unit", a.config.Unit, "error", err)
		return fmt.Errorf("resolution failed: %w", err)
	}
	a.logger.Info("Resolution finished.", "unit", a.config.Unit)
	return nil
}

// list prints every unit available across the search roots.
func (a *App) list() error {
	names, err := a.loader.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		a.logger.Warn("No units found.", "roots", a.loader.Roots())
	}
	for _, name := range names {
		fmt.Fprintln(a.outW, name)
	}
	return nil
}
