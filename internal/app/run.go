package app

import (
	"context"
	"fmt"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/flowfile"
	"github.com/vk/flowgrid/internal/model"
)

// Run loads the configured flow file and executes it. The returned error is
// non-nil when the run did not fully succeed.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.config.HealthcheckPort)
		defer a.closeHealthcheckServer()
	}

	wf, err := flowfile.Load(a.config.FlowPath)
	if err != nil {
		return fmt.Errorf("failed to load flow file: %w", err)
	}
	a.logger.Info("Flow file loaded.", "workflow", wf.ID, "nodes", len(wf.Nodes), "edges", len(wf.Edges))

	opts := model.Options{
		FailFast:    a.config.FailFast,
		NodeTimeout: a.config.NodeTimeout,
		Timeout:     a.config.Timeout,
		Workers:     a.config.Workers,
	}

	a.logger.Info("🚀 Starting workflow execution...")
	report := a.engine.Run(ctx, wf, opts)
	a.logger.Info("🏁 Execution finished.", "state", report.State, "success", report.Success)

	a.renderReport(report)

	if !report.Success {
		if len(report.Errors) > 0 {
			return fmt.Errorf("workflow %q did not succeed: %w", wf.ID, report.Errors[0])
		}
		return fmt.Errorf("workflow %q did not succeed", wf.ID)
	}
	return nil
}
