package app

import (
	"fmt"
	"time"

	"github.com/vk/flowgrid/internal/model"
)

// displayPrecision keeps per-node durations readable in the summary.
const displayPrecision = time.Millisecond

// renderReport writes a human-readable summary of a run to the app's
// output writer, one line per node in execution order.
func (a *App) renderReport(report *model.Report) {
	fmt.Fprintf(a.outW, "\nRun %s\n", report.State)
	for _, rec := range report.Records {
		line := fmt.Sprintf("  %-10s %s", rec.Status, rec.NodeID)
		if rec.Status == model.StatusSucceeded {
			line += fmt.Sprintf(" (%s)", rec.Duration.Round(displayPrecision))
		}
		if rec.Err != nil {
			line += fmt.Sprintf(": %v", rec.Err)
		}
		fmt.Fprintln(a.outW, line)
	}

	counts := report.Counts()
	fmt.Fprintf(a.outW, "%d succeeded, %d failed, %d skipped\n",
		counts[model.StatusSucceeded], counts[model.StatusFailed], counts[model.StatusSkipped])

	for _, w := range report.Warnings {
		fmt.Fprintf(a.outW, "warning: %s\n", w)
	}
}
