package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/desertthunder/curator/internal/tasks"
)

var outcomeOrder = []tasks.Outcome{
	tasks.OutcomeRetained,
	tasks.OutcomeFlagged,
	tasks.OutcomeRemovedDuplicate,
	tasks.OutcomeRemovedStale,
	tasks.OutcomeRemovedUser,
	tasks.OutcomeRemovedGenre,
}

// RenderReport renders a run summary.
func RenderReport(report *tasks.RunReport) string {
	if report == nil {
		return styles.err.Render("No report available")
	}

	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("Curator %s run", report.Pipeline)))
	b.WriteString("\n")

	mode := styles.warn.Render("dry run (nothing was deleted)")
	if report.DangerRun {
		mode = styles.err.Render("danger run")
	}
	fmt.Fprintf(&b, "Run: %s\nMode: %s\n", report.RunID, mode)
	fmt.Fprintf(&b, "Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(&b, "Inspected: %d tracks\n", report.Inspected)

	for _, o := range outcomeOrder {
		if n := report.Counts[o]; n > 0 {
			fmt.Fprintf(&b, "  %-26s %d\n", o, n)
		}
	}

	removed := report.Removed()
	if len(removed) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.ok.Render("✓ Nothing to remove"))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(styles.warn.Render(fmt.Sprintf("Removal intents (%d):", len(removed))))
	for _, d := range removed {
		status := styles.Status(string(d.Status)).Render(string(d.Status))
		fmt.Fprintf(&b, "\n  • %s [%s] %s", d.Track, d.Reason, status)
		if d.Detail != "" {
			b.WriteString(styles.help.Render(" - " + d.Detail))
		}
	}

	return b.String()
}

// RenderProgress renders a single progress update.
func RenderProgress(u tasks.ProgressUpdate) string {
	var phase string
	switch u.Phase {
	case tasks.FetchTodo:
		phase = "Fetching todo playlist"
	case tasks.FetchPersonal:
		phase = "Indexing personal playlists"
	case tasks.FetchCurated:
		phase = "Fetching curated playlists"
	case tasks.EnrichGenres:
		phase = "Looking up genres"
	case tasks.ApplyRetention:
		phase = "Applying retention"
	case tasks.ApplyFilter:
		phase = "Applying filter"
	default:
		phase = "Processing"
	}

	return fmt.Sprintf("%s %s", styles.help.Render(phase+":"), u.Message)
}

// ProgressPrinter returns a [tasks.ProgressFunc] writing one rendered line per update to w.
func ProgressPrinter(w io.Writer) tasks.ProgressFunc {
	return func(u tasks.ProgressUpdate) {
		fmt.Fprintln(w, RenderProgress(u))
	}
}
