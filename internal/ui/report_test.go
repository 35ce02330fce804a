package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/tasks"
)

func sampleReport(danger bool) *tasks.RunReport {
	started := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	return &tasks.RunReport{
		RunID:      "run-1",
		Pipeline:   tasks.PipelineTodo,
		DangerRun:  danger,
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Inspected:  3,
		Decisions: []tasks.Decision{
			{Track: models.Track{Name: "Kept", Artists: []models.Artist{{Name: "A"}}}, Outcome: tasks.OutcomeRetained},
			{
				Track:   models.Track{Name: "Old", Artists: []models.Artist{{Name: "B"}}},
				Outcome: tasks.OutcomeRemovedStale,
				Reason:  models.ReasonStale,
				Detail:  "in todo for 95 days",
				Status:  models.StatusSkipped,
			},
			{Track: models.Track{Name: "Maybe", Artists: []models.Artist{{Name: "C"}}}, Outcome: tasks.OutcomeFlagged},
		},
		Counts: map[tasks.Outcome]int{
			tasks.OutcomeRetained:     1,
			tasks.OutcomeRemovedStale: 1,
			tasks.OutcomeFlagged:      1,
		},
	}
}

func TestRenderReport(t *testing.T) {
	t.Run("dry run", func(t *testing.T) {
		out := RenderReport(sampleReport(false))

		for _, want := range []string{"todo run", "run-1", "dry run", "Inspected: 3 tracks", "Removal intents (1)", "Old by B", "[stale]", "in todo for 95 days"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Kept by A") {
			t.Error("retained tracks should not be listed as removals")
		}
	})

	t.Run("danger run", func(t *testing.T) {
		out := RenderReport(sampleReport(true))
		if !strings.Contains(out, "danger run") {
			t.Errorf("expected danger mode, got:\n%s", out)
		}
	})

	t.Run("counts follow outcome order", func(t *testing.T) {
		out := RenderReport(sampleReport(false))
		retained := strings.Index(out, string(tasks.OutcomeRetained))
		stale := strings.Index(out, string(tasks.OutcomeRemovedStale))
		if retained < 0 || stale < 0 || retained > stale {
			t.Errorf("expected retained before removed-stale, got:\n%s", out)
		}
	})

	t.Run("nothing removed", func(t *testing.T) {
		report := sampleReport(false)
		report.Decisions = report.Decisions[:1]
		out := RenderReport(report)
		if !strings.Contains(out, "Nothing to remove") {
			t.Errorf("expected empty-removal message, got:\n%s", out)
		}
	})

	t.Run("nil report", func(t *testing.T) {
		if !strings.Contains(RenderReport(nil), "No report available") {
			t.Error("expected placeholder for nil report")
		}
	})
}

func TestRenderProgress(t *testing.T) {
	tt := []struct {
		phase tasks.Phase
		want  string
	}{
		{tasks.FetchTodo, "Fetching todo playlist"},
		{tasks.FetchPersonal, "Indexing personal playlists"},
		{tasks.FetchCurated, "Fetching curated playlists"},
		{tasks.EnrichGenres, "Looking up genres"},
		{tasks.ApplyRetention, "Applying retention"},
		{tasks.ApplyFilter, "Applying filter"},
		{tasks.Phase(99), "Processing"},
	}

	for _, tc := range tt {
		t.Run(tc.want, func(t *testing.T) {
			out := RenderProgress(tasks.ProgressUpdate{Phase: tc.phase, Message: "[1/2] step"})
			if !strings.Contains(out, tc.want) || !strings.Contains(out, "[1/2] step") {
				t.Errorf("unexpected progress line %q", out)
			}
		})
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	fn := ProgressPrinter(&buf)

	fn(tasks.ProgressUpdate{Phase: tasks.FetchTodo, Message: "one"})
	fn(tasks.ProgressUpdate{Phase: tasks.ApplyRetention, Message: "two"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
}

func TestPaletteStatus(t *testing.T) {
	for _, status := range []string{"applied", "failed", "skipped", "pending"} {
		if styles.Status(status).Render(status) == "" {
			t.Errorf("empty render for %s", status)
		}
	}
}
