package tasks

import (
	"fmt"

	"github.com/desertthunder/curator/internal/models"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// ProgressFunc receives progress updates. A nil ProgressFunc discards them.
type ProgressFunc func(ProgressUpdate)

// Operation phase enumeration
type Phase int

const (
	FetchTodo Phase = iota
	FetchPersonal
	FetchCurated
	EnrichGenres
	ApplyRetention
	ApplyFilter
)

func (p Phase) String() string {
	switch p {
	case FetchTodo:
		return "fetch_todo"
	case FetchPersonal:
		return "fetch_personal"
	case FetchCurated:
		return "fetch_curated"
	case EnrichGenres:
		return "enrich_genres"
	case ApplyRetention:
		return "apply_retention"
	case ApplyFilter:
		return "apply_filter"
	default:
		return ""
	}
}

func (fn ProgressFunc) send(update ProgressUpdate) {
	if fn != nil {
		fn(update)
	}
}

func fetchPlaylistUpdate(phase Phase, step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching playlist %s...", step, total, name),
	}
}

func fetchedPlaylistUpdate(phase Phase, step, total int, name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Playlist %s has %d tracks", step, total, name, count),
	}
}

func enrichUpdate(step, total int, tr models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnrichGenres,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Looking up genres for %s", step, total, tr),
	}
}

func decisionUpdate(phase Phase, step, total int, d Decision) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, d.Track, d.Outcome),
		Data:    d,
	}
}
