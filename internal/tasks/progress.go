package tasks

import (
	"fmt"

	"github.com/desertthunder/crossfade/internal/models"
)

// ProgressUpdate represents a progress event during a migration run.
//
// Used to send real-time updates to the CLI or HTTP layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Pipeline phase enumeration
type Phase int

const (
	Validating Phase = iota
	FetchingSource
	Matching
	Building
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Validating:
		return "validating"
	case FetchingSource:
		return "fetching_source"
	case Matching:
		return "matching"
	case Building:
		return "building"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

func validatingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Validating,
		Step:    1,
		Total:   1,
		Message: "Validating migration request...",
	}
}

func fetchPlaylistUpdate(step, total int, playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchingSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching source playlist %s...", step, total, playlistID),
	}
}

func fetchFailedUpdate(step, total int, playlistID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchingSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, playlistID, err),
	}
}

func matchTrackUpdate(step, total int, outcome models.MatchOutcome) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Matching,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%s)", step, total, outcome.Track.Label(), outcome.Status),
		Data:    outcome,
	}
}

func creatingPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Building,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating destination playlist %q...", name),
	}
}

func insertVideoUpdate(step, total int, videoID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Building,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding video %s...", step, total, videoID),
	}
}

func doneUpdate(report *models.MigrationReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Migration complete: %d/%d tracks added", report.TotalVideosAdded, report.TotalTracksProcessed),
		Data:    report,
	}
}

func failedUpdate(phase Phase, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Migration failed during %s: %v", phase, err),
	}
}
