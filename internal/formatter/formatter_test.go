package formatter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/crossfade/internal/models"
)

func sampleReport() *models.MigrationReport {
	return &models.MigrationReport{
		ID:                    "run-1",
		DestinationPlaylistID: "PLdest",
		TotalTracksProcessed:  5,
		TotalVideosAdded:      3,
		UnmatchedTracks:       []string{"Ghost - Nobody"},
		QuotaExceededTracks:   []string{"Late - Somebody"},
		QuotaExceeded:         true,
	}
}

func TestReportToText(t *testing.T) {
	out := string(ReportToText(sampleReport()))

	for _, want := range []string{
		"PLdest",
		"Tracks processed: 5",
		"Videos added: 3",
		"Ghost - Nobody",
		"Late - Somebody",
		"quota ran out",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}

	t.Run("clean run omits the reconciliation sections", func(t *testing.T) {
		out := string(ReportToText(&models.MigrationReport{
			ID:                    "run-2",
			DestinationPlaylistID: "PLdest",
			TotalTracksProcessed:  2,
			TotalVideosAdded:      2,
		}))
		if strings.Contains(out, "Unmatched") || strings.Contains(out, "quota") {
			t.Errorf("expected no reconciliation sections:\n%s", out)
		}
	})
}

func TestReportToStyled(t *testing.T) {
	out := ReportToStyled(sampleReport())

	if !strings.Contains(out, "Migration Report") {
		t.Errorf("expected title, got:\n%s", out)
	}
	if !strings.Contains(out, "Ghost - Nobody") || !strings.Contains(out, "Late - Somebody") {
		t.Errorf("expected track labels, got:\n%s", out)
	}
}

func TestReportToJSON(t *testing.T) {
	data, err := ReportToJSON(sampleReport(), true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected valid JSON, got %v", err)
	}

	if decoded["destinationPlaylistId"] != "PLdest" {
		t.Errorf("expected destinationPlaylistId field, got %v", decoded)
	}
	if decoded["quotaExceeded"] != true {
		t.Errorf("expected quotaExceeded true, got %v", decoded["quotaExceeded"])
	}
}

func TestPlaylistsToText(t *testing.T) {
	t.Run("empty listing", func(t *testing.T) {
		out := string(PlaylistsToText(nil))
		if !strings.Contains(out, "No playlists") {
			t.Errorf("expected placeholder, got %q", out)
		}
	})

	t.Run("one line per playlist", func(t *testing.T) {
		out := string(PlaylistsToText([]models.Playlist{
			{ID: "pl1", Name: "Road Trip", TrackCount: 42},
			{ID: "pl2", Name: "Focus", TrackCount: 7},
		}))

		for _, want := range []string{"pl1", "Road Trip", "(42 tracks)", "pl2", "Focus"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output: %q", want, out)
			}
		}
	})
}

func TestHistoryToText(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		out := string(HistoryToText(nil))
		if !strings.Contains(out, "No migrations") {
			t.Errorf("expected placeholder, got %q", out)
		}
	})

	t.Run("lists runs with sequence and counts", func(t *testing.T) {
		out := string(HistoryToText([]models.MigrationRecord{{
			Sequence:      7,
			TargetName:    "Mixtape",
			VideosAdded:   3,
			TracksTotal:   5,
			Status:        "done",
			QuotaExceeded: true,
			CreatedAt:     time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		}}))

		for _, want := range []string{"#7", "Mixtape", "3/5", "done", "[quota]", "2026-02-14"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output: %q", want, out)
			}
		}
	})
}
