package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/crossfade/internal/auth"
	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/shared"
	itesting "github.com/desertthunder/crossfade/internal/testing"
)

// fakeSource scripts SourceAPI responses per playlist id.
type fakeSource struct {
	playlists map[string][]models.Track
	errs      map[string]error
	fetched   []string
}

func (f *fakeSource) PlaylistTracks(_ context.Context, _, playlistID string) ([]models.Track, error) {
	f.fetched = append(f.fetched, playlistID)
	if err, ok := f.errs[playlistID]; ok {
		return nil, err
	}
	return f.playlists[playlistID], nil
}

// fakeCredentials hands out static credentials without refresh machinery.
type fakeCredentials struct {
	creds map[models.Provider]models.Credential
	errs  map[models.Provider]error
}

func (f *fakeCredentials) Valid(_ context.Context, _ string, provider models.Provider) (models.Credential, error) {
	if err, ok := f.errs[provider]; ok {
		return models.Credential{}, err
	}
	return f.creds[provider], nil
}

func bothConnected() *fakeCredentials {
	return &fakeCredentials{creds: map[models.Provider]models.Credential{
		models.ProviderSpotify: {Provider: models.ProviderSpotify, AccessToken: "sp-token"},
		models.ProviderYouTube: {Provider: models.ProviderYouTube, AccessToken: "yt-token"},
	}}
}

// recordingHistory captures migration records in memory.
type recordingHistory struct {
	records []models.MigrationRecord
}

func (r *recordingHistory) RecordMigration(rec models.MigrationRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func newTestEngine(source *fakeSource, dest *fakeDestination, creds CredentialSource, history HistoryRecorder) *Engine {
	return NewEngine(EngineOpts{
		Credentials: creds,
		Source:      source,
		Destination: dest,
		Matcher:     NewMatcher(dest, time.Millisecond, nil),
		History:     history,
		Logger:      shared.NewLogger(nil),
	})
}

func TestEngineRun(t *testing.T) {
	ctx := context.Background()
	req := models.MigrationRequest{
		SourcePlaylistIDs:  []string{"pl1"},
		TargetPlaylistName: "Mixtape",
	}

	t.Run("full migration aggregates playlists and builds in order", func(t *testing.T) {
		source := &fakeSource{playlists: map[string][]models.Track{
			"pl1": {{Name: "One", Artist: "A"}, {Name: "Two", Artist: "B"}},
			"pl2": {{Name: "Three", Artist: "C"}},
		}}
		dest := &fakeDestination{searchResults: map[string]string{
			"One A":   "vid1",
			"Two B":   "vid2",
			"Three C": "vid3",
		}}
		history := &recordingHistory{}

		engine := newTestEngine(source, dest, bothConnected(), history)
		report, err := engine.Run(ctx, "u1", models.MigrationRequest{
			SourcePlaylistIDs:  []string{"pl1", "pl2"},
			TargetPlaylistName: "Mixtape",
		}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if report.DestinationPlaylistID != "PLfake" {
			t.Errorf("expected PLfake, got %q", report.DestinationPlaylistID)
		}
		if report.TotalTracksProcessed != 3 || report.TotalVideosAdded != 3 {
			t.Errorf("expected 3/3, got %d/%d", report.TotalVideosAdded, report.TotalTracksProcessed)
		}
		if len(report.UnmatchedTracks) != 0 || report.QuotaExceeded {
			t.Errorf("unexpected reconciliation fields: %+v", report)
		}

		if len(dest.created) != 1 || dest.created[0] != "Mixtape" {
			t.Errorf("expected one playlist named Mixtape, got %v", dest.created)
		}
		for i, want := range []string{"vid1", "vid2", "vid3"} {
			if dest.inserted[i] != want {
				t.Errorf("insert %d: expected %s, got %s", i, want, dest.inserted[i])
			}
		}

		if len(history.records) != 1 || history.records[0].Status != "done" {
			t.Fatalf("expected one done record, got %+v", history.records)
		}
		if history.records[0].VideosAdded != 3 || history.records[0].TargetName != "Mixtape" {
			t.Errorf("unexpected record: %+v", history.records[0])
		}
	})

	t.Run("quota mid-run still builds with the tracks that matched", func(t *testing.T) {
		source := &fakeSource{playlists: map[string][]models.Track{
			"pl1": {{Name: "One", Artist: "A"}, {Name: "Two", Artist: "B"}, {Name: "Three", Artist: "C"}},
		}}
		dest := &fakeDestination{
			searchResults: map[string]string{"One A": "vid1"},
			searchErrs: map[string]error{
				"Two B": fmt.Errorf("%w: exhausted", shared.ErrQuotaExceeded),
			},
		}

		engine := newTestEngine(source, dest, bothConnected(), nil)
		report, err := engine.Run(ctx, "u1", req, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !report.QuotaExceeded {
			t.Error("expected QuotaExceeded to be set")
		}
		if len(report.QuotaExceededTracks) != 2 {
			t.Errorf("expected 2 quota tracks, got %v", report.QuotaExceededTracks)
		}
		if report.TotalVideosAdded != 1 || len(dest.inserted) != 1 {
			t.Errorf("expected exactly the matched track added, got %v", dest.inserted)
		}
	})

	t.Run("zero matches means no destination playlist", func(t *testing.T) {
		source := &fakeSource{playlists: map[string][]models.Track{
			"pl1": {{Name: "One", Artist: "A"}},
		}}
		dest := &fakeDestination{searchResults: map[string]string{}}

		engine := newTestEngine(source, dest, bothConnected(), nil)
		_, err := engine.Run(ctx, "u1", req, nil)
		if !errors.Is(err, shared.ErrNoMatchesFound) {
			t.Fatalf("expected ErrNoMatchesFound, got %v", err)
		}
		if len(dest.created) != 0 {
			t.Errorf("expected no playlist creation, got %v", dest.created)
		}
	})

	t.Run("zero matches under quota pressure reports the quota error", func(t *testing.T) {
		source := &fakeSource{playlists: map[string][]models.Track{
			"pl1": {{Name: "One", Artist: "A"}},
		}}
		dest := &fakeDestination{
			searchErrs: map[string]error{
				"One A": fmt.Errorf("%w: exhausted", shared.ErrQuotaExceeded),
			},
		}

		engine := newTestEngine(source, dest, bothConnected(), nil)
		_, err := engine.Run(ctx, "u1", req, nil)
		if !errors.Is(err, shared.ErrQuotaExceeded) {
			t.Fatalf("expected ErrQuotaExceeded, got %v", err)
		}
		if len(dest.created) != 0 {
			t.Errorf("expected no playlist creation, got %v", dest.created)
		}
		if !strings.Contains(err.Error(), "after 1 of 1 searches") {
			t.Errorf("expected the search count in the message, got %q", err.Error())
		}
	})

	t.Run("cancellation during fetch is not a skipped playlist", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		source := &fakeSource{errs: map[string]error{
			"pl1": fmt.Errorf("%w: playlist pl1: request failed: %w", shared.ErrFetchFailed, context.Canceled),
		}}
		dest := &fakeDestination{}

		engine := newTestEngine(source, dest, bothConnected(), nil)
		cancel()
		_, err := engine.Run(cancelCtx, "u1", req, nil)
		if !errors.Is(err, shared.ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
		if errors.Is(err, shared.ErrNoTracksFound) {
			t.Errorf("expected cancellation kept distinct from no-tracks, got %v", err)
		}
		if dest.searchCount() != 0 {
			t.Error("expected no destination calls after cancellation")
		}
	})

	t.Run("unfetchable playlists are skipped, not fatal", func(t *testing.T) {
		source := &fakeSource{
			playlists: map[string][]models.Track{
				"ok": {{Name: "One", Artist: "A"}},
			},
			errs: map[string]error{
				"broken": fmt.Errorf("%w: status 404", shared.ErrFetchFailed),
			},
		}
		dest := &fakeDestination{searchResults: map[string]string{"One A": "vid1"}}

		engine := newTestEngine(source, dest, bothConnected(), nil)
		report, err := engine.Run(ctx, "u1", models.MigrationRequest{
			SourcePlaylistIDs:  []string{"broken", "ok"},
			TargetPlaylistName: "Mixtape",
		}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if report.TotalTracksProcessed != 1 {
			t.Errorf("expected 1 track processed, got %d", report.TotalTracksProcessed)
		}
	})

	t.Run("nothing fetched fails before any destination call", func(t *testing.T) {
		source := &fakeSource{errs: map[string]error{
			"pl1": fmt.Errorf("%w: status 404", shared.ErrFetchFailed),
		}}
		dest := &fakeDestination{}

		engine := newTestEngine(source, dest, bothConnected(), nil)
		_, err := engine.Run(ctx, "u1", req, nil)
		if !errors.Is(err, shared.ErrNoTracksFound) {
			t.Fatalf("expected ErrNoTracksFound, got %v", err)
		}
		if dest.searchCount() != 0 || len(dest.created) != 0 {
			t.Error("expected no destination calls at all")
		}
	})

	t.Run("latest-N window applies per playlist", func(t *testing.T) {
		source := &fakeSource{playlists: map[string][]models.Track{
			"pl1": {{Name: "Old", Artist: "A"}, {Name: "Mid", Artist: "A"}, {Name: "New", Artist: "A"}},
		}}
		dest := &fakeDestination{searchResults: map[string]string{
			"New A": "vidN",
			"Mid A": "vidM",
		}}

		engine := newTestEngine(source, dest, bothConnected(), nil)
		report, err := engine.Run(ctx, "u1", models.MigrationRequest{
			SourcePlaylistIDs:  []string{"pl1"},
			TargetPlaylistName: "Mixtape",
			TrackLimit:         2,
			LimitMode:          models.LimitModeLatest,
		}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if report.TotalTracksProcessed != 2 {
			t.Fatalf("expected 2 tracks processed, got %d", report.TotalTracksProcessed)
		}
		if dest.searches[0] != "New A" || dest.searches[1] != "Mid A" {
			t.Errorf("expected newest-first searches, got %v", dest.searches)
		}
	})

	t.Run("missing credentials fail validation with a provider-tagged error", func(t *testing.T) {
		creds := bothConnected()
		creds.errs = map[models.Provider]error{
			models.ProviderYouTube: &auth.AuthError{Provider: models.ProviderYouTube, Err: shared.ErrNotAuthenticated},
		}
		source := &fakeSource{playlists: map[string][]models.Track{"pl1": {{Name: "One", Artist: "A"}}}}
		dest := &fakeDestination{}

		engine := newTestEngine(source, dest, creds, nil)
		_, err := engine.Run(ctx, "u1", req, nil)

		var authErr *auth.AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected *auth.AuthError, got %v", err)
		}
		if authErr.Provider != models.ProviderYouTube {
			t.Errorf("expected youtube tagged, got %s", authErr.Provider)
		}
		if len(source.fetched) != 0 {
			t.Error("expected no source fetches before credential validation")
		}
	})

	t.Run("a failed append is fatal and keeps what was added", func(t *testing.T) {
		source := &fakeSource{playlists: map[string][]models.Track{
			"pl1": {{Name: "One", Artist: "A"}, {Name: "Two", Artist: "B"}},
		}}
		dest := &fakeDestination{
			searchResults: map[string]string{"One A": "vid1", "Two B": "vid2"},
			insertErrs:    map[string]error{"vid2": errors.New("insert rejected")},
		}
		history := &recordingHistory{}

		engine := newTestEngine(source, dest, bothConnected(), history)
		_, err := engine.Run(ctx, "u1", req, nil)
		if !errors.Is(err, shared.ErrBuildFailed) {
			t.Fatalf("expected ErrBuildFailed, got %v", err)
		}

		if len(dest.inserted) != 1 || dest.inserted[0] != "vid1" {
			t.Errorf("expected vid1 to remain added, got %v", dest.inserted)
		}
		if len(history.records) != 1 || history.records[0].Status != "failed" {
			t.Fatalf("expected one failed record, got %+v", history.records)
		}
		if history.records[0].VideosAdded != 1 {
			t.Errorf("expected partial count recorded, got %d", history.records[0].VideosAdded)
		}
	})

	t.Run("default wiring builds its own matcher", func(t *testing.T) {
		engine := NewEngine(EngineOpts{
			Credentials: bothConnected(),
			Source:      &itesting.MockSource{Tracks: []models.Track{{Name: "One", Artist: "A"}}},
			Destination: &itesting.MockDestination{VideoID: "vid1", PlaylistID: "PLmock"},
			Logger:      shared.NewLogger(nil),
		})

		report, err := engine.Run(ctx, "u1", req, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if report.DestinationPlaylistID != "PLmock" || report.TotalVideosAdded != 1 {
			t.Errorf("unexpected report: %+v", report)
		}
	})

	t.Run("progress updates arrive without blocking", func(t *testing.T) {
		source := &fakeSource{playlists: map[string][]models.Track{
			"pl1": {{Name: "One", Artist: "A"}},
		}}
		dest := &fakeDestination{searchResults: map[string]string{"One A": "vid1"}}

		progress := make(chan ProgressUpdate, 32)
		engine := newTestEngine(source, dest, bothConnected(), nil)
		if _, err := engine.Run(ctx, "u1", req, progress); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}
		if len(phases) == 0 || phases[0] != Validating || phases[len(phases)-1] != Done {
			t.Errorf("expected validating...done sequence, got %v", phases)
		}
	})
}

func TestValidateRequest(t *testing.T) {
	tc := []struct {
		name    string
		req     models.MigrationRequest
		wantErr bool
	}{
		{"valid minimal", models.MigrationRequest{SourcePlaylistIDs: []string{"a"}, TargetPlaylistName: "x"}, false},
		{"valid latest", models.MigrationRequest{SourcePlaylistIDs: []string{"a"}, TargetPlaylistName: "x", TrackLimit: 5, LimitMode: models.LimitModeLatest}, false},
		{"no playlists", models.MigrationRequest{TargetPlaylistName: "x"}, true},
		{"blank playlist id", models.MigrationRequest{SourcePlaylistIDs: []string{" "}, TargetPlaylistName: "x"}, true},
		{"blank target name", models.MigrationRequest{SourcePlaylistIDs: []string{"a"}, TargetPlaylistName: "  "}, true},
		{"latest without limit", models.MigrationRequest{SourcePlaylistIDs: []string{"a"}, TargetPlaylistName: "x", LimitMode: models.LimitModeLatest}, true},
		{"unknown mode", models.MigrationRequest{SourcePlaylistIDs: []string{"a"}, TargetPlaylistName: "x", LimitMode: "random"}, true},
		{"negative limit", models.MigrationRequest{SourcePlaylistIDs: []string{"a"}, TargetPlaylistName: "x", TrackLimit: -1}, true},
	}

	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			err := validateRequest(c.req)
			if c.wantErr && !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if !c.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
