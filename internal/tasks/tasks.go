// package tasks implements the playlist migration pipeline.
//
// The core abstraction is [Engine], which drives a single migration run
// through its phases (validate, fetch, match, build) and assembles the
// reconciliation report. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/HTTP layers.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/services"
	"github.com/desertthunder/crossfade/internal/shared"
)

// CredentialSource yields usable provider credentials, refreshing behind the
// scenes when needed. Implemented by auth.Store.
type CredentialSource interface {
	Valid(ctx context.Context, userID string, provider models.Provider) (models.Credential, error)
}

// HistoryRecorder persists migration run outcomes. Recording is best-effort:
// failures are logged, never surfaced to the caller.
type HistoryRecorder interface {
	RecordMigration(rec models.MigrationRecord) error
}

// MigrationEngine defines the entrypoint for running a migration.
type MigrationEngine interface {
	// Run executes one migration for the given user and request, returning
	// the reconciliation report on success.
	Run(ctx context.Context, userID string, req models.MigrationRequest, progress chan<- ProgressUpdate) (*models.MigrationReport, error)
}

// Engine implements [MigrationEngine].
type Engine struct {
	creds   CredentialSource
	source  services.SourceAPI
	matcher *Matcher
	dest    services.DestinationAPI
	history HistoryRecorder
	logger  *log.Logger
	now     func() time.Time
}

// EngineOpts contains dependencies for creating an [Engine].
type EngineOpts struct {
	Credentials CredentialSource
	Source      services.SourceAPI
	Destination services.DestinationAPI
	Matcher     *Matcher // optional, built from Destination when nil
	History     HistoryRecorder
	Logger      *log.Logger
	Now         func() time.Time // test hook
}

// NewEngine creates a migration engine with the provided dependencies.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Matcher == nil {
		opts.Matcher = NewMatcher(opts.Destination, 0, opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		creds:   opts.Credentials,
		source:  opts.Source,
		matcher: opts.Matcher,
		dest:    opts.Destination,
		history: opts.History,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls the pipeline.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes one migration run to completion.
//
// Source playlists are fetched best-effort: a playlist that cannot be fetched
// is logged and skipped, and the run proceeds with whatever the others
// yielded. The destination is not touched until at least one track has been
// fetched, and no playlist is created unless at least one track matched.
func (e *Engine) Run(ctx context.Context, userID string, req models.MigrationRequest, progress chan<- ProgressUpdate) (*models.MigrationReport, error) {
	e.sendProgress(progress, validatingUpdate())

	if err := validateRequest(req); err != nil {
		return nil, e.fail(progress, Validating, userID, req, nil, err)
	}

	spotifyCred, err := e.creds.Valid(ctx, userID, models.ProviderSpotify)
	if err != nil {
		return nil, e.fail(progress, Validating, userID, req, nil, err)
	}
	youtubeCred, err := e.creds.Valid(ctx, userID, models.ProviderYouTube)
	if err != nil {
		return nil, e.fail(progress, Validating, userID, req, nil, err)
	}

	tracks, err := e.fetchSource(ctx, spotifyCred.AccessToken, req, progress)
	if err != nil {
		return nil, e.fail(progress, FetchingSource, userID, req, nil, err)
	}

	outcomes, err := e.matcher.Match(ctx, youtubeCred.AccessToken, tracks, func(step, total int, outcome models.MatchOutcome) {
		e.sendProgress(progress, matchTrackUpdate(step, total, outcome))
	})
	if err != nil {
		return nil, e.fail(progress, Matching, userID, req, nil, err)
	}

	report := assembleReport(outcomes)

	matched := make([]models.MatchOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Status == models.Matched {
			matched = append(matched, o)
		}
	}

	if len(matched) == 0 {
		failErr := shared.ErrNoMatchesFound
		detail := fmt.Sprintf("no tracks matched out of %d", len(outcomes))
		if report.QuotaExceeded {
			failErr = shared.ErrQuotaExceeded
			searched := len(outcomes) - len(report.QuotaExceededTracks) + 1
			detail = fmt.Sprintf("no tracks matched, quota exhausted after %d of %d searches", searched, len(outcomes))
		}
		return nil, e.fail(progress, Matching, userID, req, report, fmt.Errorf("%w: %s", failErr, detail))
	}

	if err := e.build(ctx, youtubeCred.AccessToken, req.TargetPlaylistName, matched, report, progress); err != nil {
		return nil, e.fail(progress, Building, userID, req, report, err)
	}

	e.record(userID, req, report, Done, nil)
	e.sendProgress(progress, doneUpdate(report))
	e.logger.Info("migration complete",
		"user", userID,
		"playlist", report.DestinationPlaylistID,
		"added", report.TotalVideosAdded,
		"total", report.TotalTracksProcessed,
		"quota_exceeded", report.QuotaExceeded)

	return report, nil
}

// fetchSource aggregates tracks from every requested playlist, applying the
// requested window to each, and skipping playlists that fail to fetch.
func (e *Engine) fetchSource(ctx context.Context, accessToken string, req models.MigrationRequest, progress chan<- ProgressUpdate) ([]models.Track, error) {
	window := models.Window{
		Limit:       req.TrackLimit,
		LatestFirst: req.LimitMode == models.LimitModeLatest,
	}

	var tracks []models.Track
	total := len(req.SourcePlaylistIDs)

	for i, playlistID := range req.SourcePlaylistIDs {
		e.sendProgress(progress, fetchPlaylistUpdate(i+1, total, playlistID))

		fetched, err := e.source.PlaylistTracks(ctx, accessToken, playlistID)
		if err != nil {
			// Per-call timeouts are per-playlist failures; only the caller
			// giving up aborts the fetch phase.
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", shared.ErrCancelled, err)
			}
			e.logger.Warn("skipping unfetchable playlist", "playlist", playlistID, "error", err)
			e.sendProgress(progress, fetchFailedUpdate(i+1, total, playlistID, err))
			continue
		}

		tracks = append(tracks, window.Apply(fetched)...)
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: %d playlist(s) yielded no tracks", shared.ErrNoTracksFound, total)
	}

	return tracks, nil
}

// build creates the destination playlist and appends every matched video in
// order. A failed append is fatal; videos already added stay where they are.
func (e *Engine) build(ctx context.Context, accessToken, title string, matched []models.MatchOutcome, report *models.MigrationReport, progress chan<- ProgressUpdate) error {
	e.sendProgress(progress, creatingPlaylistUpdate(title))

	playlistID, err := e.dest.CreatePlaylist(ctx, accessToken, title)
	if err != nil {
		return fmt.Errorf("%w: create playlist: %v", shared.ErrBuildFailed, err)
	}
	report.DestinationPlaylistID = playlistID

	for i, o := range matched {
		e.sendProgress(progress, insertVideoUpdate(i+1, len(matched), o.VideoID))

		if err := e.dest.InsertPlaylistItem(ctx, accessToken, playlistID, o.VideoID); err != nil {
			return fmt.Errorf("%w: insert %s after %d added: %v", shared.ErrBuildFailed, o.Track.Label(), report.TotalVideosAdded, err)
		}
		report.TotalVideosAdded++
	}

	return nil
}

// fail records the run, emits the failure update, and returns err unchanged.
func (e *Engine) fail(progress chan<- ProgressUpdate, phase Phase, userID string, req models.MigrationRequest, report *models.MigrationReport, err error) error {
	e.logger.Error("migration failed", "user", userID, "phase", phase, "error", err)
	e.record(userID, req, report, Failed, err)
	e.sendProgress(progress, failedUpdate(phase, err))
	return err
}

// record persists the run outcome best-effort.
func (e *Engine) record(userID string, req models.MigrationRequest, report *models.MigrationReport, status Phase, runErr error) {
	if e.history == nil {
		return
	}

	rec := models.MigrationRecord{
		ID:         shared.GenerateID(),
		UserID:     userID,
		TargetName: req.TargetPlaylistName,
		Status:     status.String(),
		CreatedAt:  e.now(),
	}
	if report != nil {
		rec.ID = report.ID
		rec.TargetPlaylistID = report.DestinationPlaylistID
		rec.TracksTotal = report.TotalTracksProcessed
		rec.VideosAdded = report.TotalVideosAdded
		rec.UnmatchedCount = len(report.UnmatchedTracks)
		rec.QuotaCount = len(report.QuotaExceededTracks)
		rec.QuotaExceeded = report.QuotaExceeded
	}
	if runErr != nil {
		rec.ErrorMessage = runErr.Error()
	}

	if err := e.history.RecordMigration(rec); err != nil {
		e.logger.Warn("failed to record migration run", "user", userID, "error", err)
	}
}

// validateRequest enforces the request invariants before any provider call.
func validateRequest(req models.MigrationRequest) error {
	if len(req.SourcePlaylistIDs) == 0 {
		return fmt.Errorf("%w: at least one source playlist id is required", shared.ErrValidation)
	}
	for _, id := range req.SourcePlaylistIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: source playlist ids must be non-empty", shared.ErrValidation)
		}
	}
	if strings.TrimSpace(req.TargetPlaylistName) == "" {
		return fmt.Errorf("%w: target playlist name is required", shared.ErrValidation)
	}

	switch req.LimitMode {
	case "", models.LimitModeAll:
	case models.LimitModeLatest:
		if req.TrackLimit <= 0 {
			return fmt.Errorf("%w: limit mode %q requires a positive track limit", shared.ErrValidation, req.LimitMode)
		}
	default:
		return fmt.Errorf("%w: unknown limit mode %q", shared.ErrValidation, req.LimitMode)
	}
	if req.TrackLimit < 0 {
		return fmt.Errorf("%w: track limit must not be negative", shared.ErrValidation)
	}

	return nil
}

// assembleReport folds match outcomes into the reconciliation report. The
// destination playlist id and added count are filled during the build phase.
func assembleReport(outcomes []models.MatchOutcome) *models.MigrationReport {
	report := &models.MigrationReport{
		ID:                   shared.GenerateID(),
		TotalTracksProcessed: len(outcomes),
		UnmatchedTracks:      []string{},
		QuotaExceededTracks:  []string{},
	}

	for _, o := range outcomes {
		switch o.Status {
		case models.Unmatched:
			report.UnmatchedTracks = append(report.UnmatchedTracks, o.Track.Label())
		case models.QuotaExceeded:
			report.QuotaExceededTracks = append(report.QuotaExceededTracks, o.Track.Label())
		}
	}

	report.QuotaExceeded = len(report.QuotaExceededTracks) > 0
	return report
}
