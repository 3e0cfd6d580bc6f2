package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/services"
	"github.com/desertthunder/crossfade/internal/shared"
	"golang.org/x/time/rate"
)

// defaultSearchInterval is the minimum spacing between destination search
// calls. Search is the most expensive operation on the destination's quota
// ledger, so the matcher never bursts.
const defaultSearchInterval = 1100 * time.Millisecond

// Matcher resolves source tracks to destination video ids, strictly
// sequentially and in input order.
type Matcher struct {
	dest    services.DestinationAPI
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewMatcher creates a matcher that paces search calls at the given interval.
// A non-positive interval selects the default of 1.1s.
func NewMatcher(dest services.DestinationAPI, interval time.Duration, logger *log.Logger) *Matcher {
	if interval <= 0 {
		interval = defaultSearchInterval
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Matcher{
		dest:    dest,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

// Match attempts to resolve every track to a video id.
//
// Queries are issued one at a time in input order, paced by the limiter (the
// first call is immediate, the last is not followed by a wait). The first
// quota-exhaustion error marks the current and all remaining tracks
// QuotaExceeded without issuing further calls; any other search failure,
// including a per-call timeout, marks only that track Unmatched. Only
// cancellation of the caller's context aborts the run, returning the outcomes
// accumulated so far alongside an error wrapping [shared.ErrCancelled].
//
// notify, when non-nil, is invoked after each outcome is decided.
func (m *Matcher) Match(ctx context.Context, accessToken string, tracks []models.Track, notify func(step, total int, outcome models.MatchOutcome)) ([]models.MatchOutcome, error) {
	total := len(tracks)
	outcomes := make([]models.MatchOutcome, 0, total)

	record := func(outcome models.MatchOutcome) {
		outcomes = append(outcomes, outcome)
		if notify != nil {
			notify(len(outcomes), total, outcome)
		}
	}

	for i, track := range tracks {
		if err := m.limiter.Wait(ctx); err != nil {
			return outcomes, fmt.Errorf("%w: %v", shared.ErrCancelled, err)
		}

		videoID, err := m.dest.SearchVideo(ctx, accessToken, track.Name+" "+track.Artist)

		switch {
		case errors.Is(err, shared.ErrQuotaExceeded):
			m.logger.Warn("destination quota exhausted, skipping remaining tracks",
				"track", track.Label(), "remaining", total-i)
			for _, rest := range tracks[i:] {
				record(models.MatchOutcome{Track: rest, Status: models.QuotaExceeded})
			}
			return outcomes, nil

		case err != nil && ctx.Err() != nil:
			return outcomes, fmt.Errorf("%w: %v", shared.ErrCancelled, err)

		case err != nil:
			m.logger.Warn("search failed, track left unmatched", "track", track.Label(), "error", err)
			record(models.MatchOutcome{Track: track, Status: models.Unmatched})

		case videoID == "":
			record(models.MatchOutcome{Track: track, Status: models.Unmatched})

		default:
			record(models.MatchOutcome{Track: track, Status: models.Matched, VideoID: videoID})
		}
	}

	return outcomes, nil
}
