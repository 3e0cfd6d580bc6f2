// Spotify API implementation of [SourceAPI]
//
// Response shapes based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/shared"
)

const (
	spotifyBaseURL  = "https://api.spotify.com/v1"
	defaultPageSize = 50
)

// spotifyTrack mirrors the fields requested via the fields query parameter.
type spotifyTrack struct {
	Name       string `json:"name"`
	DurationMS int    `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

// spotifyTracksPage is one page of a playlist's tracks. Track is nullable:
// removed and local-only entries come back with a null track object.
type spotifyTracksPage struct {
	Items []struct {
		Track *spotifyTrack `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

// spotifyPlaylist carries the playlist summary fields used for selection.
type spotifyPlaylist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// spotifyPlaylistsPage is one page of the user's playlists.
type spotifyPlaylistsPage struct {
	Items []spotifyPlaylist `json:"items"`
	Next  *string           `json:"next"`
}

// SpotifyClient implements [SourceAPI] and [SourceBrowser] against the
// Spotify Web API.
type SpotifyClient struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
	timeout    time.Duration
}

// SpotifyOpts contains configuration options for creating a [SpotifyClient].
type SpotifyOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	PageSize   int
	Timeout    time.Duration // per-call deadline
}

// NewSpotifyClient creates a Spotify client with the given options.
func NewSpotifyClient(opts SpotifyOpts) *SpotifyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.PageSize <= 0 || opts.PageSize > 50 {
		opts.PageSize = defaultPageSize
	}

	return &SpotifyClient{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		pageSize:   opts.PageSize,
		timeout:    opts.Timeout,
	}
}

// PlaylistTracks retrieves all tracks for a playlist, following the next
// cursor until the terminal page.
//
// Items without a resolvable track (removed or local-only entries) are
// skipped and do not appear in the output. Order is the source-provider
// order, oldest-added-first.
func (s *SpotifyClient) PlaylistTracks(ctx context.Context, accessToken, playlistID string) ([]models.Track, error) {
	var tracks []models.Track

	url := fmt.Sprintf("%s/playlists/%s/tracks?fields=items(track(name,duration_ms,artists(name))),next&limit=%d",
		s.baseURL, playlistID, s.pageSize)

	for url != "" {
		var page spotifyTracksPage
		if err := s.getJSON(ctx, accessToken, url, &page); err != nil {
			return nil, fmt.Errorf("%w: playlist %s: %w", shared.ErrFetchFailed, playlistID, err)
		}

		for _, item := range page.Items {
			t := item.Track
			if t == nil || t.Name == "" || len(t.Artists) == 0 || t.Artists[0].Name == "" {
				continue
			}
			tracks = append(tracks, models.Track{
				Name:       t.Name,
				Artist:     t.Artists[0].Name,
				DurationMS: t.DurationMS,
			})
		}

		if page.Next == nil {
			break
		}
		url = *page.Next
	}

	return tracks, nil
}

// UserPlaylists retrieves the authenticated user's playlists, following the
// next cursor until the terminal page.
func (s *SpotifyClient) UserPlaylists(ctx context.Context, accessToken string) ([]models.Playlist, error) {
	var playlists []models.Playlist

	url := fmt.Sprintf("%s/me/playlists?limit=%d", s.baseURL, s.pageSize)

	for url != "" {
		var page spotifyPlaylistsPage
		if err := s.getJSON(ctx, accessToken, url, &page); err != nil {
			return nil, fmt.Errorf("%w: user playlists: %w", shared.ErrFetchFailed, err)
		}

		for _, item := range page.Items {
			playlists = append(playlists, models.Playlist{
				ID:         item.ID,
				Name:       item.Name,
				TrackCount: item.Tracks.Total,
			})
		}

		if page.Next == nil {
			break
		}
		url = *page.Next
	}

	return playlists, nil
}

// getJSON performs one authenticated page request with a per-call deadline,
// decoding the response body into out.
func (s *SpotifyClient) getJSON(ctx context.Context, accessToken, url string, out any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
