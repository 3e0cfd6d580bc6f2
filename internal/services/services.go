// package services implements HTTP clients for the provider APIs.
//
// Spotify (migration source), YouTube (migration destination)
package services

import (
	"context"

	"github.com/desertthunder/crossfade/internal/models"
)

// SourceAPI is the surface the migration pipeline needs from the source provider.
type SourceAPI interface {
	// PlaylistTracks retrieves every track of a playlist, following
	// pagination to completion, in source-provider order.
	PlaylistTracks(ctx context.Context, accessToken, playlistID string) ([]models.Track, error)
}

// SourceBrowser lists a user's playlists on the source provider, so callers
// can pick migration inputs.
type SourceBrowser interface {
	// UserPlaylists retrieves every playlist of the authenticated user,
	// following pagination to completion.
	UserPlaylists(ctx context.Context, accessToken string) ([]models.Playlist, error)
}

// DestinationAPI is the surface the migration pipeline needs from the
// destination provider.
type DestinationAPI interface {
	// SearchVideo returns the first matching video id for a query, or the
	// empty string when the search returns no results.
	SearchVideo(ctx context.Context, accessToken, query string) (string, error)

	// CreatePlaylist creates a new private playlist and returns its id.
	CreatePlaylist(ctx context.Context, accessToken, title string) (string, error)

	// InsertPlaylistItem appends one video to a playlist.
	InsertPlaylistItem(ctx context.Context, accessToken, playlistID, videoID string) error
}
