package server

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossfade/internal/auth"
	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/services"
	"github.com/desertthunder/crossfade/internal/shared"
)

// PlaylistHandler serves GET /playlists, listing the requesting user's source
// playlists for migration selection.
type PlaylistHandler struct {
	store  *auth.Store
	source services.SourceBrowser
	logger *log.Logger
}

// NewPlaylistHandler creates the playlist listing endpoint handler.
func NewPlaylistHandler(store *auth.Store, source services.SourceBrowser, logger *log.Logger) *PlaylistHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistHandler{store: store, source: source, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *PlaylistHandler) Routes() []string {
	return []string{"GET /playlists"}
}

func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	cred, err := h.store.Valid(r.Context(), userID, models.ProviderSpotify)
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	playlists, err := h.source.UserPlaylists(r.Context(), cred.AccessToken)
	if err != nil {
		h.logger.Error("failed to list source playlists", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}

	writeResponse(w, http.StatusOK, map[string][]models.Playlist{"playlists": playlists})
}
