package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossfade/internal/auth"
	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/shared"
)

// DisconnectHandler serves POST /disconnect, clearing one provider's
// credential for the requesting user.
type DisconnectHandler struct {
	store  *auth.Store
	logger *log.Logger
}

// NewDisconnectHandler creates the disconnect endpoint handler.
func NewDisconnectHandler(store *auth.Store, logger *log.Logger) *DisconnectHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DisconnectHandler{store: store, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *DisconnectHandler) Routes() []string {
	return []string{"POST /disconnect"}
}

func (h *DisconnectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: malformed request body", shared.ErrValidation))
		return
	}

	provider, err := models.ParseProvider(body.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", shared.ErrValidation, err))
		return
	}

	userID := UserID(r.Context())
	h.store.Disconnect(userID, provider)
	h.logger.Info("provider disconnected", "user", userID, "provider", provider)

	writeResponse(w, http.StatusOK, map[string]string{"disconnected": string(provider)})
}
