package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossfade/internal/auth"
	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/shared"
	"github.com/desertthunder/crossfade/internal/tasks"
)

// StatusClientClosedRequest is the nginx-conventional status for requests
// abandoned by the caller mid-flight.
const StatusClientClosedRequest = 499

// MigrationHandler serves POST /migrate, running a full migration
// synchronously and returning the reconciliation report.
type MigrationHandler struct {
	engine tasks.MigrationEngine
	logger *log.Logger
}

// NewMigrationHandler creates the migrate endpoint handler.
func NewMigrationHandler(engine tasks.MigrationEngine, logger *log.Logger) *MigrationHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MigrationHandler{engine: engine, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *MigrationHandler) Routes() []string {
	return []string{"POST /migrate"}
}

func (h *MigrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req models.MigrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: malformed request body", shared.ErrValidation))
		return
	}

	report, err := h.engine.Run(r.Context(), UserID(r.Context()), req, nil)
	if err != nil {
		writeError(w, migrationStatus(err), err)
		return
	}

	writeResponse(w, http.StatusOK, report)
}

// migrationStatus maps pipeline errors onto HTTP status codes.
//
// Quota exhaustion only reaches here when nothing at all matched; partial
// quota hits still produce a 200 with the report's quota fields set.
func migrationStatus(err error) int {
	var authErr *auth.AuthError

	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrNoTracksFound),
		errors.Is(err, shared.ErrNoMatchesFound):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrCancelled):
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}
