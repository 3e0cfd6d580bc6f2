package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossfade/internal/auth"
	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/shared"
	"golang.org/x/oauth2"
)

// AuthHandler drives the authorization-code flow for both providers.
//
// GET /auth/{provider} redirects to the provider's consent page with a fresh
// state token; GET /auth/{provider}/callback validates the state, exchanges
// the code and stores the resulting credential for the requesting user.
type AuthHandler struct {
	store     *auth.Store
	refresher *auth.OAuthRefresher
	logger    *log.Logger

	mu     sync.Mutex
	states map[string]string // state token -> user id
}

// NewAuthHandler creates the OAuth login/callback handler.
func NewAuthHandler(store *auth.Store, refresher *auth.OAuthRefresher, logger *log.Logger) *AuthHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AuthHandler{
		store:     store,
		refresher: refresher,
		logger:    logger,
		states:    make(map[string]string),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{
		"GET /auth/{provider}",
		"GET /auth/{provider}/callback",
	}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	provider, err := models.ParseProvider(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	conf, ok := h.refresher.Config(provider)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("provider %q not configured", provider))
		return
	}

	if r.URL.Path == fmt.Sprintf("/auth/%s/callback", provider) {
		h.callback(w, r, provider, conf)
		return
	}
	h.login(w, r, provider, conf)
}

// login issues the redirect to the provider's consent page.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, provider models.Provider, conf *oauth2.Config) {
	state := shared.GenerateID()

	h.mu.Lock()
	h.states[state] = UserID(r.Context())
	h.mu.Unlock()

	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if provider == models.ProviderYouTube {
		// Google only reissues a refresh token when consent is re-prompted.
		opts = append(opts, oauth2.ApprovalForce)
	}

	http.Redirect(w, r, conf.AuthCodeURL(state, opts...), http.StatusTemporaryRedirect)
}

// callback validates state, exchanges the authorization code and stores the
// credential.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request, provider models.Provider, conf *oauth2.Config) {
	state := r.URL.Query().Get("state")

	h.mu.Lock()
	userID, ok := h.states[state]
	delete(h.states, state)
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid state parameter"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		writeError(w, http.StatusBadRequest, fmt.Errorf("authorization failed: %s", errParam))
		return
	}

	token, err := conf.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "provider", provider, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("token exchange failed"))
		return
	}

	h.store.Put(userID, models.Credential{
		Provider:     provider,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	})
	h.logger.Info("provider connected", "user", userID, "provider", provider)

	writeResponse(w, http.StatusOK, map[string]string{"connected": string(provider)})
}
