package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

var spotifyScopes = []string{
	"playlist-read-private",
	"playlist-read-collaborative",
}

var youtubeScopes = []string{
	"https://www.googleapis.com/auth/youtube",
}

// OAuthRefresher implements [Refresher] over [oauth2.Config] token sources.
//
// The refresh itself is a POST to the provider's token endpoint with
// grant_type=refresh_token and the provider's client credentials, handled by
// the oauth2 package.
type OAuthRefresher struct {
	configs map[models.Provider]*oauth2.Config
	client  *http.Client
}

// NewOAuthRefresher builds per-provider [oauth2.Config] values from the
// application credentials config.
//
// The httpClient parameter is optional; pass nil to use the oauth2 default.
func NewOAuthRefresher(cfg shared.CredentialsConfig, httpClient *http.Client) *OAuthRefresher {
	return &OAuthRefresher{
		client: httpClient,
		configs: map[models.Provider]*oauth2.Config{
			models.ProviderSpotify: {
				ClientID:     cfg.Spotify.ClientID,
				ClientSecret: cfg.Spotify.ClientSecret,
				RedirectURL:  cfg.Spotify.RedirectURI,
				Scopes:       spotifyScopes,
				Endpoint: oauth2.Endpoint{
					AuthURL:  spotifyAuthURL,
					TokenURL: spotifyTokenURL,
				},
			},
			models.ProviderYouTube: {
				ClientID:     cfg.YouTube.ClientID,
				ClientSecret: cfg.YouTube.ClientSecret,
				RedirectURL:  cfg.YouTube.RedirectURI,
				Scopes:       youtubeScopes,
				Endpoint:     google.Endpoint,
			},
		},
	}
}

// Config returns the [oauth2.Config] for a provider, used by the HTTP layer
// for the authorization-code flow.
func (r *OAuthRefresher) Config(p models.Provider) (*oauth2.Config, bool) {
	conf, ok := r.configs[p]
	return conf, ok
}

// Refresh exchanges the credential's refresh token for a new access token.
func (r *OAuthRefresher) Refresh(ctx context.Context, cred models.Credential) (models.Credential, error) {
	conf, ok := r.configs[cred.Provider]
	if !ok {
		return models.Credential{}, fmt.Errorf("no oauth config for provider %q", cred.Provider)
	}
	if cred.RefreshToken == "" {
		return models.Credential{}, shared.ErrNoRefreshToken
	}

	if r.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)
	}

	// A token with no access token is always stale, so Token() performs the
	// refresh grant immediately.
	stale := &oauth2.Token{RefreshToken: cred.RefreshToken}
	fresh, err := conf.TokenSource(ctx, stale).Token()
	if err != nil {
		return models.Credential{}, fmt.Errorf("token endpoint call failed: %w", err)
	}

	return models.Credential{
		Provider:     cred.Provider,
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		ExpiresAt:    fresh.Expiry,
	}, nil
}
