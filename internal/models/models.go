package models

import (
	"fmt"
	"time"
)

// Provider identifies one of the linked streaming services.
type Provider string

const (
	ProviderSpotify Provider = "spotify" // migration source
	ProviderYouTube Provider = "youtube" // migration destination
)

// ParseProvider validates a provider name from user input.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderSpotify:
		return ProviderSpotify, nil
	case ProviderYouTube:
		return ProviderYouTube, nil
	default:
		return "", fmt.Errorf("unknown provider %q", s)
	}
}

// Credential holds the OAuth tokens for one provider and one user.
//
// A zero ExpiresAt means the provider did not report an expiry.
type Credential struct {
	Provider     Provider
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Connected reports whether the provider is linked at all.
func (c Credential) Connected() bool {
	return c.AccessToken != ""
}

// ExpiresWithin reports whether the access token is expired or expires inside
// the given buffer, measured from now.
func (c Credential) ExpiresWithin(buffer time.Duration, now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt.Add(-buffer))
}

// CredentialSet is an immutable per-user mapping of provider to [Credential].
//
// Mutations produce a new snapshot so concurrent readers never observe a
// half-updated set.
type CredentialSet struct {
	creds map[Provider]Credential
}

// NewCredentialSet builds a snapshot from the given credentials.
func NewCredentialSet(creds ...Credential) CredentialSet {
	m := make(map[Provider]Credential, len(creds))
	for _, c := range creds {
		m[c.Provider] = c
	}
	return CredentialSet{creds: m}
}

// Get returns the credential for a provider, if present.
func (s CredentialSet) Get(p Provider) (Credential, bool) {
	c, ok := s.creds[p]
	return c, ok
}

// With returns a new snapshot with the given credential replaced.
func (s CredentialSet) With(c Credential) CredentialSet {
	m := make(map[Provider]Credential, len(s.creds)+1)
	for k, v := range s.creds {
		m[k] = v
	}
	m[c.Provider] = c
	return CredentialSet{creds: m}
}

// Without returns a new snapshot with the given provider's credential removed.
func (s CredentialSet) Without(p Provider) CredentialSet {
	m := make(map[Provider]Credential, len(s.creds))
	for k, v := range s.creds {
		if k != p {
			m[k] = v
		}
	}
	return CredentialSet{creds: m}
}

// Providers lists the providers present in the snapshot.
func (s CredentialSet) Providers() []Provider {
	out := make([]Provider, 0, len(s.creds))
	for p := range s.creds {
		out = append(out, p)
	}
	return out
}

// Len returns the number of credentials in the snapshot.
func (s CredentialSet) Len() int {
	return len(s.creds)
}

// Track is a single source track. Identity for matching purposes is the
// (Name, Artist) pair; no persistent ID is carried downstream.
type Track struct {
	Name       string
	Artist     string
	DurationMS int
}

// Label renders the human-readable "name - artist" form used in reports.
func (t Track) Label() string {
	return fmt.Sprintf("%s - %s", t.Name, t.Artist)
}

// Playlist is a source playlist summary, enough to pick migration inputs.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TrackCount int    `json:"trackCount"`
}

// MatchStatus is the outcome category for one track submitted to the matcher.
type MatchStatus int

const (
	Matched MatchStatus = iota
	Unmatched
	QuotaExceeded
)

func (s MatchStatus) String() string {
	switch s {
	case Matched:
		return "matched"
	case Unmatched:
		return "unmatched"
	case QuotaExceeded:
		return "quota_exceeded"
	default:
		return ""
	}
}

// MatchOutcome records the result of matching one track against the
// destination. VideoID is set only when Status is [Matched].
type MatchOutcome struct {
	Track   Track
	Status  MatchStatus
	VideoID string
}

// LimitMode selects how TrackLimit is interpreted in a [MigrationRequest].
const (
	LimitModeAll    = "all"
	LimitModeLatest = "latest"
)

// MigrationRequest is the validated input for one migration run.
type MigrationRequest struct {
	SourcePlaylistIDs  []string `json:"sourcePlaylistIds"`
	TargetPlaylistName string   `json:"targetPlaylistName"`
	TrackLimit         int      `json:"trackLimit,omitempty"`
	LimitMode          string   `json:"limitMode,omitempty"`
}

// Window restricts a fetched track sequence to its most recent entries.
type Window struct {
	Limit       int
	LatestFirst bool
}

// Apply windows a fully fetched track sequence.
//
// The whole playlist must be fetched first; source pagination has no reverse
// iteration, so "latest N" reverses the oldest-first sequence and truncates.
func (w Window) Apply(tracks []Track) []Track {
	if w.Limit <= 0 {
		return tracks
	}

	out := tracks
	if w.LatestFirst {
		out = make([]Track, len(tracks))
		for i, t := range tracks {
			out[len(tracks)-1-i] = t
		}
	}

	if len(out) > w.Limit {
		out = out[:w.Limit]
	}
	return out
}

// MigrationRecord is the persisted history row for one migration run,
// successful or not. Sequence is assigned by the repository on save.
type MigrationRecord struct {
	ID               string
	Sequence         int64
	UserID           string
	TargetName       string
	TargetPlaylistID string
	TracksTotal      int
	VideosAdded      int
	UnmatchedCount   int
	QuotaCount       int
	QuotaExceeded    bool
	Status           string
	ErrorMessage     string
	CreatedAt        time.Time
}

// MigrationReport is the terminal reconciliation output of one migration run.
//
// QuotaExceeded may be true on an overall-successful run when at least one
// match landed before the ceiling was hit.
type MigrationReport struct {
	ID                    string   `json:"id"`
	DestinationPlaylistID string   `json:"destinationPlaylistId"`
	TotalTracksProcessed  int      `json:"totalTracksProcessed"`
	TotalVideosAdded      int      `json:"totalVideosAdded"`
	UnmatchedTracks       []string `json:"unmatchedTracks"`
	QuotaExceededTracks   []string `json:"quotaExceededTracks"`
	QuotaExceeded         bool     `json:"quotaExceeded"`
}
