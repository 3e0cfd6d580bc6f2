package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/shared"
	"golang.org/x/sync/singleflight"
)

// AuthError reports a missing or unrefreshable credential for a named provider.
type AuthError struct {
	Provider models.Provider
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Refresher exchanges an expired credential's refresh token for a new credential.
type Refresher interface {
	Refresh(ctx context.Context, cred models.Credential) (models.Credential, error)
}

// Persister writes credential changes through to durable storage.
//
// Persistence is best-effort: a write failure is logged, not surfaced, since
// the in-memory snapshot remains authoritative for the running process.
type Persister interface {
	SaveCredential(userID string, cred models.Credential) error
	DeleteCredential(userID string, provider models.Provider) error
}

// Store holds credential snapshots for all users and drives token refresh.
type Store struct {
	mu    sync.RWMutex
	sets  map[string]models.CredentialSet
	group singleflight.Group

	refresher Refresher
	persister Persister
	buffer    time.Duration
	now       func() time.Time
	logger    *log.Logger
}

// StoreOpts contains configuration options for creating a [Store].
type StoreOpts struct {
	Refresher Refresher
	Persister Persister     // optional
	Buffer    time.Duration // refresh buffer, defaults to 60s
	Logger    *log.Logger
	Now       func() time.Time // test hook
}

// NewStore creates a credential store with the provided options.
func NewStore(opts StoreOpts) *Store {
	if opts.Buffer <= 0 {
		opts.Buffer = 60 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Store{
		sets:      make(map[string]models.CredentialSet),
		refresher: opts.Refresher,
		persister: opts.Persister,
		buffer:    opts.Buffer,
		now:       opts.Now,
		logger:    opts.Logger,
	}
}

// Seed installs a previously persisted snapshot for a user, replacing any
// in-memory state. Intended for startup hydration from the repository.
func (s *Store) Seed(userID string, set models.CredentialSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[userID] = set
}

// Snapshot returns the current credential set for a user.
func (s *Store) Snapshot(userID string) models.CredentialSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sets[userID]
}

// Put stores a freshly issued credential, e.g. after an authorization-code
// exchange, producing a new snapshot.
func (s *Store) Put(userID string, cred models.Credential) {
	s.mu.Lock()
	s.sets[userID] = s.sets[userID].With(cred)
	s.mu.Unlock()

	s.persist(userID, cred)
}

// Disconnect clears the credential for one provider, leaving others untouched.
func (s *Store) Disconnect(userID string, provider models.Provider) {
	s.clear(userID, provider)
}

// Valid returns a usable credential for the provider, refreshing it first
// when it is expired or expires within the configured buffer.
//
// Concurrent callers during a refresh share a single in-flight refresh call
// and receive the same result. On a refresh failure, or when no refresh token
// exists for an expired credential, the provider's fields are cleared and an
// [*AuthError] is returned; the other provider's credential is untouched.
func (s *Store) Valid(ctx context.Context, userID string, provider models.Provider) (models.Credential, error) {
	cred, ok := s.lookup(userID, provider)
	if !ok || !cred.Connected() {
		return models.Credential{}, &AuthError{Provider: provider, Err: shared.ErrNotAuthenticated}
	}

	if !cred.ExpiresWithin(s.buffer, s.now()) {
		return cred, nil
	}

	if cred.RefreshToken == "" {
		s.clear(userID, provider)
		return models.Credential{}, &AuthError{Provider: provider, Err: shared.ErrNoRefreshToken}
	}

	key := userID + ":" + string(provider)
	v, err, dup := s.group.Do(key, func() (any, error) {
		return s.refresh(ctx, userID, cred)
	})
	if err != nil {
		return models.Credential{}, &AuthError{Provider: provider, Err: err}
	}
	if dup {
		s.logger.Debug("refresh result shared across callers", "user", userID, "provider", provider)
	}

	return v.(models.Credential), nil
}

// refresh performs the actual token refresh and snapshot replacement.
// Runs inside the singleflight group, at most once per key at a time.
func (s *Store) refresh(ctx context.Context, userID string, cred models.Credential) (models.Credential, error) {
	fresh, err := s.refresher.Refresh(ctx, cred)
	if err != nil {
		s.logger.Warn("token refresh failed, clearing credential",
			"user", userID, "provider", cred.Provider, "error", err)
		s.clear(userID, cred.Provider)
		return models.Credential{}, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	fresh.Provider = cred.Provider
	if fresh.RefreshToken == "" {
		// Providers only issue a new refresh token sometimes; keep the old one.
		fresh.RefreshToken = cred.RefreshToken
	}

	s.mu.Lock()
	s.sets[userID] = s.sets[userID].With(fresh)
	s.mu.Unlock()

	s.persist(userID, fresh)
	return fresh, nil
}

func (s *Store) lookup(userID string, provider models.Provider) (models.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sets[userID].Get(provider)
}

func (s *Store) clear(userID string, provider models.Provider) {
	s.mu.Lock()
	s.sets[userID] = s.sets[userID].Without(provider)
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.DeleteCredential(userID, provider); err != nil {
			s.logger.Warn("failed to delete persisted credential",
				"user", userID, "provider", provider, "error", err)
		}
	}
}

func (s *Store) persist(userID string, cred models.Credential) {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveCredential(userID, cred); err != nil {
		s.logger.Warn("failed to persist credential",
			"user", userID, "provider", cred.Provider, "error", err)
	}
}
