package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/crossfade/internal/models"
)

// CredentialRepository persists per-(user, provider) OAuth credentials.
//
// Implements auth.Persister for write-through from the credential store, and
// supports startup hydration of snapshots via LoadAll.
type CredentialRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewCredentialRepository creates a new CredentialRepository with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db, now: time.Now}
}

// SaveCredential upserts one provider credential for a user.
func (r *CredentialRepository) SaveCredential(userID string, cred models.Credential) error {
	query := `
		INSERT INTO credentials (user_id, provider, access_token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	var expiresAt any
	if !cred.ExpiresAt.IsZero() {
		expiresAt = cred.ExpiresAt
	}

	if _, err := r.db.Exec(query, userID, string(cred.Provider), cred.AccessToken, cred.RefreshToken, expiresAt, r.now()); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// DeleteCredential removes one provider credential for a user. Deleting a row
// that does not exist is not an error.
func (r *CredentialRepository) DeleteCredential(userID string, provider models.Provider) error {
	if _, err := r.db.Exec("DELETE FROM credentials WHERE user_id = ? AND provider = ?", userID, string(provider)); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// LoadSet retrieves the credential snapshot for one user.
func (r *CredentialRepository) LoadSet(userID string) (models.CredentialSet, error) {
	rows, err := r.db.Query(
		"SELECT provider, access_token, refresh_token, expires_at FROM credentials WHERE user_id = ?", userID)
	if err != nil {
		return models.CredentialSet{}, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var creds []models.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return models.CredentialSet{}, err
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return models.CredentialSet{}, fmt.Errorf("row iteration error: %w", err)
	}

	return models.NewCredentialSet(creds...), nil
}

// LoadAll retrieves every user's credential snapshot, keyed by user id.
// Used to seed the in-memory store on startup.
func (r *CredentialRepository) LoadAll() (map[string]models.CredentialSet, error) {
	rows, err := r.db.Query("SELECT user_id, provider, access_token, refresh_token, expires_at FROM credentials")
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	byUser := make(map[string][]models.Credential)
	for rows.Next() {
		var (
			userID       string
			provider     string
			accessToken  string
			refreshToken string
			expiresAt    sql.NullTime
		)
		if err := rows.Scan(&userID, &provider, &accessToken, &refreshToken, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}

		cred := models.Credential{
			Provider:     models.Provider(provider),
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		}
		if expiresAt.Valid {
			cred.ExpiresAt = expiresAt.Time
		}
		byUser[userID] = append(byUser[userID], cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	sets := make(map[string]models.CredentialSet, len(byUser))
	for userID, creds := range byUser {
		sets[userID] = models.NewCredentialSet(creds...)
	}
	return sets, nil
}

func scanCredential(rows *sql.Rows) (models.Credential, error) {
	var (
		provider     string
		accessToken  string
		refreshToken string
		expiresAt    sql.NullTime
	)

	if err := rows.Scan(&provider, &accessToken, &refreshToken, &expiresAt); err != nil {
		return models.Credential{}, fmt.Errorf("failed to scan credential: %w", err)
	}

	cred := models.Credential{
		Provider:     models.Provider(provider),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if expiresAt.Valid {
		cred.ExpiresAt = expiresAt.Time
	}
	return cred, nil
}
