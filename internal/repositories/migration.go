package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/crossfade/internal/models"
	"github.com/desertthunder/crossfade/internal/shared"
)

// MigrationRepository records migration run outcomes for later inspection.
//
// Implements tasks.HistoryRecorder. Rows are append-only; a run's record is
// written exactly once, when it finishes or fails.
type MigrationRepository struct {
	db *sql.DB
}

// NewMigrationRepository creates a new MigrationRepository with the given database connection
func NewMigrationRepository(db *sql.DB) *MigrationRepository {
	return &MigrationRepository{db: db}
}

// RecordMigration inserts one run record with a generated sequence number.
func (r *MigrationRepository) RecordMigration(rec models.MigrationRecord) error {
	sequence, err := NextSequence(r.db, "migrations")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if rec.ID == "" {
		rec.ID = shared.GenerateID()
	}

	query := `
		INSERT INTO migrations (
			id, sequence, user_id, target_name, target_playlist_id,
			tracks_total, videos_added, unmatched_count, quota_count,
			quota_exceeded, status, error_message, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var targetPlaylistID any = rec.TargetPlaylistID
	if rec.TargetPlaylistID == "" {
		targetPlaylistID = nil
	}
	var errorMessage any = rec.ErrorMessage
	if rec.ErrorMessage == "" {
		errorMessage = nil
	}

	_, err = r.db.Exec(query,
		rec.ID,
		sequence,
		rec.UserID,
		rec.TargetName,
		targetPlaylistID,
		rec.TracksTotal,
		rec.VideosAdded,
		rec.UnmatchedCount,
		rec.QuotaCount,
		rec.QuotaExceeded,
		rec.Status,
		errorMessage,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert migration record: %w", err)
	}

	return nil
}

// ListByUser retrieves a user's run history, newest first.
func (r *MigrationRepository) ListByUser(userID string) ([]models.MigrationRecord, error) {
	query := `
		SELECT
			id, sequence, user_id, target_name, target_playlist_id,
			tracks_total, videos_added, unmatched_count, quota_count,
			quota_exceeded, status, error_message, created_at
		FROM migrations
		WHERE user_id = ?
		ORDER BY sequence DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var records []models.MigrationRecord
	for rows.Next() {
		rec, err := scanMigration(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

func scanMigration(rows *sql.Rows) (models.MigrationRecord, error) {
	var (
		rec              models.MigrationRecord
		targetPlaylistID sql.NullString
		errorMessage     sql.NullString
	)

	err := rows.Scan(
		&rec.ID, &rec.Sequence, &rec.UserID, &rec.TargetName, &targetPlaylistID,
		&rec.TracksTotal, &rec.VideosAdded, &rec.UnmatchedCount, &rec.QuotaCount,
		&rec.QuotaExceeded, &rec.Status, &errorMessage, &rec.CreatedAt,
	)
	if err != nil {
		return models.MigrationRecord{}, fmt.Errorf("failed to scan migration record: %w", err)
	}

	rec.TargetPlaylistID = targetPlaylistID.String
	rec.ErrorMessage = errorMessage.String
	return rec, nil
}
