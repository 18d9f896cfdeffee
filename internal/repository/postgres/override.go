package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/DoseboT/internal/models"
	"github.com/Kerhoff/DoseboT/internal/repository"
)

type doseOverrideRepository struct {
	db *sql.DB
}

// NewDoseOverrideRepository creates a new dose override repository
func NewDoseOverrideRepository(db *sql.DB) repository.DoseOverrideRepository {
	return &doseOverrideRepository{db: db}
}

// Upsert writes the status for one dose slot. The unique index on
// (medication_id, dose_date, dose_time) makes repeated writes to the same
// slot last-write-wins.
func (r *doseOverrideRepository) Upsert(ctx context.Context, override *models.DoseOverride) (*models.DoseOverride, error) {
	query := `
		INSERT INTO dose_overrides (medication_id, dose_date, dose_time, status, marked_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (medication_id, dose_date, dose_time)
		DO UPDATE SET status = EXCLUDED.status, marked_by_id = EXCLUDED.marked_by_id, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`

	now := time.Now()
	override.CreatedAt = now
	override.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		override.MedicationID,
		override.DoseDate,
		override.DoseTime,
		override.Status,
		override.MarkedByID,
		override.CreatedAt,
		override.UpdatedAt,
	).Scan(&override.ID, &override.CreatedAt, &override.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert dose override: %w", err)
	}

	return override, nil
}

func (r *doseOverrideRepository) GetByChatIDAndRange(ctx context.Context, chatID int64, from, to time.Time) ([]*models.DoseOverride, error) {
	query := `
		SELECT o.id, o.medication_id, o.dose_date, o.dose_time, o.status, o.marked_by_id, o.created_at, o.updated_at
		FROM dose_overrides o
		JOIN medications m ON m.id = o.medication_id
		WHERE m.chat_id = $1 AND o.dose_date >= $2 AND o.dose_date <= $3
		ORDER BY o.dose_date ASC, o.dose_time ASC`

	rows, err := r.db.QueryContext(ctx, query, chatID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query dose overrides by chat ID: %w", err)
	}
	defer rows.Close()

	return scanOverrides(rows)
}

func (r *doseOverrideRepository) GetByMedicationID(ctx context.Context, medicationID int64) ([]*models.DoseOverride, error) {
	query := `
		SELECT id, medication_id, dose_date, dose_time, status, marked_by_id, created_at, updated_at
		FROM dose_overrides
		WHERE medication_id = $1
		ORDER BY dose_date ASC, dose_time ASC`

	rows, err := r.db.QueryContext(ctx, query, medicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dose overrides by medication ID: %w", err)
	}
	defer rows.Close()

	return scanOverrides(rows)
}

func (r *doseOverrideRepository) Delete(ctx context.Context, medicationID int64, doseDate time.Time, doseTime string) error {
	query := `DELETE FROM dose_overrides WHERE medication_id = $1 AND dose_date = $2 AND dose_time = $3`

	if _, err := r.db.ExecContext(ctx, query, medicationID, doseDate, doseTime); err != nil {
		return fmt.Errorf("failed to delete dose override: %w", err)
	}

	return nil
}

func (r *doseOverrideRepository) DeleteByMedicationID(ctx context.Context, medicationID int64) error {
	query := `DELETE FROM dose_overrides WHERE medication_id = $1`

	if _, err := r.db.ExecContext(ctx, query, medicationID); err != nil {
		return fmt.Errorf("failed to delete dose overrides for medication: %w", err)
	}

	return nil
}

func scanOverrides(rows *sql.Rows) ([]*models.DoseOverride, error) {
	var overrides []*models.DoseOverride
	for rows.Next() {
		o := &models.DoseOverride{}
		err := rows.Scan(
			&o.ID,
			&o.MedicationID,
			&o.DoseDate,
			&o.DoseTime,
			&o.Status,
			&o.MarkedByID,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dose override: %w", err)
		}
		overrides = append(overrides, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dose overrides: %w", err)
	}

	return overrides, nil
}
