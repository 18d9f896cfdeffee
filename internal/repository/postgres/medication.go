package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/DoseboT/internal/models"
	"github.com/Kerhoff/DoseboT/internal/repository"
)

type medicationRepository struct {
	db *sql.DB
}

// NewMedicationRepository creates a new medication repository
func NewMedicationRepository(db *sql.DB) repository.MedicationRepository {
	return &medicationRepository{db: db}
}

const medicationColumns = `id, chat_id, created_by_id, name, dosage, frequency, weekdays, times, start_date, end_date, active, created_at, updated_at`

func scanMedication(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.Medication, error) {
	med := &models.Medication{}
	err := scanner.Scan(
		&med.ID,
		&med.ChatID,
		&med.CreatedByID,
		&med.Name,
		&med.Dosage,
		&med.Frequency,
		pq.Array(&med.Weekdays),
		pq.Array(&med.Times),
		&med.StartDate,
		&med.EndDate,
		&med.Active,
		&med.CreatedAt,
		&med.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return med, nil
}

func (r *medicationRepository) Create(ctx context.Context, med *models.Medication) (*models.Medication, error) {
	query := `
		INSERT INTO medications (chat_id, created_by_id, name, dosage, frequency, weekdays, times, start_date, end_date, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	med.CreatedAt = now
	med.UpdatedAt = now
	med.Active = true

	err := r.db.QueryRowContext(ctx, query,
		med.ChatID,
		med.CreatedByID,
		med.Name,
		med.Dosage,
		med.Frequency,
		pq.Array(med.Weekdays),
		pq.Array(med.Times),
		med.StartDate,
		med.EndDate,
		med.Active,
		med.CreatedAt,
		med.UpdatedAt,
	).Scan(&med.ID, &med.CreatedAt, &med.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}

	return med, nil
}

func (r *medicationRepository) GetByID(ctx context.Context, id int64) (*models.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1`

	med, err := scanMedication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	return med, nil
}

func (r *medicationRepository) GetByChatID(ctx context.Context, chatID int64, filters repository.MedicationFilters) ([]*models.Medication, error) {
	query := `SELECT ` + medicationColumns + ` FROM medications WHERE chat_id = $1`
	args := []interface{}{chatID}
	argIdx := 2

	if filters.ActiveOnly {
		query += " AND active = true"
	}

	query += " ORDER BY name ASC, id ASC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
		argIdx++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications by chat ID: %w", err)
	}
	defer rows.Close()

	var meds []*models.Medication
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		meds = append(meds, med)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate medications: %w", err)
	}

	return meds, nil
}

func (r *medicationRepository) Update(ctx context.Context, med *models.Medication) (*models.Medication, error) {
	query := `
		UPDATE medications
		SET name = $2, dosage = $3, frequency = $4, weekdays = $5, times = $6,
		    start_date = $7, end_date = $8, active = $9, updated_at = $10
		WHERE id = $1
		RETURNING updated_at`

	med.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		med.ID,
		med.Name,
		med.Dosage,
		med.Frequency,
		pq.Array(med.Weekdays),
		pq.Array(med.Times),
		med.StartDate,
		med.EndDate,
		med.Active,
		med.UpdatedAt,
	).Scan(&med.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to update medication: %w", err)
	}

	return med, nil
}

func (r *medicationRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE medications SET active = false, updated_at = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to deactivate medication: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("medication with ID %d not found", id)
	}

	return nil
}

func (r *medicationRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM medications WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("medication with ID %d not found", id)
	}

	return nil
}
