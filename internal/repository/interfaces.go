package repository

import (
	"context"
	"time"

	"github.com/Kerhoff/DoseboT/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

// MedicationRepository defines the interface for medication data operations
type MedicationRepository interface {
	Create(ctx context.Context, med *models.Medication) (*models.Medication, error)
	GetByID(ctx context.Context, id int64) (*models.Medication, error)
	GetByChatID(ctx context.Context, chatID int64, filters MedicationFilters) ([]*models.Medication, error)
	Update(ctx context.Context, med *models.Medication) (*models.Medication, error)
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// DoseOverrideRepository defines the interface for dose status persistence.
// Upsert must be last-write-wins per (medication_id, dose_date, dose_time).
type DoseOverrideRepository interface {
	Upsert(ctx context.Context, override *models.DoseOverride) (*models.DoseOverride, error)
	GetByChatIDAndRange(ctx context.Context, chatID int64, from, to time.Time) ([]*models.DoseOverride, error)
	GetByMedicationID(ctx context.Context, medicationID int64) ([]*models.DoseOverride, error)
	Delete(ctx context.Context, medicationID int64, doseDate time.Time, doseTime string) error
	DeleteByMedicationID(ctx context.Context, medicationID int64) error
}

// MedicationFilters represents filters for querying medications
type MedicationFilters struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}
