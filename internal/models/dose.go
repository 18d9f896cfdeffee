package models

import (
	"time"

	"github.com/Kerhoff/DoseboT/internal/adherence"
)

// DoseOverride is the persisted status of one dose slot. At most one row
// exists per (medication_id, dose_date, dose_time); writes are last-write-wins
// upserts. Dose slots without a row are unmarked.
type DoseOverride struct {
	ID           int64            `json:"id" db:"id"`
	MedicationID int64            `json:"medication_id" db:"medication_id"`
	DoseDate     time.Time        `json:"dose_date" db:"dose_date"`
	DoseTime     string           `json:"dose_time" db:"dose_time"`
	Status       adherence.Status `json:"status" db:"status"`
	MarkedByID   int64            `json:"marked_by_id" db:"marked_by_id"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// Key returns the engine override key for this row.
func (o *DoseOverride) Key() adherence.OverrideKey {
	return adherence.OverrideKey{
		MedicationID: o.MedicationID,
		Date:         adherence.DateOf(o.DoseDate),
		Time:         o.DoseTime,
	}
}
