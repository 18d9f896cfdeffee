package models

import (
	"strings"
	"time"

	"github.com/Kerhoff/DoseboT/internal/adherence"
)

// Medication represents a recurring medication schedule tracked in a chat.
// The schedule fields mirror adherence.Rule; individual doses are derived
// from them on demand and never stored.
type Medication struct {
	ID          int64               `json:"id" db:"id"`
	ChatID      int64               `json:"chat_id" db:"chat_id"`
	CreatedByID int64               `json:"created_by_id" db:"created_by_id"`
	Name        string              `json:"name" db:"name"`
	Dosage      string              `json:"dosage" db:"dosage"`
	Frequency   adherence.Frequency `json:"frequency" db:"frequency"`
	Weekdays    []int64             `json:"weekdays" db:"weekdays"` // Sunday=1..Saturday=7
	Times       []string            `json:"times" db:"times"`       // "HH:MM", rule order
	StartDate   time.Time           `json:"start_date" db:"start_date"`
	EndDate     *time.Time          `json:"end_date" db:"end_date"`
	Active      bool                `json:"active" db:"active"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" db:"updated_at"`
	CreatedBy   *User               `json:"created_by,omitempty"`
}

// ScheduleRule builds the engine rule for this medication. Stored rows can
// predate validation changes, so the result must still be checked.
func (m *Medication) ScheduleRule() (adherence.Rule, error) {
	weekdays := make([]adherence.Weekday, len(m.Weekdays))
	for i, d := range m.Weekdays {
		weekdays[i] = adherence.Weekday(d)
	}
	return adherence.NewRule(m.Frequency, weekdays, m.StartDate, m.EndDate, m.Times)
}

// Label returns the medication name with its dosage, e.g. "Ibuprofen (200mg)".
func (m *Medication) Label() string {
	if m.Dosage == "" {
		return m.Name
	}
	return m.Name + " (" + m.Dosage + ")"
}

// TimesLabel renders the dose times for display, e.g. "08:00, 20:00".
func (m *Medication) TimesLabel() string {
	return strings.Join(m.Times, ", ")
}
