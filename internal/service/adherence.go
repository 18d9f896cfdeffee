package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/DoseboT/internal/adherence"
	"github.com/Kerhoff/DoseboT/internal/metrics"
	"github.com/Kerhoff/DoseboT/internal/models"
	"github.com/Kerhoff/DoseboT/internal/repository"
)

// MedicationDoses pairs a medication with its doses for one date.
type MedicationDoses struct {
	Medication *models.Medication `json:"medication"`
	Doses      []adherence.Dose   `json:"doses"`
}

// DayOverview is everything due on one date across a chat's medications,
// plus the aggregated day status.
type DayOverview struct {
	Date        time.Time           `json:"date"`
	Status      adherence.DayStatus `json:"status"`
	Medications []MedicationDoses   `json:"medications"`
}

// MedicationStats is one medication's share of an adherence report.
type MedicationStats struct {
	MedicationID int64                 `json:"medication_id"`
	Name         string                `json:"name"`
	Stats        adherence.PeriodStats `json:"stats"`
}

// AdherenceReport summarizes dose outcomes for a chat over a date range.
type AdherenceReport struct {
	From          time.Time             `json:"from"`
	To            time.Time             `json:"to"`
	Totals        adherence.PeriodStats `json:"totals"`
	PerMedication []MedicationStats     `json:"per_medication"`
}

// StreakReport holds the streak and activity rollups for a chat.
type StreakReport struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	LongestStreak int       `json:"longest_streak"`
	CurrentStreak int       `json:"current_streak"`
	ActiveDayRate int       `json:"active_day_rate"`
}

// Today returns the current date with the time-of-day stripped.
func (s *Service) Today() time.Time {
	return adherence.DateOf(s.now())
}

// activeMedications lists the chat's active medications.
func (s *Service) activeMedications(ctx context.Context, chatID int64) ([]*models.Medication, error) {
	meds, err := s.Medications.GetByChatID(ctx, chatID, repository.MedicationFilters{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list medications for chat %d: %w", chatID, err)
	}
	return meds, nil
}

// overrideLookup converts stored override rows into the engine's lookup map.
// Rows with an unreadable status are logged, counted and skipped so that one
// corrupt record never blocks analytics for the rest.
func (s *Service) overrideLookup(rows []*models.DoseOverride) adherence.Overrides {
	lookup := make(adherence.Overrides, len(rows))
	for _, row := range rows {
		if !row.Status.Valid() {
			s.logger.WithFields(logrus.Fields{
				"override_id":   row.ID,
				"medication_id": row.MedicationID,
				"status":        row.Status,
			}).Warn("Skipping dose override with unreadable status")
			metrics.CorruptRecordsSkipped.Inc()
			continue
		}
		lookup[row.Key()] = row.Status
	}
	return lookup
}

// scheduleRule builds the engine rule for a stored medication, or reports it
// as unusable. Stored rows can predate validation, so failures are skipped
// the same way corrupt overrides are.
func (s *Service) scheduleRule(med *models.Medication) (adherence.Rule, bool) {
	rule, err := med.ScheduleRule()
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"medication_id": med.ID,
			"error":         err,
		}).Warn("Skipping medication with unreadable schedule")
		metrics.CorruptRecordsSkipped.Inc()
		return adherence.Rule{}, false
	}
	return rule, true
}

// expandRange materializes every dose for the chat's active medications over
// [from, to], with persisted statuses applied.
func (s *Service) expandRange(ctx context.Context, chatID int64, from, to time.Time) ([]adherence.Dose, []*models.Medication, error) {
	meds, err := s.activeMedications(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.Overrides.GetByChatIDAndRange(ctx, chatID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dose overrides for chat %d: %w", chatID, err)
	}
	overrides := s.overrideLookup(rows)

	var doses []adherence.Dose
	for _, med := range meds {
		rule, ok := s.scheduleRule(med)
		if !ok {
			continue
		}
		doses = append(doses, adherence.DosesInRange(rule, med.ID, from, to, overrides)...)
	}
	return doses, meds, nil
}

// DayForChat expands all of a chat's active medications for one date and
// aggregates the day status.
func (s *Service) DayForChat(ctx context.Context, chatID int64, date time.Time) (*DayOverview, error) {
	day := adherence.DateOf(date)

	meds, err := s.activeMedications(ctx, chatID)
	if err != nil {
		return nil, err
	}

	rows, err := s.Overrides.GetByChatIDAndRange(ctx, chatID, day, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load dose overrides for chat %d: %w", chatID, err)
	}
	overrides := s.overrideLookup(rows)

	overview := &DayOverview{Date: day}
	var all []adherence.Dose
	for _, med := range meds {
		rule, ok := s.scheduleRule(med)
		if !ok {
			continue
		}
		doses := adherence.DosesOn(rule, med.ID, day, overrides)
		if len(doses) == 0 {
			continue
		}
		overview.Medications = append(overview.Medications, MedicationDoses{Medication: med, Doses: doses})
		all = append(all, doses...)
	}

	overview.Status = adherence.DayStatusOf(all)
	return overview, nil
}

// scheduledDose verifies that the medication belongs to the chat and actually
// has a dose slot at (date, time), returning its current expanded dose.
func (s *Service) scheduledDose(ctx context.Context, chatID, medicationID int64, date time.Time, doseTime string) (*models.Medication, adherence.Dose, error) {
	med, err := s.Medications.GetByID(ctx, medicationID)
	if err != nil {
		return nil, adherence.Dose{}, fmt.Errorf("failed to get medication %d: %w", medicationID, err)
	}
	if med == nil || med.ChatID != chatID {
		return nil, adherence.Dose{}, fmt.Errorf("medication %d not found in this chat", medicationID)
	}

	rule, err := med.ScheduleRule()
	if err != nil {
		return nil, adherence.Dose{}, fmt.Errorf("medication %d has an unreadable schedule: %w", medicationID, err)
	}

	day := adherence.DateOf(date)
	rows, err := s.Overrides.GetByChatIDAndRange(ctx, chatID, day, day)
	if err != nil {
		return nil, adherence.Dose{}, fmt.Errorf("failed to load dose overrides for chat %d: %w", chatID, err)
	}

	for _, dose := range adherence.DosesOn(rule, med.ID, day, s.overrideLookup(rows)) {
		if dose.Time == doseTime {
			return med, dose, nil
		}
	}
	return nil, adherence.Dose{}, fmt.Errorf("no dose of %s scheduled at %s on %s",
		med.Label(), doseTime, day.Format("2006-01-02"))
}

// MarkDose sets the status of one scheduled dose. Marking a dose unmarked
// deletes its override row so the slot falls back to the default.
func (s *Service) MarkDose(ctx context.Context, chatID, medicationID int64, date time.Time, doseTime string, status adherence.Status, markedByID int64) (adherence.Status, error) {
	if !status.Valid() {
		return "", fmt.Errorf("unknown dose status %q", status)
	}

	med, _, err := s.scheduledDose(ctx, chatID, medicationID, date, doseTime)
	if err != nil {
		return "", err
	}
	day := adherence.DateOf(date)

	if status == adherence.StatusUnmarked {
		if err := s.Overrides.Delete(ctx, med.ID, day, doseTime); err != nil {
			return "", fmt.Errorf("failed to clear dose status: %w", err)
		}
	} else {
		override := &models.DoseOverride{
			MedicationID: med.ID,
			DoseDate:     day,
			DoseTime:     doseTime,
			Status:       status,
			MarkedByID:   markedByID,
		}
		if _, err := s.Overrides.Upsert(ctx, override); err != nil {
			return "", fmt.Errorf("failed to save dose status: %w", err)
		}
	}

	metrics.DoseMarks.WithLabelValues(string(status)).Inc()
	s.logger.WithFields(logrus.Fields{
		"chat_id":       chatID,
		"medication_id": med.ID,
		"dose_date":     day.Format("2006-01-02"),
		"dose_time":     doseTime,
		"status":        status,
	}).Info("Dose marked")

	return status, nil
}

// CycleDose advances one dose through the unmarked -> taken -> missed cycle
// and persists the result. Returns the new status.
func (s *Service) CycleDose(ctx context.Context, chatID, medicationID int64, date time.Time, doseTime string, markedByID int64) (adherence.Status, error) {
	_, dose, err := s.scheduledDose(ctx, chatID, medicationID, date, doseTime)
	if err != nil {
		return "", err
	}

	next := adherence.CycleStatus(dose.Status)
	return s.MarkDose(ctx, chatID, medicationID, date, doseTime, next, markedByID)
}

// Report computes the chat's adherence over the last days days ending today,
// with a per-medication breakdown sorted by percentage descending and name
// ascending.
func (s *Service) Report(ctx context.Context, chatID int64, days int) (*AdherenceReport, error) {
	if days <= 0 {
		return nil, fmt.Errorf("report period must be at least 1 day, got %d", days)
	}

	to := s.Today()
	from := to.AddDate(0, 0, -(days - 1))

	doses, meds, err := s.expandRange(ctx, chatID, from, to)
	if err != nil {
		return nil, err
	}

	report := &AdherenceReport{
		From:   from,
		To:     to,
		Totals: adherence.ComputeStats(doses, from, to),
	}

	labels := make(map[int64]string, len(meds))
	for _, med := range meds {
		labels[med.ID] = med.Label()
	}
	for id, stats := range adherence.StatsByMedication(doses, from, to) {
		if stats.Scheduled == 0 {
			continue
		}
		report.PerMedication = append(report.PerMedication, MedicationStats{
			MedicationID: id,
			Name:         labels[id],
			Stats:        stats,
		})
	}

	sort.Slice(report.PerMedication, func(i, j int) bool {
		a, b := report.PerMedication[i], report.PerMedication[j]
		if a.Stats.Percent != b.Stats.Percent {
			return a.Stats.Percent > b.Stats.Percent
		}
		return a.Name < b.Name
	})

	return report, nil
}

// takenSeries builds the per-day taken-dose counts feeding streaks.
func takenSeries(doses []adherence.Dose) []adherence.DayCount {
	byDay := make(map[time.Time]int)
	for _, d := range doses {
		if d.Status == adherence.StatusTaken {
			byDay[adherence.DateOf(d.Date)]++
		}
	}

	series := make([]adherence.DayCount, 0, len(byDay))
	for day, count := range byDay {
		series = append(series, adherence.DayCount{Date: day, Count: count})
	}
	return series
}

// Streaks computes the longest and current runs of days with at least one
// taken dose over the last days days, plus the share of active days.
func (s *Service) Streaks(ctx context.Context, chatID int64, days int) (*StreakReport, error) {
	if days <= 0 {
		return nil, fmt.Errorf("streak period must be at least 1 day, got %d", days)
	}

	to := s.Today()
	from := to.AddDate(0, 0, -(days - 1))

	doses, _, err := s.expandRange(ctx, chatID, from, to)
	if err != nil {
		return nil, err
	}

	series := takenSeries(doses)
	return &StreakReport{
		From:          from,
		To:            to,
		LongestStreak: adherence.LongestStreak(series),
		CurrentStreak: adherence.CurrentStreak(series, to),
		ActiveDayRate: adherence.ActiveDayRate(series, from, to),
	}, nil
}

// WeeklyTrend buckets the chat's taken doses into the last weeks calendar
// weeks, oldest first.
func (s *Service) WeeklyTrend(ctx context.Context, chatID int64, weeks int) ([]adherence.WeekBucket, error) {
	if weeks <= 0 {
		return nil, fmt.Errorf("trend period must be at least 1 week, got %d", weeks)
	}

	to := s.Today()
	from := to.AddDate(0, 0, -7*weeks)

	doses, _, err := s.expandRange(ctx, chatID, from, to)
	if err != nil {
		return nil, err
	}

	var entries []adherence.Entry
	for _, d := range doses {
		if d.Status == adherence.StatusTaken {
			entries = append(entries, adherence.Entry{Date: d.Date})
		}
	}
	return adherence.WeeklyBuckets(entries, weeks, to), nil
}
