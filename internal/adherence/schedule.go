package adherence

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Frequency defines how often a medication is due
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

// Weekday numbers doses with a fixed Sunday=1..Saturday=7 convention,
// independent of host locale.
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// WeekdayOf returns the Sunday=1..Saturday=7 number for a calendar date.
func WeekdayOf(date time.Time) Weekday {
	return Weekday(int(date.Weekday()) + 1)
}

// Rule describes when a medication is due: its frequency, the weekdays it
// applies to (weekly/custom only), the active date range and the dose times
// within a due day. Rules are immutable after construction; use NewRule so
// that no partially valid rule can escape.
type Rule struct {
	Frequency Frequency
	Weekdays  []Weekday
	Start     time.Time
	End       *time.Time
	Times     []string
}

// InvalidScheduleError reports every problem found while constructing a Rule.
type InvalidScheduleError struct {
	Reason error
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule: %v", e.Reason)
}

func (e *InvalidScheduleError) Unwrap() error {
	return e.Reason
}

// NewRule validates and builds a Rule. Construction fails closed: on any
// violation an InvalidScheduleError aggregating all of them is returned and
// the zero Rule is unusable.
func NewRule(frequency Frequency, weekdays []Weekday, start time.Time, end *time.Time, times []string) (Rule, error) {
	var result *multierror.Error

	switch frequency {
	case FrequencyDaily:
		// Weekday set is ignored for daily rules.
	case FrequencyWeekly:
		if len(weekdays) != 1 {
			result = multierror.Append(result, fmt.Errorf("weekly frequency requires exactly one weekday, got %d", len(weekdays)))
		}
	case FrequencyCustom:
		if len(weekdays) == 0 {
			result = multierror.Append(result, fmt.Errorf("custom frequency requires at least one weekday"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown frequency %q", frequency))
	}

	seen := make(map[Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		if d < Sunday || d > Saturday {
			result = multierror.Append(result, fmt.Errorf("weekday %d out of range 1..7", d))
			continue
		}
		if seen[d] {
			result = multierror.Append(result, fmt.Errorf("duplicate weekday %d", d))
		}
		seen[d] = true
	}

	if len(times) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one dose time is required"))
	}
	seenTimes := make(map[string]bool, len(times))
	for _, t := range times {
		if _, err := time.Parse("15:04", t); err != nil {
			result = multierror.Append(result, fmt.Errorf("dose time %q is not HH:MM", t))
			continue
		}
		if seenTimes[t] {
			result = multierror.Append(result, fmt.Errorf("duplicate dose time %q", t))
		}
		seenTimes[t] = true
	}

	if end != nil && DateOf(*end).Before(DateOf(start)) {
		result = multierror.Append(result, fmt.Errorf("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02")))
	}

	if err := result.ErrorOrNil(); err != nil {
		return Rule{}, &InvalidScheduleError{Reason: err}
	}

	rule := Rule{
		Frequency: frequency,
		Weekdays:  append([]Weekday(nil), weekdays...),
		Start:     DateOf(start),
		Times:     append([]string(nil), times...),
	}
	if end != nil {
		e := DateOf(*end)
		rule.End = &e
	}
	return rule, nil
}

// DateOf strips the time-of-day component, normalizing to midnight UTC.
// All engine computations run on these normalized dates.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsDue reports whether a dose is scheduled on the given date: the date must
// fall inside the active range (inclusive on both ends) and, for weekly and
// custom rules, its weekday must be in the rule's weekday set.
func (r Rule) IsDue(date time.Time) bool {
	day := DateOf(date)
	if day.Before(r.Start) {
		return false
	}
	if r.End != nil && day.After(*r.End) {
		return false
	}

	switch r.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly, FrequencyCustom:
		weekday := WeekdayOf(day)
		for _, d := range r.Weekdays {
			if d == weekday {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Dose is one concrete scheduled occurrence of a medication on a date. Doses
// are materialized on demand and never persisted; only status overrides are.
type Dose struct {
	MedicationID int64
	Date         time.Time
	Time         string
	Status       Status
}

// OverrideKey identifies a persisted status override.
type OverrideKey struct {
	MedicationID int64
	Date         time.Time
	Time         string
}

// Overrides is the snapshot of persisted status overrides the expander reads
// from. A missing key means the dose is unmarked.
type Overrides map[OverrideKey]Status

// Key returns the override key for a dose's slot.
func (d Dose) Key() OverrideKey {
	return OverrideKey{MedicationID: d.MedicationID, Date: DateOf(d.Date), Time: d.Time}
}

// DosesOn expands a rule into the concrete doses due on a date, one per dose
// time in rule order, applying any persisted status overrides. Returns nil
// when nothing is due.
func DosesOn(rule Rule, medicationID int64, date time.Time, overrides Overrides) []Dose {
	if !rule.IsDue(date) {
		return nil
	}

	day := DateOf(date)
	doses := make([]Dose, 0, len(rule.Times))
	for _, t := range rule.Times {
		dose := Dose{
			MedicationID: medicationID,
			Date:         day,
			Time:         t,
			Status:       StatusUnmarked,
		}
		if status, ok := overrides[dose.Key()]; ok {
			dose.Status = status
		}
		doses = append(doses, dose)
	}
	return doses
}

// DosesInRange expands a rule over every date in [from, to] inclusive.
func DosesInRange(rule Rule, medicationID int64, from, to time.Time, overrides Overrides) []Dose {
	var doses []Dose
	for day := DateOf(from); !day.After(DateOf(to)); day = day.AddDate(0, 0, 1) {
		doses = append(doses, DosesOn(rule, medicationID, day, overrides)...)
	}
	return doses
}
