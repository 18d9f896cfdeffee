package adherence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRule(t *testing.T, freq Frequency, weekdays []Weekday, start time.Time, end *time.Time, times []string) Rule {
	t.Helper()
	rule, err := NewRule(freq, weekdays, start, end, times)
	require.NoError(t, err)
	return rule
}

func TestNewRule_Validation(t *testing.T) {
	start := date(2024, time.January, 1)
	end := date(2024, time.February, 1)
	before := date(2023, time.December, 1)

	tests := []struct {
		name     string
		freq     Frequency
		weekdays []Weekday
		start    time.Time
		end      *time.Time
		times    []string
		wantErr  bool
	}{
		{"daily ok", FrequencyDaily, nil, start, &end, []string{"08:00"}, false},
		{"daily open-ended ok", FrequencyDaily, nil, start, nil, []string{"08:00", "20:00"}, false},
		{"weekly single day ok", FrequencyWeekly, []Weekday{Monday}, start, nil, []string{"08:00"}, false},
		{"weekly multiple days rejected", FrequencyWeekly, []Weekday{Monday, Friday}, start, nil, []string{"08:00"}, true},
		{"custom ok", FrequencyCustom, []Weekday{Monday, Wednesday}, start, nil, []string{"08:00"}, false},
		{"custom empty weekdays rejected", FrequencyCustom, nil, start, nil, []string{"08:00"}, true},
		{"custom duplicate weekday rejected", FrequencyCustom, []Weekday{Monday, Monday}, start, nil, []string{"08:00"}, true},
		{"weekday out of range rejected", FrequencyCustom, []Weekday{8}, start, nil, []string{"08:00"}, true},
		{"empty times rejected", FrequencyDaily, nil, start, nil, nil, true},
		{"malformed time rejected", FrequencyDaily, nil, start, nil, []string{"8am"}, true},
		{"duplicate time rejected", FrequencyDaily, nil, start, nil, []string{"08:00", "08:00"}, true},
		{"end before start rejected", FrequencyDaily, nil, start, &before, []string{"08:00"}, true},
		{"unknown frequency rejected", Frequency("hourly"), nil, start, nil, []string{"08:00"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRule(tt.freq, tt.weekdays, tt.start, tt.end, tt.times)
			if tt.wantErr {
				require.Error(t, err)
				var invalid *InvalidScheduleError
				assert.ErrorAs(t, err, &invalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRule_AggregatesAllViolations(t *testing.T) {
	before := date(2023, time.December, 31)
	_, err := NewRule(FrequencyCustom, []Weekday{9}, date(2024, time.January, 1), &before, nil)
	require.Error(t, err)
	// Empty weekday set is not reported when an out-of-range one is present,
	// but range, times and end-before-start all must be.
	assert.Contains(t, err.Error(), "out of range")
	assert.Contains(t, err.Error(), "dose time")
	assert.Contains(t, err.Error(), "before start")
}

func TestRule_IsDue_Daily(t *testing.T) {
	end := date(2024, time.January, 10)
	rule := mustRule(t, FrequencyDaily, nil, date(2024, time.January, 3), &end, []string{"08:00"})

	assert.False(t, rule.IsDue(date(2024, time.January, 2)), "before active range")
	assert.True(t, rule.IsDue(date(2024, time.January, 3)), "start date inclusive")
	assert.True(t, rule.IsDue(date(2024, time.January, 7)))
	assert.True(t, rule.IsDue(date(2024, time.January, 10)), "end date inclusive")
	assert.False(t, rule.IsDue(date(2024, time.January, 11)), "after active range")
}

func TestRule_IsDue_OpenEnded(t *testing.T) {
	rule := mustRule(t, FrequencyDaily, nil, date(2024, time.January, 1), nil, []string{"08:00"})
	assert.True(t, rule.IsDue(date(2030, time.December, 31)))
}

func TestRule_IsDue_CustomWeekdays(t *testing.T) {
	// 2024-01-01 is a Monday.
	rule := mustRule(t, FrequencyCustom, []Weekday{Monday, Wednesday},
		date(2024, time.January, 1), nil, []string{"08:00"})

	// Walk 8 straight weeks: only Mondays and Wednesdays may be due.
	for offset := 0; offset < 8*7; offset++ {
		day := date(2024, time.January, 1).AddDate(0, 0, offset)
		weekday := day.Weekday()
		want := weekday == time.Monday || weekday == time.Wednesday
		assert.Equalf(t, want, rule.IsDue(day), "date %s (%s)", day.Format("2006-01-02"), weekday)
	}
}

func TestRule_IsDue_WeeklySunday(t *testing.T) {
	// Sunday=1 numbering must hold regardless of anything locale-shaped.
	rule := mustRule(t, FrequencyWeekly, []Weekday{Sunday},
		date(2024, time.January, 1), nil, []string{"08:00"})

	assert.True(t, rule.IsDue(date(2024, time.January, 7)), "2024-01-07 is a Sunday")
	assert.False(t, rule.IsDue(date(2024, time.January, 8)), "2024-01-08 is a Monday")
}

func TestWeekdayOf(t *testing.T) {
	assert.Equal(t, Sunday, WeekdayOf(date(2024, time.January, 7)))
	assert.Equal(t, Monday, WeekdayOf(date(2024, time.January, 8)))
	assert.Equal(t, Saturday, WeekdayOf(date(2024, time.January, 6)))
}

func TestDosesOn_ExpandsTimesInOrder(t *testing.T) {
	rule := mustRule(t, FrequencyDaily, nil, date(2024, time.January, 1), nil, []string{"08:00", "14:00", "20:00"})

	doses := DosesOn(rule, 42, date(2024, time.January, 5), nil)
	require.Len(t, doses, 3)
	assert.Equal(t, "08:00", doses[0].Time)
	assert.Equal(t, "14:00", doses[1].Time)
	assert.Equal(t, "20:00", doses[2].Time)
	for _, d := range doses {
		assert.Equal(t, int64(42), d.MedicationID)
		assert.Equal(t, date(2024, time.January, 5), d.Date)
		assert.Equal(t, StatusUnmarked, d.Status)
	}
}

func TestDosesOn_AppliesOverrides(t *testing.T) {
	rule := mustRule(t, FrequencyDaily, nil, date(2024, time.January, 1), nil, []string{"08:00", "20:00"})
	overrides := Overrides{
		{MedicationID: 7, Date: date(2024, time.January, 2), Time: "20:00"}: StatusTaken,
		// Override for another medication must not bleed over.
		{MedicationID: 8, Date: date(2024, time.January, 2), Time: "08:00"}: StatusMissed,
	}

	doses := DosesOn(rule, 7, date(2024, time.January, 2), overrides)
	require.Len(t, doses, 2)
	assert.Equal(t, StatusUnmarked, doses[0].Status)
	assert.Equal(t, StatusTaken, doses[1].Status)
}

func TestDosesOn_NotDue(t *testing.T) {
	rule := mustRule(t, FrequencyWeekly, []Weekday{Friday}, date(2024, time.January, 1), nil, []string{"08:00"})
	assert.Nil(t, DosesOn(rule, 1, date(2024, time.January, 8), nil), "Monday is not due")
}

func TestDosesInRange(t *testing.T) {
	end := date(2024, time.January, 3)
	rule := mustRule(t, FrequencyDaily, nil, date(2024, time.January, 1), &end, []string{"08:00", "20:00"})

	doses := DosesInRange(rule, 1, date(2023, time.December, 30), date(2024, time.January, 10), nil)
	assert.Len(t, doses, 6, "3 active days x 2 times, range clamped by the rule")
}
