package adherence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(start time.Time, counts ...int) []DayCount {
	s := make([]DayCount, len(counts))
	for i, c := range counts {
		s[i] = DayCount{Date: start.AddDate(0, 0, i), Count: c}
	}
	return s
}

func TestLongestStreak(t *testing.T) {
	start := date(2024, time.March, 1)

	tests := []struct {
		name   string
		counts []int
		want   int
	}{
		{"empty", nil, 0},
		{"single active day", []int{1}, 1},
		{"all zero", []int{0, 0, 0}, 0},
		{"gap resets run", []int{1, 1, 0, 1, 1, 1}, 3},
		{"run at start", []int{1, 1, 1, 0, 1}, 3},
		{"fully consecutive", []int{2, 1, 3, 1}, 4},
		{"alternating", []int{1, 0, 1, 0, 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LongestStreak(series(start, tt.counts...)))
		})
	}
}

func TestLongestStreak_UnsortedInput(t *testing.T) {
	s := []DayCount{
		{Date: date(2024, time.March, 3), Count: 1},
		{Date: date(2024, time.March, 1), Count: 1},
		{Date: date(2024, time.March, 2), Count: 1},
	}
	assert.Equal(t, 3, LongestStreak(s))
}

func TestCurrentStreak(t *testing.T) {
	today := date(2024, time.March, 10)

	t.Run("run ending today", func(t *testing.T) {
		s := series(date(2024, time.March, 8), 1, 1, 1)
		assert.Equal(t, 3, CurrentStreak(s, today))
	})

	t.Run("run ending yesterday still counts", func(t *testing.T) {
		s := series(date(2024, time.March, 7), 1, 1, 1) // 7th..9th
		assert.Equal(t, 3, CurrentStreak(s, today))
	})

	t.Run("run broken two days ago", func(t *testing.T) {
		s := series(date(2024, time.March, 5), 1, 1, 1) // 5th..7th
		assert.Equal(t, 0, CurrentStreak(s, today))
	})

	t.Run("gap limits current run", func(t *testing.T) {
		s := series(date(2024, time.March, 5), 1, 1, 0, 0, 1, 1) // run 9th..10th
		assert.Equal(t, 2, CurrentStreak(s, today))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0, CurrentStreak(nil, today))
	})
}

func TestActiveDayRate(t *testing.T) {
	from := date(2024, time.March, 1)
	to := date(2024, time.March, 10)

	// 5 active days over a 10-day period: the denominator is elapsed days,
	// never the number of entries in the series.
	s := series(from, 1, 1, 0, 1, 0, 1, 1)
	assert.Equal(t, 50, ActiveDayRate(s, from, to))

	assert.Equal(t, 0, ActiveDayRate(nil, from, to))
	assert.Equal(t, 0, ActiveDayRate(s, to, from), "inverted range")
	assert.Equal(t, 100, ActiveDayRate(series(from, 1), from, from), "single-day period")
}

func TestWeeklyBuckets(t *testing.T) {
	// 2024-03-20 is a Wednesday; its week starts Sunday 2024-03-17.
	reference := date(2024, time.March, 20)

	entries := []Entry{
		{Date: date(2024, time.March, 18), Duration: 30 * time.Minute},
		{Date: date(2024, time.March, 19), Duration: 90 * time.Minute},
		{Date: date(2024, time.March, 12)},
		{Date: date(2024, time.February, 1)}, // before the window
	}

	buckets := WeeklyBuckets(entries, 3, reference)
	require.Len(t, buckets, 3)

	assert.Equal(t, date(2024, time.March, 3), buckets[0].Start)
	assert.Equal(t, date(2024, time.March, 9), buckets[0].End)
	assert.Equal(t, 0, buckets[0].Count)
	assert.Equal(t, time.Duration(0), buckets[0].AvgDuration, "empty week reports zero, not a division")

	assert.Equal(t, date(2024, time.March, 10), buckets[1].Start)
	assert.Equal(t, 1, buckets[1].Count)

	assert.Equal(t, date(2024, time.March, 17), buckets[2].Start)
	assert.Equal(t, date(2024, time.March, 23), buckets[2].End)
	assert.Equal(t, 2, buckets[2].Count)
	assert.Equal(t, 60*time.Minute, buckets[2].AvgDuration)
}

func TestWeeklyBuckets_Empty(t *testing.T) {
	assert.Nil(t, WeeklyBuckets(nil, 0, date(2024, time.March, 20)))
	buckets := WeeklyBuckets(nil, 2, date(2024, time.March, 20))
	require.Len(t, buckets, 2)
	for _, b := range buckets {
		assert.Zero(t, b.Count)
		assert.Zero(t, b.AvgDuration)
	}
}
