package adherence

import (
	"sort"
	"time"
)

// DayCount is one day's activity count in a sparse series. Absent dates mean
// zero activity.
type DayCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// activeDays filters a series to days with activity and returns their
// normalized dates in ascending order, deduplicated.
func activeDays(series []DayCount) []time.Time {
	seen := make(map[time.Time]bool, len(series))
	days := make([]time.Time, 0, len(series))
	for _, dc := range series {
		if dc.Count <= 0 {
			continue
		}
		day := DateOf(dc.Date)
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// LongestStreak returns the length of the longest run of calendar-consecutive
// days with activity. A gap of more than one day resets the run. Empty input
// yields 0.
func LongestStreak(series []DayCount) int {
	days := activeDays(series)
	if len(days) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// CurrentStreak returns the length of the active-day run ending at today or
// yesterday. A run that ended two or more days before today has been broken
// and counts as 0.
func CurrentStreak(series []DayCount, today time.Time) int {
	days := activeDays(series)
	if len(days) == 0 {
		return 0
	}

	last := days[len(days)-1]
	if DateOf(today).Sub(last) > 24*time.Hour {
		return 0
	}

	run := 1
	for i := len(days) - 1; i > 0; i-- {
		if days[i].Sub(days[i-1]) != 24*time.Hour {
			break
		}
		run++
	}
	return run
}

// ActiveDayRate returns the percentage of elapsed days in [from, to] that had
// activity. The denominator is the number of days in the period, not the
// number of series entries.
func ActiveDayRate(series []DayCount, from, to time.Time) int {
	start, end := DateOf(from), DateOf(to)
	if end.Before(start) {
		return 0
	}
	totalDays := int(end.Sub(start)/(24*time.Hour)) + 1

	active := 0
	for _, day := range activeDays(series) {
		if !day.Before(start) && !day.After(end) {
			active++
		}
	}
	return Percentage(active, totalDays)
}

// Entry is one activity occurrence feeding the weekly trend: its date and an
// optional duration (zero when the domain has none, as with doses).
type Entry struct {
	Date     time.Time
	Duration time.Duration
}

// WeekBucket is one calendar week's rollup.
type WeekBucket struct {
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	Count       int           `json:"count"`
	AvgDuration time.Duration `json:"avg_duration"`
}

// startOfWeek returns the Sunday beginning the week containing date.
func startOfWeek(date time.Time) time.Time {
	day := DateOf(date)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeeklyBuckets partitions the weeksBack calendar weeks up to and including
// the week containing reference into Sunday-anchored buckets, oldest first.
// Weeks without entries report count 0 and average duration 0.
func WeeklyBuckets(entries []Entry, weeksBack int, reference time.Time) []WeekBucket {
	if weeksBack <= 0 {
		return nil
	}

	anchor := startOfWeek(reference)
	buckets := make([]WeekBucket, weeksBack)
	for i := 0; i < weeksBack; i++ {
		start := anchor.AddDate(0, 0, -7*(weeksBack-1-i))
		buckets[i] = WeekBucket{Start: start, End: start.AddDate(0, 0, 6)}
	}

	totals := make([]time.Duration, weeksBack)
	first := buckets[0].Start
	for _, e := range entries {
		day := DateOf(e.Date)
		if day.Before(first) || day.After(buckets[weeksBack-1].End) {
			continue
		}
		idx := int(day.Sub(first) / (7 * 24 * time.Hour))
		buckets[idx].Count++
		totals[idx] += e.Duration
	}

	for i := range buckets {
		if buckets[i].Count > 0 {
			buckets[i].AvgDuration = totals[i] / time.Duration(buckets[i].Count)
		}
	}
	return buckets
}
