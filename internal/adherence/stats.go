package adherence

import (
	"math"
	"time"
)

// Tier is a qualitative adherence grade derived from the adherence
// percentage. It is only meaningful when at least one dose was scheduled.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
)

// TierFor grades an adherence percentage.
func TierFor(percent int) Tier {
	switch {
	case percent >= 90:
		return TierExcellent
	case percent >= 70:
		return TierGood
	case percent >= 50:
		return TierFair
	default:
		return TierPoor
	}
}

// PeriodStats summarizes dose outcomes over a date range. Scheduled is always
// Taken+Missed+Unmarked; it is never counted independently.
type PeriodStats struct {
	Scheduled int  `json:"scheduled"`
	Taken     int  `json:"taken"`
	Missed    int  `json:"missed"`
	Unmarked  int  `json:"unmarked"`
	Percent   int  `json:"percent"`
	Tier      Tier `json:"tier"`
}

// Percentage computes round-half-up(100*part/total), defined as 0 when total
// is zero so that empty periods never divide by zero.
func Percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

// ComputeStats counts the doses dated within [from, to] inclusive into a
// period summary. Every dose lands in exactly one of taken/missed/unmarked.
func ComputeStats(doses []Dose, from, to time.Time) PeriodStats {
	var stats PeriodStats
	start, end := DateOf(from), DateOf(to)

	for _, d := range doses {
		day := DateOf(d.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		switch d.Status {
		case StatusTaken:
			stats.Taken++
		case StatusMissed:
			stats.Missed++
		default:
			stats.Unmarked++
		}
	}

	stats.Scheduled = stats.Taken + stats.Missed + stats.Unmarked
	stats.Percent = Percentage(stats.Taken, stats.Scheduled)
	stats.Tier = TierFor(stats.Percent)
	return stats
}

// StatsByMedication groups doses by medication and computes a period summary
// per group. Every medication present in doses gets a row, including those
// whose doses all fall outside the range (Scheduled == 0); callers decide how
// to order and filter the groups.
func StatsByMedication(doses []Dose, from, to time.Time) map[int64]PeriodStats {
	grouped := make(map[int64][]Dose)
	for _, d := range doses {
		grouped[d.MedicationID] = append(grouped[d.MedicationID], d)
	}

	stats := make(map[int64]PeriodStats, len(grouped))
	for id, group := range grouped {
		stats[id] = ComputeStats(group, from, to)
	}
	return stats
}
