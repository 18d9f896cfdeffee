package adherence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doseOn(medID int64, day time.Time, status Status) Dose {
	return Dose{MedicationID: medID, Date: day, Time: "08:00", Status: status}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 0), "zero scheduled never divides")
	assert.Equal(t, 0, Percentage(5, 0))
	assert.Equal(t, 75, Percentage(3, 4))
	assert.Equal(t, 100, Percentage(4, 4))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 13, Percentage(1, 8), "12.5 rounds half-up")
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierExcellent, TierFor(100))
	assert.Equal(t, TierExcellent, TierFor(90))
	assert.Equal(t, TierGood, TierFor(89))
	assert.Equal(t, TierGood, TierFor(70))
	assert.Equal(t, TierFair, TierFor(69))
	assert.Equal(t, TierFair, TierFor(50))
	assert.Equal(t, TierPoor, TierFor(49))
	assert.Equal(t, TierPoor, TierFor(0))
}

func TestComputeStats(t *testing.T) {
	jan := func(d int) time.Time { return date(2024, time.January, d) }
	doses := []Dose{
		doseOn(1, jan(1), StatusTaken),
		doseOn(1, jan(1), StatusMissed),
		doseOn(1, jan(2), StatusUnmarked),
		doseOn(1, jan(2), StatusTaken),
		doseOn(1, jan(5), StatusTaken), // outside range
	}

	stats := ComputeStats(doses, jan(1), jan(2))
	assert.Equal(t, 4, stats.Scheduled)
	assert.Equal(t, 2, stats.Taken)
	assert.Equal(t, 1, stats.Missed)
	assert.Equal(t, 1, stats.Unmarked)
	assert.Equal(t, 50, stats.Percent)
	assert.Equal(t, TierFair, stats.Tier)
}

func TestComputeStats_SumInvariant(t *testing.T) {
	jan := func(d int) time.Time { return date(2024, time.January, d) }
	statuses := []Status{StatusTaken, StatusMissed, StatusUnmarked, Status("corrupt")}

	var doses []Dose
	for i := 0; i < 40; i++ {
		doses = append(doses, doseOn(int64(i%3), jan(1+i%10), statuses[i%len(statuses)]))
	}

	stats := ComputeStats(doses, jan(1), jan(10))
	assert.Equal(t, stats.Scheduled, stats.Taken+stats.Missed+stats.Unmarked)
	assert.Equal(t, 40, stats.Scheduled, "every dose counted exactly once")
}

func TestComputeStats_EmptyPeriod(t *testing.T) {
	stats := ComputeStats(nil, date(2024, time.January, 1), date(2024, time.January, 31))
	assert.Equal(t, PeriodStats{Percent: 0, Tier: TierPoor}, stats)
}

func TestComputeStats_ThreeOfFour(t *testing.T) {
	jan := func(d int) time.Time { return date(2024, time.January, d) }
	doses := []Dose{
		doseOn(1, jan(1), StatusTaken),
		doseOn(1, jan(2), StatusTaken),
		doseOn(1, jan(3), StatusTaken),
		doseOn(1, jan(4), StatusMissed),
	}
	assert.Equal(t, 75, ComputeStats(doses, jan(1), jan(4)).Percent)
}

func TestStatsByMedication(t *testing.T) {
	jan := func(d int) time.Time { return date(2024, time.January, d) }
	doses := []Dose{
		doseOn(1, jan(1), StatusTaken),
		doseOn(1, jan(2), StatusTaken),
		doseOn(2, jan(1), StatusMissed),
		doseOn(2, jan(2), StatusTaken),
		doseOn(3, jan(9), StatusTaken), // entirely outside the range
	}

	byMed := StatsByMedication(doses, jan(1), jan(2))
	require.Len(t, byMed, 3)
	assert.Equal(t, 100, byMed[1].Percent)
	assert.Equal(t, 50, byMed[2].Percent)
	assert.Equal(t, PeriodStats{Percent: 0, Tier: TierPoor}, byMed[3],
		"medications with no doses in range still get a row")
}
