package adherence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func dosesWithStatuses(statuses ...Status) []Dose {
	doses := make([]Dose, len(statuses))
	for i, s := range statuses {
		doses[i] = Dose{MedicationID: 1, Time: "08:00", Status: s}
	}
	return doses
}

func TestDayStatusOf(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     DayStatus
	}{
		{"no doses", nil, DayNoDoses},
		{"single taken", []Status{StatusTaken}, DayAllTaken},
		{"all taken", []Status{StatusTaken, StatusTaken}, DayAllTaken},
		{"taken and missed", []Status{StatusTaken, StatusMissed}, DayHasMissed},
		{"taken and unmarked", []Status{StatusTaken, StatusUnmarked}, DayUnmarked},
		{"missed and unmarked", []Status{StatusMissed, StatusUnmarked}, DayHasMissed},
		{"all unmarked", []Status{StatusUnmarked, StatusUnmarked}, DayUnmarked},
		{"missed last overrides earlier taken", []Status{StatusTaken, StatusTaken, StatusMissed}, DayHasMissed},
		{"missed first", []Status{StatusMissed, StatusTaken, StatusTaken}, DayHasMissed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayStatusOf(dosesWithStatuses(tt.statuses...)))
		})
	}
}

func TestCycleStatus(t *testing.T) {
	assert.Equal(t, StatusTaken, CycleStatus(StatusUnmarked))
	assert.Equal(t, StatusMissed, CycleStatus(StatusTaken))
	assert.Equal(t, StatusUnmarked, CycleStatus(StatusMissed))
}

func TestCycleStatus_ThreeStepsIsIdentity(t *testing.T) {
	for _, s := range []Status{StatusUnmarked, StatusTaken, StatusMissed} {
		assert.Equal(t, s, CycleStatus(CycleStatus(CycleStatus(s))))
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusTaken.Valid())
	assert.True(t, StatusMissed.Valid())
	assert.True(t, StatusUnmarked.Valid())
	assert.False(t, Status("skipped").Valid())
}
