package adherence

// Status is the marked state of a single dose
type Status string

const (
	StatusUnmarked Status = "unmarked"
	StatusTaken    Status = "taken"
	StatusMissed   Status = "missed"
)

// Valid reports whether s is one of the known dose statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnmarked, StatusTaken, StatusMissed:
		return true
	}
	return false
}

// DayStatus is the aggregate classification of a date's doses
type DayStatus string

const (
	DayNoDoses   DayStatus = "no_doses"
	DayAllTaken  DayStatus = "all_taken"
	DayHasMissed DayStatus = "has_missed"
	DayUnmarked  DayStatus = "unmarked"
)

// DayStatusOf reduces a date's doses to a single day-level status. A missed
// dose outranks unmarked ones, which outrank all-taken. The whole slice is
// scanned: a missed dose anywhere in the list wins regardless of order.
func DayStatusOf(doses []Dose) DayStatus {
	if len(doses) == 0 {
		return DayNoDoses
	}

	hasMissed := false
	hasUnmarked := false
	for _, d := range doses {
		switch d.Status {
		case StatusMissed:
			hasMissed = true
		case StatusTaken:
			// counts toward all-taken unless something outranks it
		default:
			hasUnmarked = true
		}
	}

	switch {
	case hasMissed:
		return DayHasMissed
	case hasUnmarked:
		return DayUnmarked
	default:
		return DayAllTaken
	}
}

// CycleStatus advances a dose status one step through the fixed
// unmarked -> taken -> missed -> unmarked cycle used by tap-to-toggle
// interactions. Unknown statuses normalize to unmarked, keeping the
// function total.
func CycleStatus(s Status) Status {
	switch s {
	case StatusUnmarked:
		return StatusTaken
	case StatusTaken:
		return StatusMissed
	default:
		return StatusUnmarked
	}
}
