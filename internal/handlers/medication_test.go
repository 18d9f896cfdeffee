package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/DoseboT/internal/adherence"
)

func TestParseWeekdays(t *testing.T) {
	days, err := parseWeekdays("mon,wed,fri")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 6}, days)

	days, err = parseWeekdays("Sunday, Saturday")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 7}, days)

	_, err = parseWeekdays("mon,funday")
	assert.Error(t, err)
}

func TestParseAddMedArgs(t *testing.T) {
	today := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("daily with dosage", func(t *testing.T) {
		med, err := parseAddMedArgs(strings.Fields("Amoxicillin 500mg at 08:00,20:00"), today)
		require.NoError(t, err)
		assert.Equal(t, "Amoxicillin", med.Name)
		assert.Equal(t, "500mg", med.Dosage)
		assert.Equal(t, adherence.FrequencyDaily, med.Frequency)
		assert.Equal(t, []string{"08:00", "20:00"}, med.Times)
		assert.Equal(t, today, med.StartDate)
		assert.Nil(t, med.EndDate)
	})

	t.Run("multi-word name without dosage", func(t *testing.T) {
		med, err := parseAddMedArgs(strings.Fields("Fish Oil at 09:00"), today)
		require.NoError(t, err)
		assert.Equal(t, "Fish Oil", med.Name)
		assert.Empty(t, med.Dosage)
	})

	t.Run("single weekday becomes weekly", func(t *testing.T) {
		med, err := parseAddMedArgs(strings.Fields("B12 at 09:00 on sun"), today)
		require.NoError(t, err)
		assert.Equal(t, adherence.FrequencyWeekly, med.Frequency)
		assert.Equal(t, []int64{1}, med.Weekdays)
	})

	t.Run("multiple weekdays become custom", func(t *testing.T) {
		med, err := parseAddMedArgs(strings.Fields("VitD at 09:00 on mon,wed,fri"), today)
		require.NoError(t, err)
		assert.Equal(t, adherence.FrequencyCustom, med.Frequency)
		assert.Equal(t, []int64{2, 4, 6}, med.Weekdays)
	})

	t.Run("explicit date range", func(t *testing.T) {
		med, err := parseAddMedArgs(strings.Fields("Antibiotic at 08:00 from 2024-03-04 until 2024-03-10"), today)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), med.StartDate)
		require.NotNil(t, med.EndDate)
		assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), *med.EndDate)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, raw := range []string{
			"at 08:00",              // no name
			"Aspirin",               // no "at"
			"Aspirin at",            // no times
			"Aspirin at 08:00 from", // dangling key
			"Aspirin at 08:00 nonsense here",
		} {
			_, err := parseAddMedArgs(strings.Fields(raw), today)
			assert.Error(t, err, raw)
		}
	})
}

func TestDoseTimeEncoding(t *testing.T) {
	encoded := encodeDoseTime("08:00")
	assert.Equal(t, "08.00", encoded)
	assert.NotContains(t, encoded, ":")
	assert.Equal(t, "08:00", decodeDoseTime(encoded))
}
