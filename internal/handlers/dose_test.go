package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kerhoff/DoseboT/internal/adherence"
)

func TestParseMarkStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want adherence.Status
	}{
		{"taken", adherence.StatusTaken},
		{"Taken", adherence.StatusTaken},
		{"MISSED", adherence.StatusMissed},
		{"clear", adherence.StatusUnmarked},
		{"Clear", adherence.StatusUnmarked},
		{"unmarked", adherence.StatusUnmarked},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseMarkStatus(tt.raw), tt.raw)
	}

	assert.False(t, parseMarkStatus("skipped").Valid())
}
