package handlers

import (
	"testing"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendDirection(t *testing.T) {
	tests := []struct {
		name      string
		series    []float64
		wantDir   string
	}{
		{"too short is flat", []float64{1}, "flat"},
		{"clear increase", []float64{10, 10, 20, 20}, "up"},
		{"clear decrease", []float64{20, 20, 10, 10}, "down"},
		{"within dead band is flat", []float64{100, 100, 102, 102}, "flat"},
		{"zero to zero is flat", []float64{0, 0, 0, 0}, "flat"},
		{"zero to nonzero is up", []float64{0, 0, 5, 5}, "up"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, _ := trendDirection(tt.series)
			assert.Equal(t, tt.wantDir, dir)
		})
	}
}

func TestGroupByToPeriodType(t *testing.T) {
	tests := []struct {
		in      string
		want    types.PeriodType
		wantErr bool
	}{
		{"hour", types.PeriodHour, false},
		{"day", types.PeriodDay, false},
		{"week", types.PeriodWeek, false},
		{"month", types.PeriodMonth, false},
		{"fortnight", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := groupByToPeriodType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
