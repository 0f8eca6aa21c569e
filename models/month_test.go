package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, Month{Year: 2024, Month: time.February}, m)
	assert.Equal(t, "2024-02", m.String())
	assert.Equal(t, "202402", m.Compact())

	_, err = ParseMonth("2024-13")
	assert.Error(t, err)

	_, err = ParseMonth("02/2024")
	assert.Error(t, err)
}

func TestMonth_Bounds(t *testing.T) {
	tests := []struct {
		name  string
		month Month
		start time.Time
		end   time.Time
	}{
		{
			name:  "leap february",
			month: Month{Year: 2024, Month: time.February},
			start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "common february",
			month: Month{Year: 2023, Month: time.February},
			start: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "december",
			month: Month{Year: 2023, Month: time.December},
			start: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.start, tt.month.Start())
			assert.Equal(t, tt.end, tt.month.End())
		})
	}
}

func TestMonth_NextAndBefore(t *testing.T) {
	dec := Month{Year: 2023, Month: time.December}
	jan := dec.Next()

	assert.Equal(t, Month{Year: 2024, Month: time.January}, jan)
	assert.True(t, dec.Before(jan))
	assert.False(t, jan.Before(dec))
	assert.False(t, jan.Before(jan))
	assert.True(t, Month{Year: 2024, Month: time.March}.Before(Month{Year: 2024, Month: time.April}))
}

func TestIsMonthEnd(t *testing.T) {
	assert.True(t, IsMonthEnd(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)))
	assert.False(t, IsMonthEnd(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsMonthEnd(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)))
}

func TestDateOnly(t *testing.T) {
	got := DateOnly(time.Date(2024, 5, 17, 13, 45, 12, 99, time.UTC))
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), got)
}
