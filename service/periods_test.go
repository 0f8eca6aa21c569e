package service

import (
	"testing"
	"time"

	"accrual/models"

	"github.com/stretchr/testify/assert"
)

func months(ms []models.Month) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.String())
	}
	return out
}

func TestOutstandingMonths(t *testing.T) {
	opened := time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC)
	target := models.Month{Year: 2024, Month: time.February}

	t.Run("all months from opening through target", func(t *testing.T) {
		got := OutstandingMonths(opened, target, nil)
		assert.Equal(t, []string{"2023-11", "2023-12", "2024-01", "2024-02"}, months(got))
	})

	t.Run("posted months are excluded", func(t *testing.T) {
		posted := map[string]bool{"2023-11": true, "2024-01": true}
		got := OutstandingMonths(opened, target, posted)
		assert.Equal(t, []string{"2023-12", "2024-02"}, months(got))
	})

	t.Run("everything posted", func(t *testing.T) {
		posted := map[string]bool{"2023-11": true, "2023-12": true, "2024-01": true, "2024-02": true}
		assert.Empty(t, OutstandingMonths(opened, target, posted))
	})

	t.Run("opened after target", func(t *testing.T) {
		later := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		assert.Empty(t, OutstandingMonths(later, target, nil))
	})

	t.Run("opened in target month", func(t *testing.T) {
		got := OutstandingMonths(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), target, nil)
		assert.Equal(t, []string{"2024-02"}, months(got))
	})
}
