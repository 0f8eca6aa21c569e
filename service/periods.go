package service

import (
	"time"

	"accrual/models"
)

// OutstandingMonths lists the months from the opening month through target,
// ascending, that have no Posted record
func OutstandingMonths(openingDate time.Time, target models.Month, posted map[string]bool) []models.Month {
	var months []models.Month
	for m := models.MonthOf(openingDate); !target.Before(m); m = m.Next() {
		if posted[m.String()] {
			continue
		}
		months = append(months, m)
	}
	return months
}
