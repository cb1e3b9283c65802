package extract

import (
	"time"

	"github.com/mikhno/subtrack/pkg/models"
)

// NextBillingDate projects the first billing date strictly after now by
// repeatedly advancing start by one cycle increment. Unknown cycles
// advance by one month.
func NextBillingDate(start time.Time, cycle models.BillingCycle, now time.Time) time.Time {
	next := start
	for !next.After(now) {
		switch cycle {
		case models.CycleWeekly:
			next = next.AddDate(0, 0, 7)
		case models.CycleQuarterly:
			next = next.AddDate(0, 3, 0)
		case models.CycleYearly:
			next = next.AddDate(1, 0, 0)
		default:
			next = next.AddDate(0, 1, 0)
		}
	}
	return next
}
