package extract

import (
	"strings"

	"github.com/mikhno/subtrack/pkg/models"
)

type cycleKeywords struct {
	cycle    models.BillingCycle
	keywords []string
}

// Checked in priority order; MONTHLY is the fallback when no cadence
// keyword is present.
var cycleTable = []cycleKeywords{
	{models.CycleYearly, []string{"annual", "yearly", "per year", "/year"}},
	{models.CycleQuarterly, []string{"quarterly", "every 3 months"}},
	{models.CycleWeekly, []string{"weekly", "per week"}},
}

// DetectCycle returns the billing cycle indicated by cadence keywords in
// the text. Exactly one cycle is returned; ambiguous text resolves to the
// first match in priority order.
func DetectCycle(text string) models.BillingCycle {
	lower := strings.ToLower(text)
	for _, c := range cycleTable {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.cycle
			}
		}
	}
	return models.CycleMonthly
}
