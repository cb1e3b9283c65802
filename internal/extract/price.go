package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Plausibility bounds for an extracted price. Values outside this range
// are rejected as stray numbers (page counts, years, order numbers).
const (
	minPlausiblePrice = 0.99
	maxPlausiblePrice = 9999
)

// Price patterns are tried in order; each captures the numeric amount in
// group 1. Decimal separator may be "." or ",".
var pricePatterns = []*regexp.Regexp{
	// Number adjacent to a currency symbol or code
	regexp.MustCompile(`(?i)(?:(?:USD|INR|EUR|GBP|CAD|AUD)\s*|[\$\x{20B9}\x{20AC}\x{00A3}]\s*)(\d{1,5}(?:[.,]\d{2})?)`),
	regexp.MustCompile(`(?i)(\d{1,5}(?:[.,]\d{2})?)\s*(?:USD|INR|EUR|GBP|CAD|AUD)`),
	// Number preceded by a label word
	regexp.MustCompile(`(?i)(?:Total|Amount|Charged|Price|Cost)[:.]?\s*[\$\x{20B9}\x{20AC}\x{00A3}]?\s*(\d{1,5}(?:[.,]\d{2})?)`),
	// Number adjacent to a cadence phrase
	regexp.MustCompile(`(?i)(\d{1,5}(?:[.,]\d{2})?)\s*(?:per\s+month|/month|monthly|per\s+year|/year|yearly|annually)`),
}

// ExtractPrice scans text for a plausible monetary amount. Every match of
// each pattern is considered in order; the first value inside the
// plausibility bounds wins. Returns false when nothing plausible is found:
// the message is then dropped rather than guessed at.
func ExtractPrice(text string) (float64, bool) {
	for _, pattern := range pricePatterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		for _, match := range matches {
			if len(match) < 2 {
				continue
			}
			raw := strings.ReplaceAll(match[1], ",", ".")
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			if price >= minPlausiblePrice && price <= maxPlausiblePrice {
				return price, true
			}
		}
	}
	return 0, false
}
