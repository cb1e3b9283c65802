package extract

import "strings"

type currencyMarker struct {
	code    string
	markers []string
}

// Checked in priority order; first marker present in the text wins.
var currencyMarkers = []currencyMarker{
	{"INR", []string{"₹", "INR", "Rs"}},
	{"EUR", []string{"€", "EUR"}},
	{"GBP", []string{"£", "GBP"}},
	{"CAD", []string{"CAD", "C$"}},
	{"AUD", []string{"AUD", "A$"}},
}

// DetectCurrency returns the currency code indicated by symbols or codes
// in the text, falling back to the given base currency. It never returns
// an empty code.
func DetectCurrency(text, base string) string {
	for _, c := range currencyMarkers {
		for _, marker := range c.markers {
			if strings.Contains(text, marker) {
				return c.code
			}
		}
	}
	if base == "" {
		return "USD"
	}
	return base
}
