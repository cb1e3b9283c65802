package extract

import "testing"

func TestExtractPrice(t *testing.T) {
	t.Run("extracts dollar amount with symbol", func(t *testing.T) {
		price, ok := ExtractPrice("Total: $15.99")
		if !ok {
			t.Fatal("expected a price")
		}
		if price != 15.99 {
			t.Errorf("expected 15.99, got %v", price)
		}
	})

	t.Run("extracts rupee amount with cadence suffix", func(t *testing.T) {
		price, ok := ExtractPrice("₹4999/year")
		if !ok {
			t.Fatal("expected a price")
		}
		if price != 4999 {
			t.Errorf("expected 4999, got %v", price)
		}
	})

	t.Run("extracts labeled amount without symbol", func(t *testing.T) {
		price, ok := ExtractPrice("Amount charged\nTotal: 12.50 for your plan")
		if !ok {
			t.Fatal("expected a price")
		}
		if price != 12.50 {
			t.Errorf("expected 12.50, got %v", price)
		}
	})

	t.Run("extracts amount adjacent to cadence phrase", func(t *testing.T) {
		price, ok := ExtractPrice("You pay 9.99 per month for this plan")
		if !ok {
			t.Fatal("expected a price")
		}
		if price != 9.99 {
			t.Errorf("expected 9.99, got %v", price)
		}
	})

	t.Run("normalizes comma decimal separator", func(t *testing.T) {
		price, ok := ExtractPrice("EUR 9,99")
		if !ok {
			t.Fatal("expected a price")
		}
		if price != 9.99 {
			t.Errorf("expected 9.99, got %v", price)
		}
	})

	t.Run("accepts bounds of the plausibility range", func(t *testing.T) {
		price, ok := ExtractPrice("Total: $0.99")
		if !ok || price != 0.99 {
			t.Errorf("expected 0.99, got %v (ok=%v)", price, ok)
		}
		price, ok = ExtractPrice("Total: $9999")
		if !ok || price != 9999 {
			t.Errorf("expected 9999, got %v (ok=%v)", price, ok)
		}
	})

	t.Run("rejects amounts below the plausible range", func(t *testing.T) {
		if price, ok := ExtractPrice("Total: $0.50"); ok {
			t.Errorf("expected no price, got %v", price)
		}
	})

	t.Run("rejects numbers without price context", func(t *testing.T) {
		if price, ok := ExtractPrice("Order #88212"); ok {
			t.Errorf("expected no price, got %v", price)
		}
	})

	t.Run("skips implausible match and keeps scanning", func(t *testing.T) {
		price, ok := ExtractPrice("Invoice $0.10 processing fee, charged $14.99 monthly")
		if !ok {
			t.Fatal("expected a price")
		}
		if price != 14.99 {
			t.Errorf("expected 14.99, got %v", price)
		}
	})

	t.Run("returns nothing for empty text", func(t *testing.T) {
		if price, ok := ExtractPrice(""); ok {
			t.Errorf("expected no price, got %v", price)
		}
	})
}
