package extract

import "testing"

func TestLookupService(t *testing.T) {
	t.Run("matches sender domain", func(t *testing.T) {
		svc, ok := LookupService("billing@netflix.com", "Your receipt", "")
		if !ok {
			t.Fatal("expected a match")
		}
		if svc.Name != "Netflix" || svc.Category != "Streaming" {
			t.Errorf("expected Netflix/Streaming, got %s/%s", svc.Name, svc.Category)
		}
	})

	t.Run("matches domain in subject", func(t *testing.T) {
		svc, ok := LookupService("noreply@mailer.example", "Receipt from spotify.com", "")
		if !ok {
			t.Fatal("expected a match")
		}
		if svc.Name != "Spotify" {
			t.Errorf("expected Spotify, got %s", svc.Name)
		}
	})

	t.Run("matches leading label in body", func(t *testing.T) {
		svc, ok := LookupService("noreply@mailer.example", "Payment confirmation", "Thanks for your figma payment")
		if !ok {
			t.Fatal("expected a match")
		}
		if svc.Name != "Figma" {
			t.Errorf("expected Figma, got %s", svc.Name)
		}
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		if _, ok := LookupService("Billing@NETFLIX.COM", "", ""); !ok {
			t.Error("expected a match")
		}
	})

	t.Run("unknown service misses", func(t *testing.T) {
		if svc, ok := LookupService("billing@acme.example", "Your Acme receipt", "Total $5"); ok {
			t.Errorf("expected a miss, got %v", svc)
		}
	})
}

func TestIdentifyService(t *testing.T) {
	t.Run("directory wins over subject extraction", func(t *testing.T) {
		svc, ok := IdentifyService("billing@netflix.com", "Your Netflix receipt", "Total: $15.99")
		if !ok {
			t.Fatal("expected a service")
		}
		if svc.Name != "Netflix" || svc.Category != "Streaming" {
			t.Errorf("expected Netflix/Streaming, got %s/%s", svc.Name, svc.Category)
		}
	})

	t.Run("extracts free-text name from subject on directory miss", func(t *testing.T) {
		svc, ok := IdentifyService("billing@acme.example", "Your annual Acme Pro subscription renewed", "₹4999/year")
		if !ok {
			t.Fatal("expected a service")
		}
		if svc.Name != "Acme Pro" {
			t.Errorf("expected Acme Pro, got %q", svc.Name)
		}
		if svc.Category != "" {
			t.Errorf("free-text names carry no category, got %q", svc.Category)
		}
	})

	t.Run("receipt for pattern", func(t *testing.T) {
		svc, ok := IdentifyService("pay@example.org", "Receipt for Fortress Cloud", "")
		if !ok {
			t.Fatal("expected a service")
		}
		if svc.Name != "Fortress Cloud" {
			t.Errorf("expected Fortress Cloud, got %q", svc.Name)
		}
	})

	t.Run("rejects names shorter than three characters", func(t *testing.T) {
		if svc, ok := IdentifyService("pay@example.org", "Receipt for Ab", ""); ok {
			t.Errorf("expected a miss, got %q", svc.Name)
		}
	})

	t.Run("no strategy yields a candidate", func(t *testing.T) {
		if svc, ok := IdentifyService("friend@example.org", "Lunch tomorrow?", "See you at noon"); ok {
			t.Errorf("expected a miss, got %q", svc.Name)
		}
	})
}

func TestServiceCategory(t *testing.T) {
	if got := ServiceCategory("Spotify"); got != "Music" {
		t.Errorf("expected Music, got %q", got)
	}
	if got := ServiceCategory("Acme Pro"); got != "" {
		t.Errorf("expected empty category, got %q", got)
	}
}
