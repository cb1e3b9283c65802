package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikhno/subtrack/internal/database"
	"github.com/mikhno/subtrack/internal/mailbox"
	"github.com/mikhno/subtrack/internal/scanner"
	"github.com/mikhno/subtrack/pkg/models"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sc := scanner.New(db, mailbox.Registry{}, scanner.Config{BaseCurrency: "USD"}, logger)
	syncer := scanner.NewSyncer(db, sc, nil, logger)
	return New(db, syncer, logger)
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireUser(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestSubscriptionHandlers(t *testing.T) {
	srv := testServer(t)

	t.Run("create fills in defaults", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/subscriptions",
			`{"name":"Netflix","cost":15.99}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var sub models.Subscription
		if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if sub.Currency != "USD" || sub.BillingCycle != models.CycleMonthly {
			t.Errorf("unexpected defaults %+v", sub)
		}
		if sub.Source != models.SourceManual {
			t.Errorf("expected MANUAL source, got %q", sub.Source)
		}
		if !sub.NextBillingDate.After(sub.StartDate) {
			t.Error("next billing date must be after start date")
		}
	})

	t.Run("create rejects missing name", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/subscriptions", `{"cost":9.99}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("create rejects unknown fields", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/subscriptions",
			`{"name":"Spotify","cost":9.99,"bogus":true}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("list returns created subscriptions", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/subscriptions", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var subs []models.Subscription
		if err := json.Unmarshal(rec.Body.Bytes(), &subs); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(subs) != 1 || subs[0].Name != "Netflix" {
			t.Errorf("unexpected subscriptions %+v", subs)
		}
	})

	t.Run("delete hides other users' subscriptions", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/subscriptions/1", nil)
		req.Header.Set("X-User-ID", "someone-else")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("delete removes own subscription", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodDelete, "/api/subscriptions/1", "")
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})
}

func TestAccountHandlers(t *testing.T) {
	srv := testServer(t)

	t.Run("connect resolves imap server and strips credentials", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/accounts",
			`{"provider":"IMAP","email":"me@yandex.ru","accessToken":"secret"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var account struct {
			IMAPServer  string `json:"IMAPServer"`
			AccessToken string `json:"AccessToken"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &account); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if account.IMAPServer != "imap.yandex.ru:993" {
			t.Errorf("unexpected imap server %q", account.IMAPServer)
		}
		if account.AccessToken != "" {
			t.Error("access token leaked in response")
		}
	})

	t.Run("connect rejects unknown provider", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/accounts",
			`{"provider":"EXCHANGE","email":"me@corp.example","accessToken":"x"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("list never returns credentials", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/accounts", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "secret") {
			t.Error("credentials leaked in account listing")
		}
	})

	t.Run("disconnect removes the account", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodDelete, "/api/accounts/1", "")
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		rec = doRequest(t, srv, http.MethodDelete, "/api/accounts/1", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 on second delete, got %d", rec.Code)
		}
	})
}

func TestScanHandler(t *testing.T) {
	srv := testServer(t)

	t.Run("scan with no accounts returns an empty report", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/scan", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var report models.SyncReport
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if report.Message == "" {
			t.Error("expected a completion message")
		}
		if len(report.Results) != 0 {
			t.Errorf("expected no results, got %+v", report.Results)
		}
	})

	t.Run("scan seeds default categories", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/categories", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var categories []models.Category
		if err := json.Unmarshal(rec.Body.Bytes(), &categories); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(categories) != len(defaultCategories) {
			t.Errorf("expected %d categories, got %d", len(defaultCategories), len(categories))
		}
	})
}
