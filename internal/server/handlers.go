package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mikhno/subtrack/internal/database"
	"github.com/mikhno/subtrack/internal/extract"
	"github.com/mikhno/subtrack/internal/mailbox"
	"github.com/mikhno/subtrack/pkg/models"
)

// Default categories seeded for a user before their first scan, so that
// directory matches have something to attach to.
var defaultCategories = []string{"Streaming", "Music", "Software", "Gaming", "Other"}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.db.ListSubscriptions(r.Context(), userID(r))
	if err != nil {
		s.logger.Error("failed to list subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

type createSubscriptionRequest struct {
	Name         string  `json:"name"`
	Cost         float64 `json:"cost"`
	Currency     string  `json:"currency"`
	BillingCycle string  `json:"billingCycle"`
	StartDate    string  `json:"startDate"` // RFC 3339 date
	CategoryID   *int64  `json:"categoryId"`
	Notes        string  `json:"notes"`
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Cost < 0 {
		writeError(w, http.StatusBadRequest, "name is required and cost must be non-negative")
		return
	}

	start := time.Now()
	if req.StartDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startDate must be RFC 3339")
			return
		}
		start = parsed
	}

	cycle := models.BillingCycle(req.BillingCycle)
	if cycle == "" {
		cycle = models.CycleMonthly
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	sub := &models.Subscription{
		UserID:          userID(r),
		Name:            req.Name,
		Cost:            req.Cost,
		Currency:        currency,
		BillingCycle:    cycle,
		Status:          models.SubscriptionActive,
		StartDate:       start,
		NextBillingDate: extract.NextBillingDate(start, cycle, time.Now()),
		Source:          models.SourceManual,
		Notes:           req.Notes,
	}
	if req.CategoryID != nil {
		sub.CategoryID = sql.NullInt64{Int64: *req.CategoryID, Valid: true}
	}

	if err := s.db.CreateSubscription(r.Context(), sub); err != nil {
		s.logger.Error("failed to create subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}

	sub, err := s.db.GetSubscriptionByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) || (err == nil && sub.UserID != userID(r)) {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load subscription")
		return
	}

	if err := s.db.DeleteSubscription(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if err := s.db.EnsureCategories(r.Context(), uid, defaultCategories); err != nil {
		s.logger.Error("failed to seed categories", "error", err)
	}
	categories, err := s.db.ListCategories(r.Context(), uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.db.ListAccounts(r.Context(), userID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	// Credential material stays server-side.
	for _, a := range accounts {
		a.AccessToken = ""
		a.RefreshToken = ""
	}
	writeJSON(w, http.StatusOK, accounts)
}

type connectAccountRequest struct {
	Provider     string `json:"provider"` // "GMAIL" or "IMAP"
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`  // OAuth token or IMAP password
	RefreshToken string `json:"refreshToken"` // GMAIL only
	TokenExpiry  string `json:"tokenExpiry"`  // RFC 3339, GMAIL only
	IMAPServer   string `json:"imapServer"`   // host:port, optional for IMAP
}

func (s *Server) handleConnectAccount(w http.ResponseWriter, r *http.Request) {
	var req connectAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.AccessToken == "" {
		writeError(w, http.StatusBadRequest, "email and accessToken are required")
		return
	}

	provider := models.Provider(req.Provider)
	if provider != models.ProviderGmail && provider != models.ProviderIMAP {
		writeError(w, http.StatusBadRequest, "provider must be GMAIL or IMAP")
		return
	}

	account := &models.ConnectedAccount{
		UserID:       userID(r),
		Provider:     provider,
		Email:        req.Email,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		Status:       models.AccountActive,
	}
	if req.TokenExpiry != "" {
		expiry, err := time.Parse(time.RFC3339, req.TokenExpiry)
		if err != nil {
			writeError(w, http.StatusBadRequest, "tokenExpiry must be RFC 3339")
			return
		}
		account.TokenExpiry = sql.NullTime{Time: expiry, Valid: true}
	}
	if provider == models.ProviderIMAP {
		account.IMAPServer = req.IMAPServer
		if account.IMAPServer == "" {
			account.IMAPServer = mailbox.ResolveIMAPServer(req.Email)
		}
	}

	if err := s.db.CreateAccount(r.Context(), account); err != nil {
		s.logger.Error("failed to create account", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to connect account")
		return
	}

	account.AccessToken = ""
	account.RefreshToken = ""
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleDisconnectAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	account, err := s.db.GetAccountByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) || (err == nil && account.UserID != userID(r)) {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	if err := s.db.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to disconnect account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleScan runs the email scan across the user's active accounts and
// returns the per-account results.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	if err := s.db.EnsureCategories(r.Context(), uid, defaultCategories); err != nil {
		s.logger.Error("failed to seed categories", "error", err)
	}

	report, err := s.syncer.SyncAll(r.Context(), uid)
	if err != nil {
		s.logger.Error("sync failed", "user_id", uid, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to scan accounts")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
