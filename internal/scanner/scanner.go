// Package scanner orchestrates mailbox scans: it issues the billing
// search queries against a connected account, runs each message through
// the extraction pipeline, dedupes the candidates, and persists the
// surviving subscriptions.
package scanner

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mikhno/subtrack/internal/extract"
	"github.com/mikhno/subtrack/internal/mailbox"
	"github.com/mikhno/subtrack/pkg/models"
)

// Store is the persistence surface the scanner consumes. *database.DB
// satisfies it.
type Store interface {
	ListActiveAccounts(ctx context.Context, userID string) ([]*models.ConnectedAccount, error)
	SubscriptionNames(ctx context.Context, userID string) ([]string, error)
	SubscriptionSourceIDs(ctx context.Context, userID string) ([]string, error)
	ListCategories(ctx context.Context, userID string) ([]*models.Category, error)
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	UpdateAccountTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiry sql.NullTime) error
	UpdateAccountStatus(ctx context.Context, id int64, status models.AccountStatus) error
	UpdateAccountSync(ctx context.Context, id int64, syncedAt time.Time, syncStatus string) error
}

// Config tunes a Scanner.
type Config struct {
	BaseCurrency string
	PageSize     int
}

// Scanner scans one connected account at a time.
type Scanner struct {
	store     Store
	providers mailbox.Registry
	queries   []mailbox.Query
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a new Scanner
func New(store Store, providers mailbox.Registry, cfg Config, logger *slog.Logger) *Scanner {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "USD"
	}
	return &Scanner{
		store:     store,
		providers: providers,
		queries:   mailbox.BillingQueries(),
		cfg:       cfg,
		logger:    logger.With("component", "scanner"),
		now:       time.Now,
	}
}

// Scan searches the account's mailbox for billing emails and persists new
// subscriptions. Failures are per-account: the result always comes back,
// with errors recorded in it rather than raised.
func (s *Scanner) Scan(ctx context.Context, account *models.ConnectedAccount) models.ScanResult {
	result := models.ScanResult{Provider: account.Provider, Errors: []string{}}
	logger := s.logger.With("account_id", account.ID, "email", account.Email)

	provider, ok := s.providers.For(account.Provider)
	if !ok {
		result.Errors = append(result.Errors, fmt.Sprintf("no provider for %s", account.Provider))
		return result
	}

	// Token refresh must complete before any search is issued.
	if err := s.refreshIfExpired(ctx, provider, account); err != nil {
		logger.Warn("credential refresh failed, marking account expired", "error", err)
		if err := s.store.UpdateAccountStatus(ctx, account.ID, models.AccountExpired); err != nil {
			logger.Error("failed to update account status", "error", err)
		}
		result.Errors = append(result.Errors, "token expired and refresh failed")
		return result
	}

	// Seed dedup state from what is already persisted.
	names, err := s.store.SubscriptionNames(ctx, account.UserID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load subscriptions: %v", err))
		return result
	}
	knownNames := make(map[string]bool, len(names))
	for _, n := range names {
		knownNames[normalizeName(n)] = true
	}

	sourceIDs, err := s.store.SubscriptionSourceIDs(ctx, account.UserID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load processed messages: %v", err))
		return result
	}
	processed := make(map[string]bool, len(sourceIDs))
	for _, id := range sourceIDs {
		processed[id] = true
	}

	var candidates []models.ExtractedSubscription

	for _, query := range s.queries {
		refs, err := provider.Search(ctx, account, query, s.cfg.PageSize)
		if err != nil {
			logger.Warn("search failed", "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("search failed: %v", err))
			continue
		}

		for _, ref := range refs {
			if ref.ID == "" || processed[ref.ID] {
				continue
			}
			// Also covers the same message surfacing from a later query:
			// each message is fetched and processed at most once per scan.
			processed[ref.ID] = true

			candidate, ok := s.extractMessage(ctx, provider, account, ref, knownNames, logger)
			if !ok {
				continue
			}

			knownNames[normalizeName(candidate.Name)] = true
			candidates = append(candidates, candidate)
			result.Found++
		}
	}

	categoryIDs := s.loadCategoryIDs(ctx, account.UserID, logger)

	for _, candidate := range candidates {
		if err := s.persist(ctx, account.UserID, candidate, categoryIDs); err != nil {
			logger.Warn("failed to persist candidate", "name", candidate.Name, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("failed to create: %s", candidate.Name))
			continue
		}
		result.Added++
	}

	syncStatus := fmt.Sprintf("Found %d, Added %d", result.Found, result.Added)
	if err := s.store.UpdateAccountSync(ctx, account.ID, s.now(), syncStatus); err != nil {
		logger.Error("failed to update sync status", "error", err)
	}

	logger.Info("scan finished", "found", result.Found, "added", result.Added, "errors", len(result.Errors))
	return result
}

// refreshIfExpired refreshes the account's credentials through the
// provider when the access token is past its expiry.
func (s *Scanner) refreshIfExpired(ctx context.Context, provider mailbox.Provider, account *models.ConnectedAccount) error {
	if !account.TokenExpired(s.now()) {
		return nil
	}

	creds, err := provider.RefreshCredentials(ctx, account)
	if err != nil {
		return err
	}
	if creds == nil {
		// Credentials of this kind do not expire.
		return nil
	}

	account.AccessToken = creds.AccessToken
	account.RefreshToken = creds.RefreshToken
	account.TokenExpiry = sql.NullTime{Time: creds.Expiry, Valid: !creds.Expiry.IsZero()}
	if err := s.store.UpdateAccountTokens(ctx, account.ID, account.AccessToken, account.RefreshToken, account.TokenExpiry); err != nil {
		return fmt.Errorf("failed to store refreshed tokens: %w", err)
	}
	return nil
}

// extractMessage fetches one message and runs it through the extraction
// pipeline. Any miss along the way drops the message silently; extraction
// is best-effort per message.
func (s *Scanner) extractMessage(ctx context.Context, provider mailbox.Provider, account *models.ConnectedAccount, ref mailbox.MessageRef, knownNames map[string]bool, logger *slog.Logger) (models.ExtractedSubscription, bool) {
	msg, err := provider.Fetch(ctx, account, ref)
	if err != nil {
		logger.Warn("failed to fetch message", "message_id", ref.ID, "error", err)
		return models.ExtractedSubscription{}, false
	}

	service, ok := extract.IdentifyService(msg.From, msg.Subject, msg.Body)
	if !ok {
		return models.ExtractedSubscription{}, false
	}
	if knownNames[normalizeName(service.Name)] {
		return models.ExtractedSubscription{}, false
	}

	fullText := msg.Subject + "\n" + msg.Body
	price, ok := extract.ExtractPrice(fullText)
	if !ok {
		return models.ExtractedSubscription{}, false
	}

	date := msg.Date
	if date.IsZero() {
		date = s.now()
	}

	return models.ExtractedSubscription{
		Name:         service.Name,
		Cost:         price,
		Currency:     extract.DetectCurrency(fullText, s.cfg.BaseCurrency),
		BillingCycle: extract.DetectCycle(fullText),
		Category:     service.Category,
		FromEmail:    msg.From,
		EmailSubject: msg.Subject,
		EmailDate:    date,
		MessageID:    msg.ID,
	}, true
}

// persist writes one candidate as an ACTIVE subscription. The provider
// message identifier becomes the source id, which the store's uniqueness
// constraint backstops against concurrent scans.
func (s *Scanner) persist(ctx context.Context, userID string, candidate models.ExtractedSubscription, categoryIDs map[string]int64) error {
	sub := &models.Subscription{
		UserID:          userID,
		Name:            candidate.Name,
		Cost:            candidate.Cost,
		Currency:        candidate.Currency,
		BillingCycle:    candidate.BillingCycle,
		Status:          models.SubscriptionActive,
		StartDate:       candidate.EmailDate,
		NextBillingDate: extract.NextBillingDate(candidate.EmailDate, candidate.BillingCycle, s.now()),
		Source:          models.SourceEmail,
		SourceID:        sql.NullString{String: candidate.MessageID, Valid: candidate.MessageID != ""},
		Notes:           "Imported from email: " + candidate.EmailSubject,
	}
	if id, ok := categoryIDs[strings.ToLower(candidate.Category)]; ok && candidate.Category != "" {
		sub.CategoryID = sql.NullInt64{Int64: id, Valid: true}
	}
	return s.store.CreateSubscription(ctx, sub)
}

func (s *Scanner) loadCategoryIDs(ctx context.Context, userID string, logger *slog.Logger) map[string]int64 {
	ids := make(map[string]int64)
	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		// Candidates are still persisted, just without a category.
		logger.Warn("failed to load categories", "error", err)
		return ids
	}
	for _, c := range categories {
		ids[strings.ToLower(c.Name)] = c.ID
	}
	return ids
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
