package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikhno/subtrack/pkg/models"
)

// Notifier is told about completed syncs. Implementations must not block
// the sync result on delivery failures.
type Notifier interface {
	SyncCompleted(ctx context.Context, userID string, report *models.SyncReport)
}

// Syncer runs scans across all of a user's active connected accounts.
type Syncer struct {
	store    Store
	scanner  *Scanner
	notifier Notifier
	logger   *slog.Logger
}

// NewSyncer creates a new Syncer. notifier may be nil.
func NewSyncer(store Store, scanner *Scanner, notifier Notifier, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:    store,
		scanner:  scanner,
		notifier: notifier,
		logger:   logger.With("component", "syncer"),
	}
}

// SyncAll scans every ACTIVE connected account of the user sequentially.
// One broken account never prevents the others from being scanned; only a
// failure to load the accounts themselves is a hard error.
func (s *Syncer) SyncAll(ctx context.Context, userID string) (*models.SyncReport, error) {
	accounts, err := s.store.ListActiveAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active accounts: %w", err)
	}

	report := &models.SyncReport{
		Message: "Email scan completed",
		Results: make([]models.ScanResult, 0, len(accounts)),
	}

	for _, account := range accounts {
		result := s.scan(ctx, account)
		report.Results = append(report.Results, result)
	}

	if s.notifier != nil {
		s.notifier.SyncCompleted(ctx, userID, report)
	}

	return report, nil
}

// scan shields the coordinator from a panicking account scan; the panic
// becomes a zero-result entry with the message in its error list.
func (s *Syncer) scan(ctx context.Context, account *models.ConnectedAccount) (result models.ScanResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scan panicked", "account_id", account.ID, "panic", r)
			result = models.ScanResult{
				Provider: account.Provider,
				Errors:   []string{fmt.Sprintf("scan failed: %v", r)},
			}
		}
	}()

	return s.scanner.Scan(ctx, account)
}
