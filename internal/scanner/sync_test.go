package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/mikhno/subtrack/internal/mailbox"
	"github.com/mikhno/subtrack/pkg/models"
)

type panicProvider struct{}

func (panicProvider) Search(ctx context.Context, account *models.ConnectedAccount, query mailbox.Query, pageSize int) ([]mailbox.MessageRef, error) {
	panic("unexpected provider state")
}

func (panicProvider) Fetch(ctx context.Context, account *models.ConnectedAccount, ref mailbox.MessageRef) (*mailbox.RawMessage, error) {
	panic("unexpected provider state")
}

func (panicProvider) RefreshCredentials(ctx context.Context, account *models.ConnectedAccount) (*mailbox.Credentials, error) {
	return nil, nil
}

type recordingNotifier struct {
	reports []*models.SyncReport
}

func (n *recordingNotifier) SyncCompleted(ctx context.Context, userID string, report *models.SyncReport) {
	n.reports = append(n.reports, report)
}

func TestSyncAll(t *testing.T) {
	t.Run("scans every active account", func(t *testing.T) {
		store := newFakeStore()
		imapAccount := &models.ConnectedAccount{ID: 2, UserID: "user-1", Provider: models.ProviderIMAP, Status: models.AccountActive}
		store.accounts = []*models.ConnectedAccount{gmailAccount(), imapAccount}

		provider := newFakeProvider()
		provider.refsByQuery = [][]mailbox.MessageRef{{{ID: "m1"}}}
		provider.messages["m1"] = netflixMessage("m1")

		scan := newTestScanner(store, provider)
		syncer := NewSyncer(store, scan, nil, testLogger())

		report, err := syncer.SyncAll(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Message != "Email scan completed" {
			t.Errorf("unexpected message %q", report.Message)
		}
		if len(report.Results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(report.Results))
		}
		if report.Results[0].Added != 1 {
			t.Errorf("expected first account to add 1, got %d", report.Results[0].Added)
		}
		// No IMAP provider registered: the account fails on its own,
		// without blocking the Gmail account.
		if len(report.Results[1].Errors) != 1 {
			t.Errorf("expected 1 error for the imap account, got %v", report.Results[1].Errors)
		}
	})

	t.Run("account load failure is a hard error", func(t *testing.T) {
		store := newFakeStore()
		store.accountsErr = errors.New("db down")

		syncer := NewSyncer(store, newTestScanner(store, newFakeProvider()), nil, testLogger())
		if _, err := syncer.SyncAll(context.Background(), "user-1"); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("panicking scan becomes a zero-result entry", func(t *testing.T) {
		store := newFakeStore()
		store.accounts = []*models.ConnectedAccount{gmailAccount()}

		scan := New(store, mailbox.Registry{models.ProviderGmail: panicProvider{}}, Config{}, testLogger())
		syncer := NewSyncer(store, scan, nil, testLogger())

		report, err := syncer.SyncAll(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(report.Results))
		}
		result := report.Results[0]
		if result.Found != 0 || result.Added != 0 || len(result.Errors) != 1 {
			t.Errorf("expected a zero-result entry with one error, got %+v", result)
		}
	})

	t.Run("notifier is told about the report", func(t *testing.T) {
		store := newFakeStore()
		notifier := &recordingNotifier{}

		syncer := NewSyncer(store, newTestScanner(store, newFakeProvider()), notifier, testLogger())
		if _, err := syncer.SyncAll(context.Background(), "user-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(notifier.reports) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(notifier.reports))
		}
	})
}
