// Package mailbox provides access to mailbox providers: searching for
// billing-related messages, fetching message content, and refreshing
// credentials. Two providers are implemented: the Gmail REST API and
// plain IMAP.
package mailbox

import (
	"context"
	"errors"
	"time"

	"github.com/mikhno/subtrack/pkg/models"
)

// ErrCredentials indicates the account's credential is unusable and could
// not be refreshed. The scan for that account is aborted and the account
// is transitioned to EXPIRED.
var ErrCredentials = errors.New("mailbox credentials unusable")

// MessageRef identifies a message within a provider's mailbox. ID is the
// provider-scoped message identifier used for cross-scan dedup; UID is
// set by the IMAP provider only.
type MessageRef struct {
	ID  string
	UID uint32
}

// RawMessage is a fetched message. It is consumed once per scan and never
// retained.
type RawMessage struct {
	ID      string
	From    string
	Subject string
	Body    string
	Date    time.Time
}

// Credentials is the result of a successful token refresh.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Provider is a mailbox backend. All methods are fallible I/O; callers
// retry nothing beyond the single refresh attempt the scanner performs.
type Provider interface {
	// Search returns references to messages matching the query, capped
	// at pageSize results.
	Search(ctx context.Context, account *models.ConnectedAccount, query Query, pageSize int) ([]MessageRef, error)
	// Fetch retrieves one message with its decoded text body.
	Fetch(ctx context.Context, account *models.ConnectedAccount, ref MessageRef) (*RawMessage, error)
	// RefreshCredentials obtains fresh credential material for an
	// account whose token expired. Providers whose credentials do not
	// expire return (nil, nil).
	RefreshCredentials(ctx context.Context, account *models.ConnectedAccount) (*Credentials, error)
}

// Registry resolves a provider implementation by account provider kind.
type Registry map[models.Provider]Provider

// For returns the provider for the given kind.
func (r Registry) For(kind models.Provider) (Provider, bool) {
	p, ok := r[kind]
	return p, ok
}
