package models

import (
	"database/sql"
	"time"
)

// Provider identifies the kind of mailbox a connected account belongs to.
type Provider string

const (
	ProviderGmail Provider = "GMAIL"
	ProviderIMAP  Provider = "IMAP"
)

// AccountStatus lifecycle status of a connected account.
type AccountStatus string

const (
	AccountActive  AccountStatus = "ACTIVE"
	AccountExpired AccountStatus = "EXPIRED"
	AccountRevoked AccountStatus = "REVOKED"
)

// ConnectedAccount represents a mailbox the user authorized for scanning.
// Credential material is opaque to the scan engine; it is handed to the
// mailbox provider as-is.
type ConnectedAccount struct {
	ID           int64         `db:"id"`
	UserID       string        `db:"user_id"`
	Provider     Provider      `db:"provider"`
	Email        string        `db:"email"`
	AccessToken  string        `db:"access_token"`
	RefreshToken string        `db:"refresh_token"`
	TokenExpiry  sql.NullTime  `db:"token_expiry"`
	IMAPServer   string        `db:"imap_server"` // host:port, IMAP accounts only
	Status       AccountStatus `db:"status"`
	LastSyncAt   sql.NullTime  `db:"last_sync_at"`
	SyncStatus   string        `db:"sync_status"` // e.g. "Found 3, Added 2"
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

// TokenExpired reports whether the account's access token is past its expiry.
// Accounts without a recorded expiry (IMAP password auth) never expire.
func (a *ConnectedAccount) TokenExpired(now time.Time) bool {
	return a.TokenExpiry.Valid && a.TokenExpiry.Time.Before(now)
}
