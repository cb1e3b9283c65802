package models

import "time"

// ScanResult is the per-account tally of one mailbox scan. It is folded
// into ConnectedAccount.SyncStatus and returned to the caller; it is
// never persisted on its own.
type ScanResult struct {
	Provider Provider `json:"provider"`
	Found    int      `json:"found"`
	Added    int      `json:"added"`
	Errors   []string `json:"errors"`
}

// SyncReport is the caller-facing result of a sync across all of a
// user's active accounts.
type SyncReport struct {
	Message string       `json:"message"`
	Results []ScanResult `json:"results"`
}

// ExtractedSubscription is a transient candidate produced by the email
// extraction pipeline, pending dedup and persistence.
type ExtractedSubscription struct {
	Name         string
	Cost         float64
	Currency     string
	BillingCycle BillingCycle
	Category     string // directory category name, "" when unknown
	FromEmail    string
	EmailSubject string
	EmailDate    time.Time
	MessageID    string // provider message identifier
}
