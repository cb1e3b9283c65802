package models

import (
	"database/sql"
	"time"
)

// BillingCycle is the recurrence period of a charge.
type BillingCycle string

const (
	CycleWeekly    BillingCycle = "WEEKLY"
	CycleMonthly   BillingCycle = "MONTHLY"
	CycleQuarterly BillingCycle = "QUARTERLY"
	CycleYearly    BillingCycle = "YEARLY"
)

// SubscriptionStatus lifecycle status of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionPaused    SubscriptionStatus = "PAUSED"
)

// SubscriptionSource records how a subscription entered the system.
type SubscriptionSource string

const (
	SourceManual SubscriptionSource = "MANUAL"
	SourceEmail  SubscriptionSource = "EMAIL"
)

// Subscription is a recurring paid subscription tracked for a user.
type Subscription struct {
	ID              int64              `db:"id"`
	UserID          string             `db:"user_id"`
	Name            string             `db:"name"`
	Cost            float64            `db:"cost"`
	Currency        string             `db:"currency"`
	BillingCycle    BillingCycle       `db:"billing_cycle"`
	Status          SubscriptionStatus `db:"status"`
	StartDate       time.Time          `db:"start_date"`
	NextBillingDate time.Time          `db:"next_billing_date"`
	Source          SubscriptionSource `db:"source"`
	// SourceID holds the provider message identifier for EMAIL-sourced
	// subscriptions; it is the cross-scan dedup key.
	SourceID   sql.NullString `db:"source_id"`
	CategoryID sql.NullInt64  `db:"category_id"`
	Notes      string         `db:"notes"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

// Category groups subscriptions for a user.
type Category struct {
	ID        int64     `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}
