package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mikhno/subtrack/pkg/models"
)

// CreateSubscription creates a new subscription. Inserts with a source_id
// that already exists for the user are ignored and reported as
// ErrAlreadyExists, which backstops concurrent scans of the same account.
func (db *DB) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT OR IGNORE INTO subscriptions (user_id, name, cost, currency, billing_cycle, status, start_date, next_billing_date, source, source_id, category_id, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		sub.UserID,
		sub.Name,
		sub.Cost,
		sub.Currency,
		sub.BillingCycle,
		sub.Status,
		sub.StartDate,
		sub.NextBillingDate,
		sub.Source,
		sub.SourceID,
		sub.CategoryID,
		sub.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	// Check if row was actually inserted (not ignored due to duplicate)
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAlreadyExists
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	sub.ID = id
	sub.CreatedAt = now
	sub.UpdatedAt = now
	return nil
}

// GetSubscriptionByID returns a subscription by ID
func (db *DB) GetSubscriptionByID(ctx context.Context, id int64) (*models.Subscription, error) {
	var sub models.Subscription
	query := `SELECT * FROM subscriptions WHERE id = ?`
	err := db.GetContext(ctx, &sub, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// ListSubscriptions returns all subscriptions for a user
func (db *DB) ListSubscriptions(ctx context.Context, userID string) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	query := `SELECT * FROM subscriptions WHERE user_id = ? ORDER BY created_at DESC`
	err := db.SelectContext(ctx, &subs, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// SubscriptionNames returns the names of all subscriptions for a user.
// Used to seed the scan's in-memory dedup set.
func (db *DB) SubscriptionNames(ctx context.Context, userID string) ([]string, error) {
	var names []string
	query := `SELECT name FROM subscriptions WHERE user_id = ?`
	err := db.SelectContext(ctx, &names, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription names: %w", err)
	}
	return names, nil
}

// SubscriptionSourceIDs returns the provider message identifiers already
// linked to subscriptions for a user. Messages with these identifiers are
// never re-processed by a later scan.
func (db *DB) SubscriptionSourceIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	query := `SELECT source_id FROM subscriptions WHERE user_id = ? AND source_id IS NOT NULL`
	err := db.SelectContext(ctx, &ids, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription source ids: %w", err)
	}
	return ids, nil
}

// DeleteSubscription deletes a subscription
func (db *DB) DeleteSubscription(ctx context.Context, id int64) error {
	query := `DELETE FROM subscriptions WHERE id = ?`
	_, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}
