package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mikhno/subtrack/pkg/models"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when trying to insert a duplicate record
var ErrAlreadyExists = errors.New("record already exists")

// CreateAccount creates a new connected account
func (db *DB) CreateAccount(ctx context.Context, account *models.ConnectedAccount) error {
	query := `
		INSERT INTO connected_accounts (user_id, provider, email, access_token, refresh_token, token_expiry, imap_server, status, sync_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		account.UserID,
		account.Provider,
		account.Email,
		account.AccessToken,
		account.RefreshToken,
		account.TokenExpiry,
		account.IMAPServer,
		account.Status,
		account.SyncStatus,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// GetAccountByID returns an account by ID
func (db *DB) GetAccountByID(ctx context.Context, id int64) (*models.ConnectedAccount, error) {
	var account models.ConnectedAccount
	query := `SELECT * FROM connected_accounts WHERE id = ?`
	err := db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// ListAccounts returns all connected accounts for a user
func (db *DB) ListAccounts(ctx context.Context, userID string) ([]*models.ConnectedAccount, error) {
	var accounts []*models.ConnectedAccount
	query := `SELECT * FROM connected_accounts WHERE user_id = ? ORDER BY created_at DESC`
	err := db.SelectContext(ctx, &accounts, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// ListActiveAccounts returns all ACTIVE connected accounts for a user
func (db *DB) ListActiveAccounts(ctx context.Context, userID string) ([]*models.ConnectedAccount, error) {
	var accounts []*models.ConnectedAccount
	query := `SELECT * FROM connected_accounts WHERE user_id = ? AND status = ?`
	err := db.SelectContext(ctx, &accounts, query, userID, models.AccountActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccountTokens updates the credential material after a token refresh
func (db *DB) UpdateAccountTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiry sql.NullTime) error {
	query := `UPDATE connected_accounts SET access_token = ?, refresh_token = ?, token_expiry = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, accessToken, refreshToken, expiry, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update account tokens: %w", err)
	}
	return nil
}

// UpdateAccountStatus sets the lifecycle status of an account
func (db *DB) UpdateAccountStatus(ctx context.Context, id int64, status models.AccountStatus) error {
	query := `UPDATE connected_accounts SET status = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	return nil
}

// UpdateAccountSync records the outcome of a scan on the account
func (db *DB) UpdateAccountSync(ctx context.Context, id int64, syncedAt time.Time, syncStatus string) error {
	query := `UPDATE connected_accounts SET last_sync_at = ?, sync_status = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, syncedAt, syncStatus, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update account sync: %w", err)
	}
	return nil
}

// DeleteAccount deletes a connected account
func (db *DB) DeleteAccount(ctx context.Context, id int64) error {
	query := `DELETE FROM connected_accounts WHERE id = ?`
	_, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
