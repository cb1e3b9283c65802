package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mikhno/subtrack/pkg/models"
)

// ListCategories returns all categories for a user
func (db *DB) ListCategories(ctx context.Context, userID string) ([]*models.Category, error) {
	var categories []*models.Category
	query := `SELECT * FROM categories WHERE user_id = ? ORDER BY name`
	err := db.SelectContext(ctx, &categories, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// EnsureCategories creates the given categories for a user if they do not
// exist yet. Existing categories are left untouched.
func (db *DB) EnsureCategories(ctx context.Context, userID string, names []string) error {
	query := `INSERT OR IGNORE INTO categories (user_id, name, created_at) VALUES (?, ?, ?)`
	now := time.Now()
	for _, name := range names {
		if _, err := db.ExecContext(ctx, query, userID, name, now); err != nil {
			return fmt.Errorf("failed to ensure category %q: %w", name, err)
		}
	}
	return nil
}
