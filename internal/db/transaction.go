package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// WithTransaction runs fn inside a single database transaction, committing
// on nil and rolling back on error or panic. Multi-row playlist edits
// (create with items, delete, item removal with renumbering) go through
// this so a device polling mid-edit never reads a half-applied playlist.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := db.DB.WithContext(ctx).Transaction(fn)
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}
