package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ReplaceAll deletes every row of R whose ownerColumn equals ownerID and
// inserts rows in their place. It must be called with a transaction handle so
// readers observe either the old set or the new set, never a mix.
//
// An empty rows slice clears the owner's set.
func ReplaceAll[R any](ctx context.Context, tx *gorm.DB, ownerColumn string, ownerID any, rows []R) error {
	var zero R
	if err := tx.WithContext(ctx).
		Where(fmt.Sprintf("%s = ?", ownerColumn), ownerID).
		Delete(&zero).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&rows).Error
}
