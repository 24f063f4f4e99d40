package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/repo"
)

// replaceSet describes one "validate, then delete-all and insert-all"
// operation over the rows owned by a single key.
//
// Validate runs before any transaction is opened; a non-nil error leaves the
// stored set untouched. Owner runs inside the transaction and returns the
// value stored in OwnerColumn (it may create the owner, as sweepstake entries
// do). ToRows builds the new rows for that owner.
type replaceSet[I, R any] struct {
	OwnerColumn string
	Validate    func(ctx context.Context, db *gorm.DB, items []I) error
	Owner       func(ctx context.Context, tx *gorm.DB) (any, error)
	ToRows      func(owner any, items []I) []R
}

// Run validates items and swaps the owner's set atomically.
func (r replaceSet[I, R]) Run(ctx context.Context, db *gorm.DB, items []I) error {
	if r.Validate != nil {
		if err := r.Validate(ctx, db, items); err != nil {
			return err
		}
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := r.Owner(ctx, tx)
		if err != nil {
			return err
		}
		return repo.ReplaceAll(ctx, tx, r.OwnerColumn, owner, r.ToRows(owner, items))
	})
}

// fixedOwner returns an Owner func for sets keyed directly by a known id.
func fixedOwner(id string) func(context.Context, *gorm.DB) (any, error) {
	return func(context.Context, *gorm.DB) (any, error) { return id, nil }
}
