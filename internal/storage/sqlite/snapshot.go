package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tallyhq/tally/internal/models"
)

// Snapshot reads a group's expenses, splits, and payment entries inside
// one read-only transaction, so a concurrently created expense can
// never show up without its splits, nor a settlement without its
// entries.
func (s *SQLiteStore) Snapshot(ctx context.Context, groupID string) ([]models.Expense, []models.Split, []models.PaymentEntry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	expenses, err := listExpenses(ctx, tx, groupID)
	if err != nil {
		return nil, nil, nil, err
	}
	splits, err := listSplits(ctx, tx, groupID)
	if err != nil {
		return nil, nil, nil, err
	}
	payments, err := listPayments(ctx, tx, groupID)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}

	return expenses, splits, payments, nil
}
