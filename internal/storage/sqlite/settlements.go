package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/models"
)

// RecordSettlement persists a settlement expense and its payment
// entries as a single transaction.
//
// The caller computed each entry's amount from a snapshot of the
// ledger. Between that read and this write another settlement may have
// consumed part of a split, so every entry is checked against the
// split's remaining balance inside the transaction. On violation the
// whole transaction rolls back and a ConflictError is returned; no
// partial set of entries is ever visible.
func (s *SQLiteStore) RecordSettlement(ctx context.Context, expense *models.Expense, entries []models.PaymentEntry) error {
	if expense.Kind != models.KindSettlement {
		return models.Validationf("settlement expense must have kind %q, got %q", models.KindSettlement, expense.Kind)
	}
	if expense.Amount <= 0 {
		return models.Validationf("settlement amount must be positive, got %.2f", expense.Amount)
	}
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	for i := range entries {
		if entries[i].Amount <= 0 {
			return models.Validationf("payment amount must be positive, got %.2f", entries[i].Amount)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, currency, payer_id, date, kind, from_member_id, to_member_id, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount, expense.Currency,
		expense.PayerID, expense.Date, expense.Kind,
		nullable(expense.FromMemberID), nullable(expense.ToMemberID),
		expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement expense: %w", err)
	}

	now := time.Now().Unix()
	for i := range entries {
		entry := &entries[i]

		remaining, err := splitRemaining(ctx, tx, entry.SplitID)
		if err != nil {
			return err
		}
		if entry.Amount > remaining+models.Epsilon {
			return &models.ConflictError{SplitID: entry.SplitID}
		}

		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		if entry.CreatedAt == 0 {
			entry.CreatedAt = now
		}
		entry.SettlementExpenseID = expense.ID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO payment_entries (id, group_id, split_id, settlement_expense_id, from_member_id, to_member_id, amount, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.GroupID, entry.SplitID, entry.SettlementExpenseID,
			entry.FromMemberID, entry.ToMemberID, entry.Amount, entry.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListPayments returns all payment entries for a group in creation order.
func (s *SQLiteStore) ListPayments(ctx context.Context, groupID string) ([]models.PaymentEntry, error) {
	return listPayments(ctx, s.db, groupID)
}

func listPayments(ctx context.Context, q querier, groupID string) ([]models.PaymentEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, group_id, split_id, settlement_expense_id, from_member_id, to_member_id, amount, created_at
		 FROM payment_entries WHERE group_id = ? ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment entries: %w", err)
	}
	defer rows.Close()

	var entries []models.PaymentEntry
	for rows.Next() {
		var p models.PaymentEntry
		if err := rows.Scan(&p.ID, &p.GroupID, &p.SplitID, &p.SettlementExpenseID,
			&p.FromMemberID, &p.ToMemberID, &p.Amount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment entry: %w", err)
		}
		entries = append(entries, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment entries: %w", err)
	}

	return entries, nil
}

// splitRemaining computes a split's unpaid balance inside the given
// transaction.
func splitRemaining(ctx context.Context, tx *sql.Tx, splitID string) (float64, error) {
	var remaining float64
	err := tx.QueryRowContext(ctx,
		`SELECT s.amount - COALESCE((SELECT SUM(p.amount) FROM payment_entries p WHERE p.split_id = s.id), 0)
		 FROM splits s WHERE s.id = ?`,
		splitID,
	).Scan(&remaining)
	if err == sql.ErrNoRows {
		return 0, &models.NotFoundError{Kind: "split", ID: splitID}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute split remaining: %w", err)
	}
	return remaining, nil
}
