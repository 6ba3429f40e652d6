package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/models"
)

// CreateExpense persists an expense and its splits in one transaction.
// A partially split expense must never be observable, so the membership
// and sum checks run inside the same transaction as the inserts.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, shares []models.SplitShare) ([]models.Split, error) {
	if expense.Amount <= 0 {
		return nil, models.Validationf("expense amount must be positive, got %.2f", expense.Amount)
	}
	if expense.Kind == "" {
		expense.Kind = models.KindExpense
	}
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	group, err := s.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(expense.PayerID) {
		return nil, models.Validationf("payer %s is not a member of group %s", expense.PayerID, expense.GroupID)
	}
	if expense.Currency == "" {
		expense.Currency = group.Currency
	}

	var sum float64
	for _, share := range shares {
		if share.Amount < 0 {
			return nil, models.Validationf("split amount must not be negative, got %.2f", share.Amount)
		}
		if !group.HasMember(share.MemberID) {
			return nil, models.Validationf("split member %s is not a member of group %s", share.MemberID, expense.GroupID)
		}
		sum += share.Amount
	}
	if math.Abs(sum-expense.Amount) > models.Epsilon {
		return nil, models.Validationf("splits sum to %.2f, expense amount is %.2f", sum, expense.Amount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
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
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}

	splits := make([]models.Split, 0, len(shares))
	for _, share := range shares {
		split := models.Split{
			ID:        uuid.New().String(),
			ExpenseID: expense.ID,
			MemberID:  share.MemberID,
			Amount:    share.Amount,
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO splits (id, expense_id, member_id, amount) VALUES (?, ?, ?, ?)",
			split.ID, split.ExpenseID, split.MemberID, split.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert split: %w", err)
		}
		splits = append(splits, split)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return splits, nil
}

// DeleteExpense removes an expense. Foreign keys cascade the delete to
// the expense's splits and, for settlements, to the payment entries the
// settlement wrote, which restores the prior balances exactly.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM expenses WHERE id = ?", expenseID).Scan(&exists)
	if err == sql.ErrNoRows {
		return &models.NotFoundError{Kind: "expense", ID: expenseID}
	}
	if err != nil {
		return fmt.Errorf("failed to check expense existence: %w", err)
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	return nil
}

// ListExpenses returns the group's expenses in creation order.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	return listExpenses(ctx, s.db, groupID)
}

func listExpenses(ctx context.Context, q querier, groupID string) ([]models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, group_id, description, amount, currency, payer_id, date, kind, from_member_id, to_member_id, created_by, created_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		var from, to sql.NullString
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.Currency,
			&e.PayerID, &e.Date, &e.Kind, &from, &to, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.FromMemberID = from.String
		e.ToMemberID = to.String
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, nil
}

// ListSplits returns all splits for the group's expenses.
func (s *SQLiteStore) ListSplits(ctx context.Context, groupID string) ([]models.Split, error) {
	return listSplits(ctx, s.db, groupID)
}

func listSplits(ctx context.Context, q querier, groupID string) ([]models.Split, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT s.id, s.expense_id, s.member_id, s.amount
		 FROM splits s JOIN expenses e ON e.id = s.expense_id
		 WHERE e.group_id = ? ORDER BY e.created_at, e.id, s.rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		var sp models.Split
		if err := rows.Scan(&sp.ID, &sp.ExpenseID, &sp.MemberID, &sp.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return splits, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
