package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/metrics"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// ExpenseInput is a request to add a shared expense to a group's ledger.
type ExpenseInput struct {
	Description string              `json:"description"`
	Amount      float64             `json:"amount"`
	PayerID     string              `json:"payer_id"`
	Date        string              `json:"date"`
	Splits      []models.SplitShare `json:"splits"`
}

// Settlement is one settlement expense together with the payment
// entries it produced.
type Settlement struct {
	Expense  models.Expense        `json:"expense"`
	Payments []models.PaymentEntry `json:"payments"`
}

// LedgerService exposes the group ledger: expense CRUD plus the derived
// balance and suggested-debt views. Balances are recomputed from a
// storage snapshot on every read; the service holds no ledger state.
type LedgerService struct {
	store storage.Store
}

// NewLedgerService creates a LedgerService with the given storage backend.
func NewLedgerService(store storage.Store) *LedgerService {
	return &LedgerService{store: store}
}

// AddExpense records a shared expense with per-member splits, created
// atomically. actorID is the authenticated member creating the record.
func (s *LedgerService) AddExpense(ctx context.Context, actorID, groupID string, in ExpenseInput) (*models.Expense, []models.Split, error) {
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, nil, models.Validationf("date must be YYYY-MM-DD, got %q", in.Date)
	}

	expense := &models.Expense{
		GroupID:     groupID,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		PayerID:     in.PayerID,
		Date:        date,
		Kind:        models.KindExpense,
		CreatedBy:   actorID,
	}

	splits, err := s.store.CreateExpense(ctx, expense, in.Splits)
	if err != nil {
		slog.Error("AddExpense failed", "group_id", groupID, "error", err)
		return nil, nil, err
	}

	metrics.ExpensesCreated.WithLabelValues(models.KindExpense).Inc()
	slog.Info("Expense added",
		"group_id", groupID,
		"expense_id", expense.ID,
		"amount", expense.Amount,
		"splits_count", len(splits),
	)
	return expense, splits, nil
}

// DeleteExpense hard-removes an expense. Splits cascade; for a
// settlement expense the payment entries cascade too, which is the only
// supported way to undo a settlement.
func (s *LedgerService) DeleteExpense(ctx context.Context, groupID, expenseID string) error {
	expenses, err := s.store.ListExpenses(ctx, groupID)
	if err != nil {
		return err
	}
	kind := ""
	for _, e := range expenses {
		if e.ID == expenseID {
			kind = e.Kind
			break
		}
	}
	if kind == "" {
		return &models.NotFoundError{Kind: "expense", ID: expenseID}
	}

	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expenseID, "error", err)
		return err
	}

	metrics.ExpensesDeleted.WithLabelValues(kind).Inc()
	slog.Info("Expense deleted", "group_id", groupID, "expense_id", expenseID, "kind", kind)
	return nil
}

// ListExpenses returns the group's expenses in creation order.
func (s *LedgerService) ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListExpenses(ctx, groupID)
}

// Balances recomputes every member's net position from the current
// ledger. Two calls with no intervening writes return identical
// results.
func (s *LedgerService) Balances(ctx context.Context, groupID string) ([]models.Balance, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, splits, payments, err := s.store.Snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.CalculateBalances(group.Members, expenses, splits, payments), nil
}

// SuggestedDebts returns the simplified transfer plan for the group's
// current balances.
func (s *LedgerService) SuggestedDebts(ctx context.Context, groupID string) ([]models.SuggestedDebt, error) {
	balances, err := s.Balances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.SimplifyDebts(balances), nil
}

// SettlementHistory returns the group's settlement expenses with their
// related payment entries, newest first.
func (s *LedgerService) SettlementHistory(ctx context.Context, groupID string) ([]Settlement, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	expenses, _, payments, err := s.store.Snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}

	paymentsBySettlement := make(map[string][]models.PaymentEntry)
	for _, p := range payments {
		paymentsBySettlement[p.SettlementExpenseID] = append(paymentsBySettlement[p.SettlementExpenseID], p)
	}

	var settlements []Settlement
	for _, e := range expenses {
		if e.Kind != models.KindSettlement {
			continue
		}
		settlements = append(settlements, Settlement{
			Expense:  e,
			Payments: paymentsBySettlement[e.ID],
		})
	}
	// Expenses come back oldest first; history reads newest first.
	for i, j := 0, len(settlements)-1; i < j; i, j = i+1, j-1 {
		settlements[i], settlements[j] = settlements[j], settlements[i]
	}

	return settlements, nil
}
