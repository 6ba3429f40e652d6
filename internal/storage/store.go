// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"

	"github.com/tallyhq/tally/internal/models"
)

// Store defines the persistence interface for groups and their ledgers.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Write operations are atomic: an expense is never visible without its
// splits, and a settlement expense is never visible without its payment
// entries. List operations reflect all committed writes.
type Store interface {
	// CreateGroup persists a new group with its initial members.
	// The group.ID field is populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group, including its member list.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups retrieves all groups, including member lists.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// AddMembers adds members to an existing group. Member IDs are
	// populated by the store when empty.
	AddMembers(ctx context.Context, groupID string, members []models.Member) error

	// CreateExpense persists an expense together with its splits in one
	// transaction. It returns a ValidationError when the amount is not
	// positive, the payer or any split member is not in the group, or
	// the shares do not sum to the expense amount.
	CreateExpense(ctx context.Context, expense *models.Expense, shares []models.SplitShare) ([]models.Split, error)

	// DeleteExpense removes an expense, cascading to its splits and, for
	// settlement expenses, to the payment entries the settlement wrote.
	// This cascade is the only way to undo a settlement.
	DeleteExpense(ctx context.Context, expenseID string) error

	// RecordSettlement persists a settlement expense and its payment
	// entries in one transaction. Every entry's split remaining balance
	// is re-verified inside the transaction; if a concurrent settlement
	// consumed it first, nothing is written and a ConflictError is
	// returned.
	RecordSettlement(ctx context.Context, expense *models.Expense, entries []models.PaymentEntry) error

	// ListExpenses returns the group's expenses in creation order.
	ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error)

	// ListSplits returns all splits belonging to the group's expenses.
	ListSplits(ctx context.Context, groupID string) ([]models.Split, error)

	// ListPayments returns all payment entries recorded for the group.
	ListPayments(ctx context.Context, groupID string) ([]models.PaymentEntry, error)

	// Snapshot returns the group's expenses, splits, and payment
	// entries read in a single transaction, so callers deriving
	// balances never observe an expense without its splits.
	Snapshot(ctx context.Context, groupID string) ([]models.Expense, []models.Split, []models.PaymentEntry, error)

	// Close releases any resources held by the store.
	Close() error
}
