// Package models defines the domain types for the group ledger.
//
// # Ledger model
//
// The ledger for a group is three append-mostly relations:
//   - Expense: a shared cost paid by one member, or a settlement record
//   - Split: one member's share of one expense, fixed at creation
//   - PaymentEntry: a payment recorded against one split
//
// A split is never mutated after creation. How much of it is still owed
// is always derived: the split amount minus the payments recorded
// against it. Settling up therefore only ever appends rows (a
// settlement expense plus its payment entries), and deleting a
// settlement expense restores the previous balances exactly.
//
// # Derived types
//
// Balance and SuggestedDebt are computed by the calculator package and
// never persisted.
package models
