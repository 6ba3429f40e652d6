package models

// Expense kinds. A settlement expense exists only as a side effect of
// recording a settlement and its amount equals the sum of the payment
// entries it produced.
const (
	KindExpense    = "expense"
	KindSettlement = "settlement"
)

// Expense is a shared cost within a group. Expenses are immutable once
// created; the only supported change is deletion, which cascades to the
// expense's splits and, for settlements, to the payment entries the
// settlement produced.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"group_id"`

	// Description is the human-readable label. For settlements it is
	// derived from the participants, never parsed back.
	Description string `json:"description"`

	// Amount is the total cost. Always positive.
	Amount float64 `json:"amount"`

	// Currency is carried from the group; the ledger does not interpret it.
	Currency string `json:"currency"`

	// PayerID is the member who paid. For settlements this is the
	// member paying off their debt.
	PayerID string `json:"payer_id"`

	// Date is the expense date in YYYY-MM-DD form.
	Date string `json:"date"`

	// Kind is KindExpense or KindSettlement.
	Kind string `json:"kind"`

	// FromMemberID and ToMemberID identify the settlement participants.
	// Set only when Kind is KindSettlement.
	FromMemberID string `json:"from_member_id,omitempty"`
	ToMemberID   string `json:"to_member_id,omitempty"`

	// CreatedBy is the acting member who created the record.
	CreatedBy string `json:"created_by"`

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64 `json:"created_at"`
}

// Split is one member's share of one expense. Splits are created
// atomically with their expense and never mutated afterwards; they
// record the original obligation permanently. A split whose member is
// the expense's payer is excluded from obligation accounting.
type Split struct {
	// ID is the unique identifier for the split (UUID format).
	ID string `json:"id"`

	// ExpenseID is the owning expense.
	ExpenseID string `json:"expense_id"`

	// MemberID is the member who owes this share.
	MemberID string `json:"member_id"`

	// Amount is the share owed. Non-negative.
	Amount float64 `json:"amount"`
}

// PaymentEntry records that part of a split has been paid. Entries are
// append-only; they are removed only when their settlement expense is
// deleted. The sum of entries for a split never exceeds the split's
// amount.
type PaymentEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string `json:"id"`

	// GroupID is the group the payment belongs to.
	GroupID string `json:"group_id"`

	// SplitID is the original obligation this payment reduces.
	SplitID string `json:"split_id"`

	// SettlementExpenseID is the settlement that produced this entry.
	SettlementExpenseID string `json:"settlement_expense_id"`

	// FromMemberID is the member who paid (the ower of the split).
	FromMemberID string `json:"from_member_id"`

	// ToMemberID is the member who was paid (the payer of the split's
	// expense).
	ToMemberID string `json:"to_member_id"`

	// Amount is the payment amount. Positive, and at most the split's
	// remaining balance at the time it was written.
	Amount float64 `json:"amount"`

	// CreatedAt is the Unix timestamp when the entry was written.
	CreatedAt int64 `json:"created_at"`
}

// SplitShare is a requested share when creating an expense.
type SplitShare struct {
	MemberID string  `json:"member_id"`
	Amount   float64 `json:"amount"`
}
