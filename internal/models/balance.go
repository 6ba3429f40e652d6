package models

// Epsilon is the tolerance for all amount comparisons, in user-facing
// currency units. Amounts are assumed to already be rounded to two
// decimal places, so anything within a cent of zero counts as settled.
const Epsilon = 0.01

// Balance is a member's derived net position within a group. It is
// recomputed from the full ledger on every read and never stored.
type Balance struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`

	// Owes is the total this member still owes others.
	Owes float64 `json:"owes"`

	// Owed is the total others still owe this member.
	Owed float64 `json:"owed"`

	// Net is Owed minus Owes. Positive means the member is owed money.
	Net float64 `json:"net"`
}

// SuggestedDebt is one transfer in the simplified settlement plan.
// The plan is advisory: it shows a valid way to bring everyone to zero,
// and settlements are accepted for any payer/payee pair regardless.
type SuggestedDebt struct {
	FromMemberID string  `json:"from_member_id"`
	FromName     string  `json:"from_name"`
	ToMemberID   string  `json:"to_member_id"`
	ToName       string  `json:"to_name"`
	Amount       float64 `json:"amount"`
}
