// Package calculator holds the pure functions of the ledger engine:
// balance recomputation and debt simplification. It keeps no state
// between calls, so it is safe to invoke concurrently with writes as
// long as the inputs come from one storage snapshot.
package calculator

import "github.com/tallyhq/tally/internal/models"

// CalculateBalances derives every member's net position from the full
// ledger. It is recomputed from first principles on every call rather
// than incrementally maintained; that keeps the result consistent with
// the ledger across deletions and retroactive settlements, at
// O(expenses x splits x payments) cost, which is fine at group expense
// volumes (hundreds, not millions).
//
// For every non-settlement expense, each split owed by someone other
// than the payer contributes its remaining unpaid amount to the ower's
// "owes" and the payer's "owed". Members with no activity come out at
// net zero. The result order follows the members argument, which keeps
// downstream debt simplification deterministic.
func CalculateBalances(members []models.Member, expenses []models.Expense, splits []models.Split, payments []models.PaymentEntry) []models.Balance {
	balances := make([]models.Balance, len(members))
	index := make(map[string]int, len(members))
	for i, m := range members {
		balances[i] = models.Balance{MemberID: m.ID, Name: m.Name}
		index[m.ID] = i
	}

	paid := PaidBySplit(payments)

	splitsByExpense := make(map[string][]models.Split, len(expenses))
	for _, s := range splits {
		splitsByExpense[s.ExpenseID] = append(splitsByExpense[s.ExpenseID], s)
	}

	for _, expense := range expenses {
		if expense.Kind == models.KindSettlement {
			continue
		}
		for _, split := range splitsByExpense[expense.ID] {
			// A payer never owes themselves.
			if split.MemberID == expense.PayerID {
				continue
			}
			remaining := Remaining(split, paid)
			if remaining <= models.Epsilon {
				continue
			}
			if i, ok := index[split.MemberID]; ok {
				balances[i].Owes += remaining
			}
			if i, ok := index[expense.PayerID]; ok {
				balances[i].Owed += remaining
			}
		}
	}

	for i := range balances {
		balances[i].Net = balances[i].Owed - balances[i].Owes
	}

	return balances
}

// PaidBySplit sums the recorded payments per split id.
func PaidBySplit(payments []models.PaymentEntry) map[string]float64 {
	paid := make(map[string]float64, len(payments))
	for _, p := range payments {
		paid[p.SplitID] += p.Amount
	}
	return paid
}

// Remaining is the split's original amount minus everything paid
// against it.
func Remaining(split models.Split, paidBySplit map[string]float64) float64 {
	return split.Amount - paidBySplit[split.ID]
}
