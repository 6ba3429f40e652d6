package calculator

import (
	"math"
	"sort"

	"github.com/tallyhq/tally/internal/models"
)

// SimplifyDebts reduces a set of net balances to a short list of
// suggested transfers using the greedy minimum-cash-flow heuristic:
// match the largest debtor against the largest creditor until both
// sides are exhausted. The result is not provably minimal in
// transaction count for every input, but it is simple, valid, and
// deterministic for identical input (descending sort by amount, ties
// kept in the incoming balance order).
//
// The suggestions are advisory. They show one valid way to bring
// everyone to zero; settlements are accepted for any payer/payee pair.
func SimplifyDebts(balances []models.Balance) []models.SuggestedDebt {
	type side struct {
		memberID string
		name     string
		amount   float64
	}

	var debtors, creditors []side
	for _, b := range balances {
		switch {
		case b.Net < -models.Epsilon:
			debtors = append(debtors, side{b.MemberID, b.Name, -b.Net})
		case b.Net > models.Epsilon:
			creditors = append(creditors, side{b.MemberID, b.Name, b.Net})
		}
	}

	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	var debts []models.SuggestedDebt
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		transfer := math.Min(debtor.amount, creditor.amount)
		if transfer > models.Epsilon {
			debts = append(debts, models.SuggestedDebt{
				FromMemberID: debtor.memberID,
				FromName:     debtor.name,
				ToMemberID:   creditor.memberID,
				ToName:       creditor.name,
				Amount:       Round2(transfer),
			})
		}

		debtor.amount -= transfer
		creditor.amount -= transfer

		if debtor.amount < models.Epsilon {
			i++
		}
		if creditor.amount < models.Epsilon {
			j++
		}
	}

	return debts
}

// Round2 rounds to two decimal places, the granularity of every amount
// in the ledger.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
