package calculator

import (
	"math"
	"testing"

	"github.com/tallyhq/tally/internal/models"
)

var (
	alice = models.Member{ID: "alice", Name: "Alice"}
	bob   = models.Member{ID: "bob", Name: "Bob"}
	carol = models.Member{ID: "carol", Name: "Carol"}
)

func balanceFor(t *testing.T, balances []models.Balance, memberID string) models.Balance {
	t.Helper()
	for _, b := range balances {
		if b.MemberID == memberID {
			return b
		}
	}
	t.Fatalf("no balance for member %s", memberID)
	return models.Balance{}
}

func TestCalculateBalances(t *testing.T) {
	members := []models.Member{alice, bob}
	expenses := []models.Expense{
		{ID: "e1", PayerID: "alice", Kind: models.KindExpense, Amount: 30},
	}
	splits := []models.Split{
		{ID: "s1", ExpenseID: "e1", MemberID: "alice", Amount: 15},
		{ID: "s2", ExpenseID: "e1", MemberID: "bob", Amount: 15},
	}

	t.Run("payer is owed, ower owes", func(t *testing.T) {
		balances := CalculateBalances(members, expenses, splits, nil)

		a := balanceFor(t, balances, "alice")
		if a.Net != 15 || a.Owed != 15 || a.Owes != 0 {
			t.Errorf("alice balance = %+v, want net +15", a)
		}
		b := balanceFor(t, balances, "bob")
		if b.Net != -15 || b.Owes != 15 || b.Owed != 0 {
			t.Errorf("bob balance = %+v, want net -15", b)
		}
	})

	t.Run("payments reduce remaining", func(t *testing.T) {
		payments := []models.PaymentEntry{
			{ID: "p1", SplitID: "s2", FromMemberID: "bob", ToMemberID: "alice", Amount: 10},
		}
		balances := CalculateBalances(members, expenses, splits, payments)

		if got := balanceFor(t, balances, "alice").Net; got != 5 {
			t.Errorf("alice net = %v, want 5", got)
		}
		if got := balanceFor(t, balances, "bob").Net; got != -5 {
			t.Errorf("bob net = %v, want -5", got)
		}
	})

	t.Run("fully paid split counts as settled", func(t *testing.T) {
		payments := []models.PaymentEntry{
			{ID: "p1", SplitID: "s2", FromMemberID: "bob", ToMemberID: "alice", Amount: 15},
		}
		balances := CalculateBalances(members, expenses, splits, payments)

		for _, b := range balances {
			if math.Abs(b.Net) > models.Epsilon {
				t.Errorf("member %s net = %v, want within %v of zero", b.MemberID, b.Net, models.Epsilon)
			}
		}
	})

	t.Run("settlement expenses are excluded", func(t *testing.T) {
		withSettlement := append([]models.Expense{}, expenses...)
		withSettlement = append(withSettlement, models.Expense{
			ID: "e2", PayerID: "bob", Kind: models.KindSettlement, Amount: 10,
		})
		balances := CalculateBalances(members, withSettlement, splits, nil)

		if got := balanceFor(t, balances, "alice").Net; got != 15 {
			t.Errorf("alice net = %v, want 15 (settlement expense must not contribute)", got)
		}
	})

	t.Run("member with no activity is settled", func(t *testing.T) {
		balances := CalculateBalances([]models.Member{alice, bob, carol}, expenses, splits, nil)

		c := balanceFor(t, balances, "carol")
		if c.Net != 0 || c.Owes != 0 || c.Owed != 0 {
			t.Errorf("carol balance = %+v, want all zero", c)
		}
	})

	t.Run("balances sum to zero", func(t *testing.T) {
		expenses := []models.Expense{
			{ID: "e1", PayerID: "alice", Kind: models.KindExpense, Amount: 60},
			{ID: "e2", PayerID: "bob", Kind: models.KindExpense, Amount: 21.5},
		}
		splits := []models.Split{
			{ID: "s1", ExpenseID: "e1", MemberID: "bob", Amount: 20},
			{ID: "s2", ExpenseID: "e1", MemberID: "carol", Amount: 20},
			{ID: "s3", ExpenseID: "e1", MemberID: "alice", Amount: 20},
			{ID: "s4", ExpenseID: "e2", MemberID: "alice", Amount: 10.75},
			{ID: "s5", ExpenseID: "e2", MemberID: "bob", Amount: 10.75},
		}
		payments := []models.PaymentEntry{
			{ID: "p1", SplitID: "s1", Amount: 7.25},
		}

		balances := CalculateBalances([]models.Member{alice, bob, carol}, expenses, splits, payments)
		var sum float64
		for _, b := range balances {
			sum += b.Net
		}
		if math.Abs(sum) > models.Epsilon {
			t.Errorf("net balances sum to %v, want 0", sum)
		}
	})

	t.Run("recomputation is idempotent", func(t *testing.T) {
		first := CalculateBalances(members, expenses, splits, nil)
		second := CalculateBalances(members, expenses, splits, nil)

		if len(first) != len(second) {
			t.Fatalf("result lengths differ: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("balance %d differs: %+v vs %+v", i, first[i], second[i])
			}
		}
	})
}

func TestCalculateBalancesExcludesPayerOwnSplit(t *testing.T) {
	expenses := []models.Expense{
		{ID: "e1", PayerID: "alice", Kind: models.KindExpense, Amount: 30},
	}
	splits := []models.Split{
		{ID: "s1", ExpenseID: "e1", MemberID: "alice", Amount: 30},
	}

	balances := CalculateBalances([]models.Member{alice, bob}, expenses, splits, nil)
	for _, b := range balances {
		if b.Net != 0 {
			t.Errorf("member %s net = %v, want 0 when payer owes only themselves", b.MemberID, b.Net)
		}
	}
}
