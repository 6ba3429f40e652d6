package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tallyhq/tally/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestGroup(t *testing.T, store *SQLiteStore, names ...string) *models.Group {
	t.Helper()
	members := make([]models.Member, len(names))
	for i, n := range names {
		members[i] = models.Member{Name: n}
	}
	group := &models.Group{Name: "Trip", Currency: "USD", Members: members}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup generates ids", func(t *testing.T) {
		group := newTestGroup(t, store, "Alice", "Bob")
		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		for _, m := range group.Members {
			if m.ID == "" {
				t.Errorf("Expected member ID for %s to be generated", m.Name)
			}
		}
	})

	t.Run("GetGroup returns members", func(t *testing.T) {
		group := newTestGroup(t, store, "Alice", "Bob")
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.Members) != 2 {
			t.Errorf("Expected 2 members, got %d", len(got.Members))
		}
		if got.Currency != "USD" {
			t.Errorf("Currency = %s, want USD", got.Currency)
		}
	})

	t.Run("GetGroup unknown id", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent")
		var notFound *models.NotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})

	t.Run("AddMembers appends", func(t *testing.T) {
		group := newTestGroup(t, store, "Alice")
		if err := store.AddMembers(ctx, group.ID, []models.Member{{Name: "Carol"}}); err != nil {
			t.Fatalf("AddMembers failed: %v", err)
		}
		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.Members) != 2 {
			t.Errorf("Expected 2 members, got %d", len(got.Members))
		}
	})
}

func TestCreateExpense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := newTestGroup(t, store, "Alice", "Bob")
	aliceID := group.Members[0].ID
	bobID := group.Members[1].ID

	t.Run("creates expense with splits", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			Description: "Dinner",
			Amount:      30,
			PayerID:     aliceID,
			Date:        "2026-08-01",
			CreatedBy:   aliceID,
		}
		splits, err := store.CreateExpense(ctx, expense, []models.SplitShare{
			{MemberID: aliceID, Amount: 15},
			{MemberID: bobID, Amount: 15},
		})
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" || expense.CreatedAt == 0 {
			t.Error("Expected ID and CreatedAt to be generated")
		}
		if expense.Currency != "USD" {
			t.Errorf("Currency = %s, want group default USD", expense.Currency)
		}
		if len(splits) != 2 {
			t.Fatalf("Expected 2 splits, got %d", len(splits))
		}

		stored, err := store.ListSplits(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListSplits failed: %v", err)
		}
		if len(stored) != 2 {
			t.Errorf("Expected 2 stored splits, got %d", len(stored))
		}
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := store.CreateExpense(ctx, &models.Expense{GroupID: group.ID, Amount: 0, PayerID: aliceID}, nil)
		var validation *models.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("Expected ValidationError, got %v", err)
		}
	})

	t.Run("rejects payer outside group", func(t *testing.T) {
		_, err := store.CreateExpense(ctx, &models.Expense{GroupID: group.ID, Amount: 10, PayerID: "stranger"}, nil)
		var validation *models.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("Expected ValidationError, got %v", err)
		}
	})

	t.Run("rejects splits not summing to amount", func(t *testing.T) {
		before, _ := store.ListExpenses(ctx, group.ID)

		_, err := store.CreateExpense(ctx,
			&models.Expense{GroupID: group.ID, Amount: 30, PayerID: aliceID, Date: "2026-08-01"},
			[]models.SplitShare{{MemberID: bobID, Amount: 10}},
		)
		var validation *models.ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}

		after, _ := store.ListExpenses(ctx, group.ID)
		if len(after) != len(before) {
			t.Error("Rejected expense must not be persisted")
		}
	})

	t.Run("rejects split member outside group", func(t *testing.T) {
		_, err := store.CreateExpense(ctx,
			&models.Expense{GroupID: group.ID, Amount: 10, PayerID: aliceID, Date: "2026-08-01"},
			[]models.SplitShare{{MemberID: "stranger", Amount: 10}},
		)
		var validation *models.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("Expected ValidationError, got %v", err)
		}
	})
}

// addExpense creates a fully split expense and returns it with its splits.
func addExpense(t *testing.T, store *SQLiteStore, group *models.Group, payerID string, amount float64, shares []models.SplitShare) (*models.Expense, []models.Split) {
	t.Helper()
	expense := &models.Expense{
		GroupID:     group.ID,
		Description: "Shared",
		Amount:      amount,
		PayerID:     payerID,
		Date:        "2026-08-01",
		CreatedBy:   payerID,
	}
	splits, err := store.CreateExpense(context.Background(), expense, shares)
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return expense, splits
}

func TestRecordSettlement(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*SQLiteStore, *models.Group, string, string, models.Split) {
		store := newTestStore(t)
		group := newTestGroup(t, store, "Alice", "Bob")
		aliceID := group.Members[0].ID
		bobID := group.Members[1].ID
		_, splits := addExpense(t, store, group, aliceID, 30, []models.SplitShare{
			{MemberID: aliceID, Amount: 15},
			{MemberID: bobID, Amount: 15},
		})
		var bobSplit models.Split
		for _, s := range splits {
			if s.MemberID == bobID {
				bobSplit = s
			}
		}
		return store, group, aliceID, bobID, bobSplit
	}

	settlement := func(group *models.Group, from, to string, amount float64) *models.Expense {
		return &models.Expense{
			GroupID:      group.ID,
			Description:  "Settlement: Bob paid Alice",
			Amount:       amount,
			Currency:     "USD",
			PayerID:      from,
			Date:         "2026-08-02",
			Kind:         models.KindSettlement,
			FromMemberID: from,
			ToMemberID:   to,
			CreatedBy:    from,
		}
	}

	t.Run("writes expense and entries atomically", func(t *testing.T) {
		store, group, aliceID, bobID, bobSplit := setup(t)

		exp := settlement(group, bobID, aliceID, 10)
		entries := []models.PaymentEntry{
			{GroupID: group.ID, SplitID: bobSplit.ID, FromMemberID: bobID, ToMemberID: aliceID, Amount: 10},
		}
		if err := store.RecordSettlement(ctx, exp, entries); err != nil {
			t.Fatalf("RecordSettlement failed: %v", err)
		}

		payments, err := store.ListPayments(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListPayments failed: %v", err)
		}
		if len(payments) != 1 {
			t.Fatalf("Expected 1 payment entry, got %d", len(payments))
		}
		if payments[0].SettlementExpenseID != exp.ID {
			t.Errorf("Entry settlement id = %s, want %s", payments[0].SettlementExpenseID, exp.ID)
		}
	})

	t.Run("rejects overcommit and keeps nothing", func(t *testing.T) {
		store, group, aliceID, bobID, bobSplit := setup(t)

		first := settlement(group, bobID, aliceID, 10)
		err := store.RecordSettlement(ctx, first, []models.PaymentEntry{
			{GroupID: group.ID, SplitID: bobSplit.ID, FromMemberID: bobID, ToMemberID: aliceID, Amount: 10},
		})
		if err != nil {
			t.Fatalf("RecordSettlement failed: %v", err)
		}

		// Only 5 left on the split; 10 more must conflict.
		second := settlement(group, bobID, aliceID, 10)
		err = store.RecordSettlement(ctx, second, []models.PaymentEntry{
			{GroupID: group.ID, SplitID: bobSplit.ID, FromMemberID: bobID, ToMemberID: aliceID, Amount: 10},
		})
		var conflict *models.ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("Expected ConflictError, got %v", err)
		}

		payments, _ := store.ListPayments(ctx, group.ID)
		if len(payments) != 1 {
			t.Errorf("Expected 1 payment entry after conflict, got %d", len(payments))
		}
		expenses, _ := store.ListExpenses(ctx, group.ID)
		for _, e := range expenses {
			if e.ID == second.ID {
				t.Error("Conflicted settlement expense must not be persisted")
			}
		}
	})

	t.Run("rejects non-positive entry amount", func(t *testing.T) {
		store, group, aliceID, bobID, bobSplit := setup(t)

		exp := settlement(group, bobID, aliceID, 10)
		err := store.RecordSettlement(ctx, exp, []models.PaymentEntry{
			{GroupID: group.ID, SplitID: bobSplit.ID, FromMemberID: bobID, ToMemberID: aliceID, Amount: -1},
		})
		var validation *models.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("Expected ValidationError, got %v", err)
		}
	})
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	group := newTestGroup(t, store, "Alice", "Bob")
	aliceID := group.Members[0].ID
	bobID := group.Members[1].ID

	t.Run("cascades to splits", func(t *testing.T) {
		expense, _ := addExpense(t, store, group, aliceID, 30, []models.SplitShare{
			{MemberID: aliceID, Amount: 15},
			{MemberID: bobID, Amount: 15},
		})

		if err := store.DeleteExpense(ctx, expense.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		splits, _ := store.ListSplits(ctx, group.ID)
		for _, s := range splits {
			if s.ExpenseID == expense.ID {
				t.Error("Splits must be deleted with their expense")
			}
		}
	})

	t.Run("settlement delete cascades to payment entries", func(t *testing.T) {
		_, splits := addExpense(t, store, group, aliceID, 20, []models.SplitShare{
			{MemberID: bobID, Amount: 20},
		})
		exp := &models.Expense{
			GroupID: group.ID, Description: "Settlement: Bob paid Alice",
			Amount: 20, Currency: "USD", PayerID: bobID, Date: "2026-08-02",
			Kind: models.KindSettlement, FromMemberID: bobID, ToMemberID: aliceID, CreatedBy: bobID,
		}
		err := store.RecordSettlement(ctx, exp, []models.PaymentEntry{
			{GroupID: group.ID, SplitID: splits[0].ID, FromMemberID: bobID, ToMemberID: aliceID, Amount: 20},
		})
		if err != nil {
			t.Fatalf("RecordSettlement failed: %v", err)
		}

		if err := store.DeleteExpense(ctx, exp.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		payments, _ := store.ListPayments(ctx, group.ID)
		for _, p := range payments {
			if p.SettlementExpenseID == exp.ID {
				t.Error("Payment entries must be deleted with their settlement")
			}
		}
	})

	t.Run("cascade runs on every pooled connection", func(t *testing.T) {
		_, splits := addExpense(t, store, group, aliceID, 25, []models.SplitShare{
			{MemberID: bobID, Amount: 25},
		})
		exp := &models.Expense{
			GroupID: group.ID, Description: "Settlement: Bob paid Alice",
			Amount: 25, Currency: "USD", PayerID: bobID, Date: "2026-08-02",
			Kind: models.KindSettlement, FromMemberID: bobID, ToMemberID: aliceID, CreatedBy: bobID,
		}
		err := store.RecordSettlement(ctx, exp, []models.PaymentEntry{
			{GroupID: group.ID, SplitID: splits[0].ID, FromMemberID: bobID, ToMemberID: aliceID, Amount: 25},
		})
		if err != nil {
			t.Fatalf("RecordSettlement failed: %v", err)
		}

		// Pin one connection in an open transaction so the delete below
		// has to run on a different pooled connection.
		tx, err := store.db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx failed: %v", err)
		}
		defer tx.Rollback()

		if err := store.DeleteExpense(ctx, exp.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		payments, _ := store.ListPayments(ctx, group.ID)
		for _, p := range payments {
			if p.SettlementExpenseID == exp.ID {
				t.Error("Payment entries must cascade regardless of which connection runs the delete")
			}
		}
	})

	t.Run("unknown expense reports NotFound", func(t *testing.T) {
		err := store.DeleteExpense(ctx, "nonexistent")
		var notFound *models.NotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	group := newTestGroup(t, store, "Alice", "Bob")
	aliceID := group.Members[0].ID
	bobID := group.Members[1].ID

	addExpense(t, store, group, aliceID, 30, []models.SplitShare{
		{MemberID: aliceID, Amount: 15},
		{MemberID: bobID, Amount: 15},
	})

	expenses, splits, payments, err := store.Snapshot(ctx, group.ID)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(expenses) != 1 || len(splits) != 2 || len(payments) != 0 {
		t.Errorf("Snapshot = %d expenses, %d splits, %d payments; want 1, 2, 0",
			len(expenses), len(splits), len(payments))
	}
}
