package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Rhymond/go-money"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/metrics"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/notify"
	"github.com/tallyhq/tally/internal/storage"
)

// SettlementResult reports a recorded settlement.
type SettlementResult struct {
	Expense   models.Expense        `json:"expense"`
	Payments  []models.PaymentEntry `json:"payments"`
	TotalOwed float64               `json:"total_owed"`
}

// SettlementService records settlements: it allocates a payment across
// the payer's outstanding splits owed to the payee and appends the
// resulting ledger rows, never touching the original splits.
type SettlementService struct {
	store    storage.Store
	notifier notify.Notifier
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, notifier notify.Notifier) *SettlementService {
	return &SettlementService{store: store, notifier: notifier}
}

// Settle records a payment from one member to another. A nil
// requestedAmount settles everything outstanding between the pair.
//
// The outstanding state is computed from a ledger snapshot; oldest
// obligations are paid off first (ordered by parent expense creation).
// The settlement expense and its payment entries are written as one
// atomic unit, with each split's remaining balance re-verified at write
// time. A conflicting concurrent settlement surfaces as a
// ConflictError and writes nothing; the caller recomputes and
// resubmits.
func (s *SettlementService) Settle(ctx context.Context, actorID, groupID, fromMemberID, toMemberID string, requestedAmount *float64) (*SettlementResult, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if fromMemberID == toMemberID {
		return nil, models.Validationf("cannot settle with yourself")
	}
	if !group.HasMember(fromMemberID) {
		return nil, models.Validationf("member %s is not in group %s", fromMemberID, groupID)
	}
	if !group.HasMember(toMemberID) {
		return nil, models.Validationf("member %s is not in group %s", toMemberID, groupID)
	}

	expenses, splits, payments, err := s.store.Snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}

	eligible, totalOwed := outstandingSplits(expenses, splits, payments, fromMemberID, toMemberID)
	if totalOwed <= models.Epsilon {
		return nil, &models.NoDebtError{
			FromMemberID: fromMemberID,
			ToMemberID:   toMemberID,
			TotalOwed:    calculator.Round2(totalOwed),
		}
	}

	amount := totalOwed
	if requestedAmount != nil {
		amount = *requestedAmount
	}
	if amount > totalOwed+models.Epsilon {
		return nil, &models.OverpaymentError{Requested: amount, TotalOwed: calculator.Round2(totalOwed)}
	}
	if amount <= 0 {
		return nil, &models.InvalidAmountError{Amount: amount, TotalOwed: calculator.Round2(totalOwed)}
	}
	amount = calculator.Round2(amount)

	fromName := group.MemberName(fromMemberID)
	toName := group.MemberName(toMemberID)
	expense := &models.Expense{
		GroupID:      groupID,
		Description:  fmt.Sprintf("Settlement: %s paid %s", fromName, toName),
		Amount:       amount,
		Currency:     group.Currency,
		PayerID:      fromMemberID,
		Date:         time.Now().Format("2006-01-02"),
		Kind:         models.KindSettlement,
		FromMemberID: fromMemberID,
		ToMemberID:   toMemberID,
		CreatedBy:    actorID,
	}

	var entries []models.PaymentEntry
	remainingToAllocate := amount
	for _, split := range eligible {
		if remainingToAllocate <= models.Epsilon {
			break
		}
		pay := remainingToAllocate
		if split.remaining < pay {
			pay = split.remaining
		}
		entries = append(entries, models.PaymentEntry{
			GroupID:      groupID,
			SplitID:      split.id,
			FromMemberID: fromMemberID,
			ToMemberID:   toMemberID,
			Amount:       calculator.Round2(pay),
		})
		remainingToAllocate -= pay
	}

	if err := s.store.RecordSettlement(ctx, expense, entries); err != nil {
		var conflict *models.ConflictError
		if errors.As(err, &conflict) {
			metrics.SettlementConflicts.Inc()
			slog.Warn("Settlement aborted on conflict",
				"group_id", groupID,
				"from_member_id", fromMemberID,
				"to_member_id", toMemberID,
				"split_id", conflict.SplitID,
			)
		} else {
			slog.Error("Settle failed", "group_id", groupID, "error", err)
		}
		return nil, err
	}

	metrics.ExpensesCreated.WithLabelValues(models.KindSettlement).Inc()
	slog.Info("Settlement recorded",
		"group_id", groupID,
		"settlement_expense_id", expense.ID,
		"from_member_id", fromMemberID,
		"to_member_id", toMemberID,
		"amount", amount,
		"entries_count", len(entries),
	)

	// Fire-and-forget: a failed notification never rolls back the
	// committed settlement.
	event := notify.Event{
		Event:               notify.EventSettlementCompleted,
		GroupID:             groupID,
		GroupName:           group.Name,
		FromMemberID:        fromMemberID,
		ToMemberID:          toMemberID,
		Amount:              amount,
		SettlementExpenseID: expense.ID,
		Message: fmt.Sprintf("%s paid you %s in %q",
			fromName, money.NewFromFloat(amount, group.Currency).Display(), group.Name),
	}
	if err := s.notifier.SettlementCompleted(ctx, event); err != nil {
		metrics.NotificationFailures.Inc()
		slog.Warn("Settlement notification failed",
			"settlement_expense_id", expense.ID,
			"to_member_id", toMemberID,
			"error", err,
		)
	}

	return &SettlementResult{
		Expense:   *expense,
		Payments:  entries,
		TotalOwed: calculator.Round2(totalOwed),
	}, nil
}

// outstandingSplit is an eligible split with its unpaid balance.
type outstandingSplit struct {
	id        string
	remaining float64
}

// outstandingSplits finds the splits where fromMember still owes
// toMember, oldest parent expense first, plus the outstanding total.
// Only real obligations qualify: splits of settlement expenses are
// never settled against.
func outstandingSplits(expenses []models.Expense, splits []models.Split, payments []models.PaymentEntry, fromMemberID, toMemberID string) ([]outstandingSplit, float64) {
	type parent struct {
		createdAt int64
		id        string
	}
	parents := make(map[string]parent, len(expenses))
	for _, e := range expenses {
		if e.Kind == models.KindSettlement || e.PayerID != toMemberID {
			continue
		}
		parents[e.ID] = parent{createdAt: e.CreatedAt, id: e.ID}
	}

	paid := calculator.PaidBySplit(payments)

	type candidate struct {
		outstandingSplit
		parent parent
	}
	var candidates []candidate
	var total float64
	for _, split := range splits {
		p, ok := parents[split.ExpenseID]
		if !ok || split.MemberID != fromMemberID {
			continue
		}
		remaining := calculator.Remaining(split, paid)
		if remaining <= models.Epsilon {
			continue
		}
		candidates = append(candidates, candidate{
			outstandingSplit: outstandingSplit{id: split.ID, remaining: remaining},
			parent:           p,
		})
		total += remaining
	}

	// Oldest-obligation-first payoff; the deterministic order keeps
	// allocation reproducible.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].parent.createdAt != candidates[j].parent.createdAt {
			return candidates[i].parent.createdAt < candidates[j].parent.createdAt
		}
		return candidates[i].parent.id < candidates[j].parent.id
	})

	eligible := make([]outstandingSplit, len(candidates))
	for i, c := range candidates {
		eligible[i] = c.outstandingSplit
	}
	return eligible, total
}
