// Package notify delivers settlement-completed events to the payee.
//
// Delivery is a collaborator concern, decoupled from the ledger: a
// failed notification is logged and counted but never rolls back the
// committed settlement.
package notify

import (
	"context"
	"fmt"
	"log/slog"
)

// Event is the settlement-completed payload.
type Event struct {
	Event               string  `json:"event"`
	GroupID             string  `json:"group_id"`
	GroupName           string  `json:"group_name"`
	FromMemberID        string  `json:"from_member_id"`
	ToMemberID          string  `json:"to_member_id"`
	Amount              float64 `json:"amount"`
	SettlementExpenseID string  `json:"settlement_expense_id"`

	// Message is a ready-to-display summary, e.g.
	// `Alice paid you $10.00 in "Road Trip"`.
	Message string `json:"message"`
}

// EventSettlementCompleted is the only event type the ledger emits.
const EventSettlementCompleted = "settlement_completed"

// Notifier receives settlement-completed events. Implementations own
// delivery (push, email, in-app); the ledger neither waits for nor
// depends on delivery success.
type Notifier interface {
	SettlementCompleted(ctx context.Context, event Event) error
}

// DeliveryError wraps a delivery failure so callers can log it as a
// soft warning distinct from engine errors.
type DeliveryError struct {
	Target string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notification delivery to %s failed: %v", e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// LogNotifier writes events to the log. It is the default when no
// webhook is configured and the stand-in for tests.
type LogNotifier struct{}

// SettlementCompleted logs the event.
func (LogNotifier) SettlementCompleted(_ context.Context, event Event) error {
	slog.Info("settlement completed",
		"group_id", event.GroupID,
		"from_member_id", event.FromMemberID,
		"to_member_id", event.ToMemberID,
		"amount", event.Amount,
		"settlement_expense_id", event.SettlementExpenseID,
	)
	return nil
}
