// Package api exposes the ledger engine over JSON HTTP. It is a thin
// presentation boundary: handlers decode requests, call the services,
// and map the engine's error taxonomy to status codes.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/service"
)

// Handler bundles the engine's services behind an http.Handler.
type Handler struct {
	groups      *service.GroupService
	ledger      *service.LedgerService
	settlements *service.SettlementService
}

// NewHandler creates the API handler.
func NewHandler(groups *service.GroupService, ledger *service.LedgerService, settlements *service.SettlementService) *Handler {
	return &Handler{groups: groups, ledger: ledger, settlements: settlements}
}

// Routes registers the API endpoints on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/groups", h.createGroup)
	mux.HandleFunc("GET /api/groups", h.listGroups)
	mux.HandleFunc("GET /api/groups/{groupID}", h.getGroup)
	mux.HandleFunc("POST /api/groups/{groupID}/members", h.addMembers)
	mux.HandleFunc("POST /api/groups/{groupID}/expenses", h.addExpense)
	mux.HandleFunc("GET /api/groups/{groupID}/expenses", h.listExpenses)
	mux.HandleFunc("DELETE /api/groups/{groupID}/expenses/{expenseID}", h.deleteExpense)
	mux.HandleFunc("GET /api/groups/{groupID}/balances", h.balances)
	mux.HandleFunc("GET /api/groups/{groupID}/debts", h.suggestedDebts)
	mux.HandleFunc("POST /api/groups/{groupID}/settlements", h.settle)
	mux.HandleFunc("GET /api/groups/{groupID}/settlements", h.settlementHistory)
	return mux
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string   `json:"name"`
		Currency string   `json:"currency"`
		Members  []string `json:"members"`
	}
	if !decode(w, r, &req) {
		return
	}
	group, err := h.groups.CreateGroup(r.Context(), req.Name, req.Currency, req.Members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetGroup(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *Handler) addMembers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Members []string `json:"members"`
	}
	if !decode(w, r, &req) {
		return
	}
	members, err := h.groups.AddMembers(r.Context(), r.PathValue("groupID"), req.Members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (h *Handler) addExpense(w http.ResponseWriter, r *http.Request) {
	var req service.ExpenseInput
	if !decode(w, r, &req) {
		return
	}
	actorID := middleware.GetMemberID(r.Context())
	expense, splits, err := h.ledger.AddExpense(r.Context(), actorID, r.PathValue("groupID"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"expense": expense, "splits": splits})
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.ledger.ListExpenses(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	err := h.ledger.DeleteExpense(r.Context(), r.PathValue("groupID"), r.PathValue("expenseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.ledger.Balances(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balances": balances})
}

func (h *Handler) suggestedDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.ledger.SuggestedDebts(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"debts": debts})
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromMemberID string   `json:"from_member_id"`
		ToMemberID   string   `json:"to_member_id"`
		Amount       *float64 `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	actorID := middleware.GetMemberID(r.Context())
	result, err := h.settlements.Settle(r.Context(), actorID, r.PathValue("groupID"), req.FromMemberID, req.ToMemberID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) settlementHistory(w http.ResponseWriter, r *http.Request) {
	settlements, err := h.ledger.SettlementHistory(r.Context(), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": settlements})
}

// TokenHandler issues bearer tokens identifying a member. Who may
// obtain a token for which member is the deployment's concern; the
// expected setup fronts this endpoint with its own login flow.
func TokenHandler(manager *auth.JWTManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MemberID string `json:"member_id"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.MemberID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member_id required"})
			return
		}
		token, err := manager.Generate(req.MemberID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the engine's error taxonomy to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation  *models.ValidationError
		notFound    *models.NotFoundError
		noDebt      *models.NoDebtError
		overpayment *models.OverpaymentError
		invalid     *models.InvalidAmountError
		conflict    *models.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      err.Error(),
			"total_owed": invalid.TotalOwed,
		})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &noDebt):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      err.Error(),
			"total_owed": noDebt.TotalOwed,
		})
	case errors.As(err, &overpayment):
		// Settlement precondition errors carry the ceiling so the UI
		// can show it.
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      err.Error(),
			"total_owed": overpayment.TotalOwed,
		})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("Internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
