package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zanon-app/zanon/internal/db"
)

type expenseRequest struct {
	EventID  *uuid.UUID `json:"event_id"`
	Amount   int        `json:"amount"`
	Category string     `json:"category"`
	Memo     string     `json:"memo"`
	Date     string     `json:"date"` // YYYY-MM-DD
}

func (req *expenseRequest) parse() (time.Time, string) {
	if req.Amount <= 0 {
		return time.Time{}, "amount must be positive"
	}
	switch req.Category {
	case "ticket", "transport", "goods", "food", "accommodation", "other":
	default:
		return time.Time{}, "invalid category"
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return time.Time{}, "date must be YYYY-MM-DD"
	}
	return date, ""
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.db.Expenses().List(r.Context(), currentUser(r))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, msg := req.parse()
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	userID := currentUser(r)
	if req.EventID != nil {
		// The linked event must belong to the same user.
		if _, err := s.db.Live().GetEvent(r.Context(), userID, *req.EventID); err != nil {
			s.respondStoreError(w, r, err)
			return
		}
	}

	expense := &db.Expense{
		ID:       uuid.New(),
		UserID:   userID,
		EventID:  req.EventID,
		Amount:   req.Amount,
		Category: req.Category,
		Memo:     req.Memo,
		Date:     date,
	}
	if err := s.db.Expenses().Create(r.Context(), expense); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, expense)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, ok := pathUUID(w, r, "expenseID")
	if !ok {
		return
	}
	expense, err := s.db.Expenses().Get(r.Context(), currentUser(r), expenseID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, ok := pathUUID(w, r, "expenseID")
	if !ok {
		return
	}
	if err := s.db.Expenses().Delete(r.Context(), currentUser(r), expenseID); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type expenseSummaryResponse struct {
	MonthlyTotals  []db.NameCount `json:"monthly_totals"`
	CategoryTotals []db.NameCount `json:"category_totals"`
}

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	monthly, err := s.db.Expenses().MonthlyTotals(r.Context(), userID, 12)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	categories, err := s.db.Expenses().CategoryTotals(r.Context(), userID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, expenseSummaryResponse{
		MonthlyTotals:  monthly,
		CategoryTotals: categories,
	})
}
