package handlers

import (
	"fmt"
	"net/http"

	"logistics-backend/internal/models"
	"logistics-backend/internal/services"
	"logistics-backend/pkg/utils"
)

// ExpenseHandler serves expenses under /api/{carriers|trucks|drivers}/{id}/expenses.
// Each method is bound to one owner kind when routes are registered.
type ExpenseHandler struct {
	Fleet   *services.FleetService
	Reports *services.ReportService
}

func NewExpenseHandler(fleet *services.FleetService, reports *services.ReportService) *ExpenseHandler {
	return &ExpenseHandler{Fleet: fleet, Reports: reports}
}

func owner(w http.ResponseWriter, r *http.Request, kind models.OwnerKind) (models.ExpenseOwner, bool) {
	id, ok := pathInt(w, r, "id")
	return models.ExpenseOwner{Kind: kind, ID: id}, ok
}

func (h *ExpenseHandler) List(kind models.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := owner(w, r, kind)
		if !ok {
			return
		}
		expenses, err := h.Fleet.ListExpenses(r.Context(), session(r), o)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		summary := services.SummarizeExpenses(expenses)
		utils.JSON(w, http.StatusOK, map[string]interface{}{
			"expenses": expenses,
			"summary":  summary,
		})
	}
}

func (h *ExpenseHandler) Create(kind models.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := owner(w, r, kind)
		if !ok {
			return
		}
		var req models.ExpenseRequest
		if !decode(w, r, &req) {
			return
		}
		expense, err := h.Fleet.CreateExpense(r.Context(), session(r), o, &req)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		utils.JSON(w, http.StatusCreated, expense)
	}
}

func (h *ExpenseHandler) Update(kind models.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := owner(w, r, kind)
		if !ok {
			return
		}
		expenseID, ok := pathInt64(w, r, "expenseId")
		if !ok {
			return
		}
		var req models.ExpenseRequest
		if !decode(w, r, &req) {
			return
		}
		expense, err := h.Fleet.UpdateExpense(r.Context(), session(r), o, expenseID, &req)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, expense)
	}
}

func (h *ExpenseHandler) Delete(kind models.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := owner(w, r, kind)
		if !ok {
			return
		}
		expenseID, ok := pathInt64(w, r, "expenseId")
		if !ok {
			return
		}
		if err := h.Fleet.DeleteExpense(r.Context(), session(r), o, expenseID); err != nil {
			utils.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Export writes the owner's expenses as XLSX.
func (h *ExpenseHandler) Export(kind models.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := owner(w, r, kind)
		if !ok {
			return
		}
		expenses, err := h.Fleet.ListExpenses(r.Context(), session(r), o)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		title := fmt.Sprintf("Expenses for %s %d", kind, o.ID)
		data, err := h.Reports.ExpensesXLSX(title, expenses)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		utils.File(w, contentTypeXLSX, fmt.Sprintf("%s-%d-expenses.xlsx", kind, o.ID), data)
	}
}

func (h *ExpenseHandler) Summary(kind models.OwnerKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, ok := owner(w, r, kind)
		if !ok {
			return
		}
		summary, err := h.Fleet.ExpenseSummary(r.Context(), session(r), o)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, summary)
	}
}
