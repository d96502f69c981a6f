package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"logistics-backend/internal/cache"
	"logistics-backend/internal/models"
	"logistics-backend/internal/services"
	"logistics-backend/pkg/utils"
)

// AccountHandler serves accounts, their transactions and statements.
type AccountHandler struct {
	Accounts *services.AccountService
	Ledger   *services.LedgerService
	Reports  *services.ReportService
}

func NewAccountHandler(accounts *services.AccountService, ledger *services.LedgerService, reports *services.ReportService) *AccountHandler {
	return &AccountHandler{Accounts: accounts, Ledger: ledger, Reports: reports}
}

// ListAccounts serves from redis when warm. The body is cached, not the session check.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	if !listAccess(w, r, staffRoles...) {
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=10")

	if data, ok := cache.GetCachedAccounts(r.Context()); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	accounts, err := h.Accounts.List(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	data, err := json.Marshal(accounts)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.CacheAccounts(r.Context(), data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if !decode(w, r, &req) {
		return
	}
	account, err := h.Accounts.Create(r.Context(), session(r), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateAccounts(r.Context())
	utils.Success(w, http.StatusCreated, map[string]interface{}{"account": account})
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.Accounts.Get(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, account)
}

func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateAccountRequest
	if !decode(w, r, &req) {
		return
	}
	account, err := h.Accounts.Update(r.Context(), mux.Vars(r)["slug"], &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateAccounts(r.Context())
	utils.Success(w, http.StatusOK, map[string]interface{}{"account": account})
}

func (h *AccountHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	account, err := h.Accounts.ToggleActive(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateAccounts(r.Context())
	utils.Success(w, http.StatusOK, map[string]interface{}{"account": account})
}

// Recalculate rebuilds current_balance from the transaction history.
func (h *AccountHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	check, err := h.Accounts.Recalculate(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cache.InvalidateAccounts(r.Context())
	utils.Success(w, http.StatusOK, map[string]interface{}{"result": check})
}

func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	page, err := h.Ledger.TransactionsPage(r.Context(), mux.Vars(r)["slug"],
		queryInt(r, "page", 1), queryInt(r, "page_size", 50))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, page)
}

func statementFilter(r *http.Request) models.StatementFilter {
	q := r.URL.Query()
	return models.StatementFilter{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Search:    q.Get("search"),
	}
}

func (h *AccountHandler) Statement(w http.ResponseWriter, r *http.Request) {
	st, err := h.Ledger.Statement(r.Context(), mux.Vars(r)["slug"], statementFilter(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, st)
}

func (h *AccountHandler) StatementPDF(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	st, err := h.Ledger.Statement(r.Context(), slug, statementFilter(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	pdf, err := h.Reports.StatementPDF(st)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.File(w, contentTypePDF, fmt.Sprintf("statement-%s.pdf", slug), pdf)
}

func (h *AccountHandler) StatementXLSX(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	st, err := h.Ledger.Statement(r.Context(), slug, statementFilter(r))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	data, err := h.Reports.StatementXLSX(st)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.File(w, contentTypeXLSX, fmt.Sprintf("statement-%s.xlsx", slug), data)
}

// CreateTransaction records a credit, debit or transfer against an account.
func (h *AccountHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTransactionRequest
	if !decode(w, r, &req) {
		return
	}
	txn, err := h.Ledger.CreateTransaction(r.Context(), session(r), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, http.StatusCreated, map[string]interface{}{
		"message":     "transaction recorded",
		"transaction": txn,
	})
}
