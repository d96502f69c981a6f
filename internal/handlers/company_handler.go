package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"logistics-backend/internal/models"
	"logistics-backend/internal/services"
	"logistics-backend/pkg/utils"
)

type CompanyHandler struct {
	Service *services.CompanyService
}

func NewCompanyHandler(s *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{Service: s}
}

func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	if !listAccess(w, r, staffRoles...) {
		return
	}
	companies, err := h.Service.List(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, companies)
}

func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CompanyRequest
	if !decode(w, r, &req) {
		return
	}
	company, err := h.Service.Create(r.Context(), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, company)
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	company, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req models.CompanyRequest
	if !decode(w, r, &req) {
		return
	}
	company, err := h.Service.Update(r.Context(), id, &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CompanyHandler) ListBalances(w http.ResponseWriter, r *http.Request) {
	if !listAccess(w, r, staffRoles...) {
		return
	}
	balances, err := h.Service.ListBalances(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, balances)
}

func (h *CompanyHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.Service.GetBalance(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, balance)
}

// SetBalance overwrites a company's credit balance (admin correction).
func (h *CompanyHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	var req models.SetCompanyBalanceRequest
	if !decode(w, r, &req) {
		return
	}
	balance, err := h.Service.SetBalance(r.Context(), session(r), mux.Vars(r)["name"], req.CreditBalance)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, http.StatusOK, map[string]interface{}{"balance": balance})
}
