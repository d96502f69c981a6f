package handlers

import (
	"net/http"

	"logistics-backend/internal/models"
	"logistics-backend/internal/services"
	"logistics-backend/pkg/utils"
)

type TOTPHandler struct {
	Service *services.TOTPService
}

func NewTOTPHandler(s *services.TOTPService) *TOTPHandler {
	return &TOTPHandler{Service: s}
}

func (h *TOTPHandler) Setup(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.GenerateSetup(r.Context(), session(r).UserID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *TOTPHandler) Enable(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Service.Enable(r.Context(), session(r).UserID, req.Code); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, http.StatusOK, map[string]interface{}{"message": "2FA enabled"})
}

func (h *TOTPHandler) Disable(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPDisableRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Service.Disable(r.Context(), session(r).UserID, &req); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.Success(w, http.StatusOK, map[string]interface{}{"message": "2FA disabled"})
}
