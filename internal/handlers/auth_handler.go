package handlers

import (
	"net/http"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
	"logistics-backend/internal/services"
	"logistics-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.UserService
}

func NewAuthHandler(s *services.UserService) *AuthHandler {
	return &AuthHandler{Service: s}
}

// Login returns a session token, or a temp token when 2FA is enabled.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	resp, step1, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	if step1 != nil {
		utils.JSON(w, http.StatusOK, step1)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req models.TOTPVerifyRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.Service.VerifyTwoFactor(r.Context(), &req)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// Session echoes the server-side view of the caller.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	s := session(r)
	if s == nil {
		utils.WriteError(w, apperr.Unauthorized("login required"))
		return
	}
	utils.JSON(w, http.StatusOK, s)
}
