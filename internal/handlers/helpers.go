package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/middleware"
	"logistics-backend/internal/models"
	"logistics-backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// decode reads a JSON body into v and writes a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		utils.WriteError(w, apperr.Validation("invalid %s", name))
		return 0, false
	}
	return id, true
}

func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, apperr.Validation("invalid %s", name))
		return 0, false
	}
	return id, true
}

func session(r *http.Request) *models.Session {
	return middleware.SessionFromContext(r.Context())
}

func queryInt(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return def
}

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// listAccess gates list reads that are mounted behind OptionalAuth. Without
// a session the response is an empty list; a session with the wrong role
// gets 403.
func listAccess(w http.ResponseWriter, r *http.Request, roles ...string) bool {
	s := session(r)
	if s == nil {
		utils.JSON(w, http.StatusOK, []struct{}{})
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if s.Role == role {
			return true
		}
	}
	utils.WriteError(w, apperr.Forbidden("insufficient permissions"))
	return false
}

var staffRoles = []string{models.RoleAdmin, models.RoleAccountant}
