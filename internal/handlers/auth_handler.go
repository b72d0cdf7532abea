package handlers

import (
	"net/http"

	"treasury-backend/internal/models"
	"treasury-backend/internal/services"
	"treasury-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.AuthService
}

func NewAuthHandler(s *services.AuthService) *AuthHandler {
	return &AuthHandler{Service: s}
}

// Login handles treasurer authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	authResp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, authResp)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	tid, ok := treasurerID(w, r)
	if !ok {
		return
	}
	t, err := h.Service.Profile(r.Context(), tid)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, t)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	tid, ok := treasurerID(w, r)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	t, err := h.Service.UpdateProfile(r.Context(), tid, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, t)
}
