package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"treasury-backend/internal/models"
	"treasury-backend/internal/services"
	"treasury-backend/pkg/utils"
)

type MemberHandler struct {
	Service *services.MemberService
}

func NewMemberHandler(s *services.MemberService) *MemberHandler {
	return &MemberHandler{Service: s}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMemberRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := h.Service.Add(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, m)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ledger returns the member's balances across all collections.
func (h *MemberHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.Ledger(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, st)
}
