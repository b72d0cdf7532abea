package handlers

import (
	"net/http"

	"treasury-backend/internal/services"
	"treasury-backend/pkg/utils"
)

type LedgerHandler struct {
	Service *services.LedgerService
}

func NewLedgerHandler(s *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{Service: s}
}

func (h *LedgerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, d)
}

// CashOnHand breaks down funds collected but not yet remitted.
func (h *LedgerHandler) CashOnHand(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.FundsOnHand(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, b)
}

func (h *LedgerHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	b, err := h.Service.Outstanding(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, b)
}

func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.History(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, events)
}
