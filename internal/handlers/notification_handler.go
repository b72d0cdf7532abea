package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"treasury-backend/internal/models"
	"treasury-backend/internal/services"
	"treasury-backend/pkg/utils"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(s *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: s}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.MarkRead(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.MarkAllRead(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.Service.Preferences(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, prefs)
}

func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var prefs models.NotificationSettings
	if err := decode(r, &prefs); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Service.UpdatePreferences(r.Context(), prefs); err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, prefs)
}
