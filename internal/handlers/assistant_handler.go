package handlers

import (
	"net/http"

	"treasury-backend/internal/models"
	"treasury-backend/internal/services"
	"treasury-backend/pkg/utils"
)

type AssistantHandler struct {
	Service *services.AssistantService
}

func NewAssistantHandler(s *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{Service: s}
}

// Ask answers one question; the client sends the conversation so far.
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AssistantRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	reply, err := h.Service.Ask(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, reply)
}
