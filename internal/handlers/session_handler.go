package handlers

import (
	"net/http"

	"access-console/internal/models"
	"access-console/internal/services"
	"access-console/pkg/utils"
)

// SessionHandler opens and closes console sessions.
type SessionHandler struct {
	service     *services.SessionService
	connections *services.ConnectionService
}

func NewSessionHandler(service *services.SessionService, connections *services.ConnectionService) *SessionHandler {
	return &SessionHandler{service: service, connections: connections}
}

// Create handles POST /api/session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

// Get handles GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	body := map[string]interface{}{"session": sess}
	if c, selected, err := h.connections.Selected(r.Context(), sess); err == nil && selected {
		body["selectedCompany"] = c
	}
	utils.JSON(w, http.StatusOK, body)
}

// Delete handles DELETE /api/session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), sess); err != nil {
		utils.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
