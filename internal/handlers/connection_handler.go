package handlers

import (
	"net/http"

	"access-console/internal/services"
	"access-console/pkg/utils"
)

// ConnectionHandler serves the company connections table.
type ConnectionHandler struct {
	service *services.ConnectionService
}

func NewConnectionHandler(service *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{service: service}
}

// List handles GET /api/connections
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	conns, err := h.service.List(r.Context(), sess)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, conns)
}

// Refresh handles POST /api/connections/refresh
func (h *ConnectionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	conns, err := h.service.Refresh(r.Context(), sess)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, conns)
}

// Search handles GET /api/connections/search?q=
func (h *ConnectionHandler) Search(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	conns, err := h.service.Search(r.Context(), sess, r.URL.Query().Get("q"))
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, conns)
}

// Select handles POST /api/connections/select
func (h *ConnectionHandler) Select(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	key, err := decodeCompany(r)
	if err != nil {
		utils.Error(w, err)
		return
	}
	c, err := h.service.Select(r.Context(), sess, key)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}
