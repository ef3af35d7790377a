package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"access-console/internal/models"
	"access-console/internal/services"
	"access-console/pkg/utils"
)

// GroupHandler drives the group-assignment modal of an internal user.
type GroupHandler struct {
	service *services.GroupService
}

func NewGroupHandler(service *services.GroupService) *GroupHandler {
	return &GroupHandler{service: service}
}

func userID(r *http.Request) models.UserID {
	return models.UserID(mux.Vars(r)["id"])
}

// Open handles POST /api/internal-users/{id}/groups/open
func (h *GroupHandler) Open(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	key, err := decodeCompany(r)
	if err != nil {
		utils.Error(w, err)
		return
	}
	draft, err := h.service.Open(r.Context(), sess, userID(r), key)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, draft)
}

// Toggle handles POST /api/internal-users/{id}/groups/toggle
func (h *GroupHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Kind string          `json:"kind"`
		ID   models.MasterID `json:"id"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	kind, err := models.ParseGroupKind(req.Kind)
	if err != nil {
		utils.Error(w, err)
		return
	}
	draft, err := h.service.Toggle(r.Context(), sess, userID(r), kind, req.ID)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, draft)
}

// Filter handles GET /api/internal-users/{id}/groups/filter?kind=&q=
func (h *GroupHandler) Filter(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	kind, err := models.ParseGroupKind(r.URL.Query().Get("kind"))
	if err != nil {
		utils.Error(w, err)
		return
	}
	items, err := h.service.Filter(r.Context(), sess, userID(r), kind, r.URL.Query().Get("q"))
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, items)
}

// Save handles POST /api/internal-users/{id}/groups/save
func (h *GroupHandler) Save(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	if err := h.service.Save(r.Context(), sess, userID(r)); err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Groups saved"})
}
