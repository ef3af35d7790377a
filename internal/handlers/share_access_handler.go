package handlers

import (
	"net/http"

	"access-console/internal/models"
	"access-console/internal/services"
	"access-console/pkg/utils"
)

// ShareAccessHandler drives the share-access modal.
type ShareAccessHandler struct {
	service *services.ShareAccessService
}

func NewShareAccessHandler(service *services.ShareAccessService) *ShareAccessHandler {
	return &ShareAccessHandler{service: service}
}

// Open handles POST /api/share-access/open
func (h *ShareAccessHandler) Open(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	key, err := decodeCompany(r)
	if err != nil {
		utils.Error(w, err)
		return
	}
	draft, err := h.service.Open(r.Context(), sess, key)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, draft)
}

// Get handles GET /api/share-access
func (h *ShareAccessHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	draft, err := h.service.Draft(r.Context(), sess)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, draft)
}

// Toggle handles POST /api/share-access/toggle
func (h *ShareAccessHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	draft, err := h.service.Toggle(r.Context(), sess, req.Email)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, draft)
}

// SelectAll handles POST /api/share-access/select-all
func (h *ShareAccessHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	draft, err := h.service.SelectAll(r.Context(), sess)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, draft)
}

// Submit handles POST /api/share-access/submit
func (h *ShareAccessHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req struct {
		RoleID models.RoleID `json:"roleId"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	summary, draft, err := h.service.Submit(r.Context(), sess, req.RoleID)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": summary,
		"draft":   draft,
	})
}

// Close handles DELETE /api/share-access
func (h *ShareAccessHandler) Close(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	if err := h.service.Close(r.Context(), sess); err != nil {
		utils.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
