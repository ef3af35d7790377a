package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"access-console/internal/models"
	"access-console/internal/services"
	"access-console/pkg/utils"
)

// AccessHandler serves the create-access table and the edit-access modal.
type AccessHandler struct {
	service *services.AccessService
}

func NewAccessHandler(service *services.AccessService) *AccessHandler {
	return &AccessHandler{service: service}
}

// List handles GET /api/internal-users
func (h *AccessHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	rows, err := h.service.List(r.Context(), sess)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, rows)
}

// Create handles POST /api/internal-users
func (h *AccessHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req models.CreateAccessRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	if err := h.service.Create(r.Context(), sess, req); err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]interface{}{"success": true, "message": "User created"})
}

// Remove handles DELETE /api/internal-users/{email}
func (h *AccessHandler) Remove(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), sess, mux.Vars(r)["email"]); err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Access removed"})
}

// OpenEdit handles POST /api/internal-users/{email}/edit
func (h *AccessHandler) OpenEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	draft, err := h.service.OpenEdit(r.Context(), sess, mux.Vars(r)["email"])
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, editView(draft))
}

// GetEdit handles GET /api/internal-users/{email}/edit
func (h *AccessHandler) GetEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	draft, err := h.service.Draft(r.Context(), sess, mux.Vars(r)["email"])
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, editView(draft))
}

// ToggleCompany handles POST /api/internal-users/{email}/edit/toggle
func (h *AccessHandler) ToggleCompany(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	draft, err := h.service.ToggleCompany(r.Context(), sess, mux.Vars(r)["email"], req.Key)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, editView(draft))
}

// SelectAll handles POST /api/internal-users/{email}/edit/select-all
func (h *AccessHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	draft, err := h.service.SelectAll(r.Context(), sess, mux.Vars(r)["email"])
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, editView(draft))
}

// SetFilter handles POST /api/internal-users/{email}/edit/filter
func (h *AccessHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Filter string `json:"filter"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	draft, err := h.service.SetFilter(r.Context(), sess, mux.Vars(r)["email"], req.Filter)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, editView(draft))
}

// SetSettings handles POST /api/internal-users/{email}/edit/settings
func (h *AccessHandler) SetSettings(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req struct {
		Key string `json:"key"`
		models.CompanySettings
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, err)
		return
	}
	draft, err := h.service.SetSettings(r.Context(), sess, mux.Vars(r)["email"], req.Key, req.CompanySettings)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, editView(draft))
}

// SaveEdit handles POST /api/internal-users/{email}/edit/save
func (h *AccessHandler) SaveEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	if err := h.service.SaveEdit(r.Context(), sess, mux.Vars(r)["email"]); err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Access updated"})
}

// accessEditView is the modal as the client renders it.
type accessEditView struct {
	*models.AccessDraft
	Visible  []models.CompanyOption `json:"visible"`
	Selected []string               `json:"selected"`
}

func editView(d *models.AccessDraft) accessEditView {
	v := accessEditView{AccessDraft: d, Visible: d.Visible(), Selected: d.Selected()}
	if v.Visible == nil {
		v.Visible = []models.CompanyOption{}
	}
	if v.Selected == nil {
		v.Selected = []string{}
	}
	return v
}
