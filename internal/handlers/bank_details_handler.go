package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"access-console/internal/models"
	"access-console/internal/services"
	"access-console/pkg/utils"
)

// BankDetailsHandler handles the admin bank-details screen.
type BankDetailsHandler struct {
	service *services.BankDetailsService
}

func NewBankDetailsHandler(service *services.BankDetailsService) *BankDetailsHandler {
	return &BankDetailsHandler{service: service}
}

// List handles GET /api/bank-details
func (h *BankDetailsHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	details, err := h.service.List(r.Context(), sess)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, details)
}

// Create handles POST /api/bank-details
func (h *BankDetailsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var b models.BankDetails
	if err := utils.DecodeJSON(r, &b); err != nil {
		utils.Error(w, err)
		return
	}
	if err := h.service.Create(r.Context(), sess, b); err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]interface{}{"success": true, "message": "Bank details saved"})
}

// Update handles PUT /api/bank-details/{id}
func (h *BankDetailsHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var b models.BankDetails
	if err := utils.DecodeJSON(r, &b); err != nil {
		utils.Error(w, err)
		return
	}
	if err := h.service.Update(r.Context(), sess, mux.Vars(r)["id"], b); err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Bank details updated"})
}
