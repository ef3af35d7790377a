package handlers

import (
	"net/http"
	"strconv"

	"github.com/juju/errors"

	"access-console/internal/repositories"
	"access-console/internal/services"
	"access-console/pkg/utils"
)

// AuditLogHandler lists the console's administrative actions.
type AuditLogHandler struct {
	service *services.AuditService
}

func NewAuditLogHandler(service *services.AuditService) *AuditLogHandler {
	return &AuditLogHandler{service: service}
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.NewNotValid(nil, "Invalid "+name)
	}
	return n, nil
}

// List handles GET /api/audit-logs?actor=&action=&company=&limit=&offset=
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repositories.AuditFilter{
		ActorEmail:  q.Get("actor"),
		ActionType:  q.Get("action"),
		CompanyGUID: q.Get("company"),
	}
	var err error
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		utils.Error(w, err)
		return
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		utils.Error(w, err)
		return
	}

	logs, err := h.service.List(r.Context(), f)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, logs)
}
