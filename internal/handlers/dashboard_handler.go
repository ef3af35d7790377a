package handlers

import (
	"net/http"

	"access-console/internal/dashboard"
	"access-console/pkg/utils"
)

type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Resolve handles GET /api/dashboard?view=
//
// Unknown and forbidden views resolve to the default view; the flags tell the
// client to rewrite its URL.
func (h *DashboardHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, dashboard.Resolve(r.URL.Query().Get("view"), sess.UserType))
}
