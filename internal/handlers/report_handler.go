package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"access-console/internal/services"
	"access-console/internal/timeutil"
	"access-console/pkg/utils"
)

// ReportHandler serves the access report downloads.
type ReportHandler struct {
	service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// AccessPDF handles GET /api/reports/access.pdf
func (h *ReportHandler) AccessPDF(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	pdf, err := h.service.PDF(r.Context(), sess)
	if err != nil {
		utils.Error(w, err)
		return
	}
	attachment(w, "application/pdf", services.ReportFileName(timeutil.Now(), "pdf"), pdf)
}

// AccessCSV handles GET /api/reports/access.csv
func (h *ReportHandler) AccessCSV(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	csv, err := h.service.CSV(r.Context(), sess)
	if err != nil {
		utils.Error(w, err)
		return
	}
	attachment(w, "text/csv", services.ReportFileName(timeutil.Now(), "csv"), csv)
}

// Export handles POST /api/reports/access/export
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	obj, err := h.service.Export(r.Context(), sess)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, obj)
}
