package handlers

import (
	"net/http"

	"github.com/username/ledgererp/backend/src/logger"
	"github.com/username/ledgererp/backend/src/services"
	"github.com/username/ledgererp/backend/src/utils"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) HandleGeneralLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accountID := q.Get("accountId")
	if accountID == "" {
		utils.SendJSONError(w, "accountId query parameter is required", http.StatusBadRequest)
		return
	}
	report, err := h.reportService.GeneralLedger(accountID, q.Get("dateFrom"), q.Get("dateTo"))
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	h.sendWithETag(w, r, report)
}

func (h *ReportHandler) HandleTrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf := r.URL.Query().Get("asOf")
	if asOf == "" {
		asOf = utils.Today()
	}
	report, err := h.reportService.TrialBalance(asOf)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	h.sendWithETag(w, r, report)
}

func (h *ReportHandler) HandleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf := r.URL.Query().Get("asOf")
	if asOf == "" {
		asOf = utils.Today()
	}
	report, err := h.reportService.BalanceSheet(asOf)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	h.sendWithETag(w, r, report)
}

// sendWithETag lets clients revalidate cached reports cheaply: the ETag
// changes whenever the report content changes.
func (h *ReportHandler) sendWithETag(w http.ResponseWriter, r *http.Request, report any) {
	etag, err := utils.GenerateETag(report)
	if err != nil {
		logger.L.Warn("Failed to generate report ETag", "error", err)
		utils.SendJSON(w, http.StatusOK, report)
		return
	}
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	utils.SendJSON(w, http.StatusOK, report)
}
