package handlers

import (
	"net/http"

	"github.com/username/ledgererp/backend/src/ledger"
	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/services"
	"github.com/username/ledgererp/backend/src/utils"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	if !actor.Can(models.ActionViewAuditLog) {
		utils.SendDomainError(w, &ledger.PermissionError{Action: string(models.ActionViewAuditLog)})
		return
	}
	logs, err := h.auditService.Recent(queryInt(r.URL.Query().Get("limit")))
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, logs)
}
