package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/services"
	"github.com/username/ledgererp/backend/src/utils"
)

type PeriodCloseHandler struct {
	periodCloseService *services.PeriodCloseService
}

func NewPeriodCloseHandler(periodCloseService *services.PeriodCloseService) *PeriodCloseHandler {
	return &PeriodCloseHandler{periodCloseService: periodCloseService}
}

func (h *PeriodCloseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	closes, err := h.periodCloseService.List()
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, closes)
}

func (h *PeriodCloseHandler) HandleCloseMonth(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var cmd models.CloseMonthCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	record, err := h.periodCloseService.CloseMonth(cmd, actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, record)
}

func (h *PeriodCloseHandler) HandleReopen(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var cmd models.ReopenPeriodCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	record, err := h.periodCloseService.Reopen(r.PathValue("id"), cmd, actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, record)
}

// HandleMonthPnL previews a month's profit and loss before closing it.
func (h *PeriodCloseHandler) HandleMonthPnL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year := queryInt(q.Get("year"))
	month := queryInt(q.Get("month"))
	pnl, err := h.periodCloseService.GetMonthPnL(year, month)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, pnl)
}
