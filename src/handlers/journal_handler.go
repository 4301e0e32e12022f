package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/services"
	"github.com/username/ledgererp/backend/src/utils"
)

type JournalHandler struct {
	journalService *services.JournalEntryService
}

func NewJournalHandler(journalService *services.JournalEntryService) *JournalHandler {
	return &JournalHandler{journalService: journalService}
}

func (h *JournalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := services.JournalEntryFilters{
		Status:   q.Get("status"),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
		Search:   q.Get("search"),
		Page:     queryInt(q.Get("page")),
		Limit:    queryInt(q.Get("limit")),
	}
	entries, total, err := h.journalService.GetAll(filters)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	page, limit := filters.Page, filters.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	utils.SendJSONWithMeta(w, http.StatusOK, entries, utils.ListMeta{Total: total, Page: page, Limit: limit})
}

func (h *JournalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journalService.GetByID(r.PathValue("id"))
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, entry)
}

func (h *JournalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var cmd models.CreateJournalEntryCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entry, err := h.journalService.Create(cmd, actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, entry)
}

func (h *JournalHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var cmd models.UpdateJournalEntryCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entry, err := h.journalService.Update(r.PathValue("id"), cmd, actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, entry)
}

func (h *JournalHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	entry, err := h.journalService.Post(r.PathValue("id"), actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, entry)
}

func (h *JournalHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	if err := h.journalService.Delete(r.PathValue("id"), actor); err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]string{"message": "journal entry deleted"})
}

// HandleValidate runs the pure balance check over a proposed line set so the
// client can validate while the user types, without creating anything.
func (h *JournalHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Lines []models.JournalLineInput `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	utils.SendJSON(w, http.StatusOK, h.journalService.ValidateLines(payload.Lines))
}
