package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/ledgererp/backend/src/config"
	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/services"
	"github.com/username/ledgererp/backend/src/utils"
)

type ReconciliationHandler struct {
	reconciliationService *services.ReconciliationService
}

func NewReconciliationHandler(reconciliationService *services.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

func (h *ReconciliationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := services.ReconciliationFilters{
		Status:        q.Get("status"),
		BankAccountID: q.Get("bankAccountId"),
		Page:          queryInt(q.Get("page")),
		Limit:         queryInt(q.Get("limit")),
	}
	sessions, total, err := h.reconciliationService.GetAll(filters)
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
	utils.SendJSONWithMeta(w, http.StatusOK, sessions, utils.ListMeta{Total: total, Page: page, Limit: limit})
}

func (h *ReconciliationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.reconciliationService.GetByID(r.PathValue("id"))
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"summary": h.reconciliationService.Summarize(session),
	})
}

func (h *ReconciliationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var cmd models.CreateReconciliationCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	session, err := h.reconciliationService.Create(cmd, actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, session)
}

func (h *ReconciliationHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var cmd models.AddStatementItemCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	item, err := h.reconciliationService.AddItem(r.PathValue("id"), cmd, actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, item)
}

// HandleImportStatement accepts a multipart upload of a bank statement and
// adds each transaction as an unmatched item.
func (h *ReconciliationHandler) HandleImportStatement(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		utils.SendJSONError(w, "uploaded file is too large or malformed", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		utils.SendJSONError(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	count, err := h.reconciliationService.ImportStatement(
		r.PathValue("id"), r.FormValue("format"), file, actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, map[string]int{"imported": count})
}

func (h *ReconciliationHandler) HandleUnmatchedTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.reconciliationService.GetUnmatchedTransactions(r.PathValue("id"))
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, transactions)
}

func (h *ReconciliationHandler) HandleMatchItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var cmd models.MatchItemCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	item, err := h.reconciliationService.MatchItem(r.PathValue("id"), r.PathValue("itemId"), cmd, actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, item)
}

func (h *ReconciliationHandler) HandleUnmatchItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	item, err := h.reconciliationService.UnmatchItem(r.PathValue("id"), r.PathValue("itemId"), actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, item)
}

func (h *ReconciliationHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	if err := h.reconciliationService.DeleteItem(r.PathValue("id"), r.PathValue("itemId"), actor); err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]string{"message": "statement item deleted"})
}

func (h *ReconciliationHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	session, summary, err := h.reconciliationService.Complete(r.PathValue("id"), actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"summary": summary,
	})
}
