package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/services"
	"github.com/username/ledgererp/backend/src/utils"
)

type AccountHandler struct {
	accountService *services.AccountHeadService
}

func NewAccountHandler(accountService *services.AccountHeadService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := services.AccountHeadFilters{
		Status:      q.Get("status"),
		AccountType: q.Get("accountType"),
		Search:      q.Get("search"),
		Page:        queryInt(q.Get("page")),
		Limit:       queryInt(q.Get("limit")),
	}
	accounts, total, err := h.accountService.GetAll(filters)
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
	utils.SendJSONWithMeta(w, http.StatusOK, accounts, utils.ListMeta{Total: total, Page: page, Limit: limit})
}

func (h *AccountHandler) HandleGetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.accountService.GetTree()
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, tree)
}

func (h *AccountHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountService.GetByID(r.PathValue("id"))
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var cmd models.CreateAccountHeadCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	account, err := h.accountService.Create(cmd, actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var cmd models.UpdateAccountHeadCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	account, err := h.accountService.Update(r.PathValue("id"), cmd, actor)
	if err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	if err := h.accountService.Delete(r.PathValue("id"), actor); err != nil {
		utils.SendDomainError(w, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// queryInt parses a numeric query parameter; malformed values fall back to
// zero and the service defaults kick in.
func queryInt(value string) int {
	n, _ := strconv.Atoi(value)
	return n
}
