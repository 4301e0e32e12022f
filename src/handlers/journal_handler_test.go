package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/ledgererp/backend/src/database"
	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/services"
)

func newHandlerTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	// Each new connection to :memory: is a fresh database; keep one.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedChartOfAccounts(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newJournalHandlerFixture(t *testing.T) (*JournalHandler, *sql.DB, models.Actor) {
	db := newHandlerTestDB(t)
	audit := services.NewAuditService(db)
	journal := services.NewJournalEntryService(db, audit, cache.New(time.Minute, time.Minute))
	handler := NewJournalHandler(journal)

	user := &models.User{Username: "handler-test", Email: "handler@example.com", Role: models.RoleAccountant}
	require.NoError(t, user.HashPassword("correct-horse-battery"))
	require.NoError(t, user.CreateUser(db))
	return handler, db, user.Actor()
}

func withActor(r *http.Request, actor models.Actor) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), actorContextKey, actor))
}

func accountID(t *testing.T, db *sql.DB, code string) string {
	t.Helper()
	var id string
	require.NoError(t, db.QueryRow(`SELECT id FROM account_heads WHERE code = ?`, code).Scan(&id))
	return id
}

func TestJournalHandlerCreate(t *testing.T) {
	handler, db, actor := newJournalHandlerFixture(t)
	cash := accountID(t, db, "1101")
	sales := accountID(t, db, "4001")

	body := `{
		"date": "2026-01-15",
		"description": "Cash sale",
		"lines": [
			{"accountHeadId": "` + cash + `", "debitAmount": "1000"},
			{"accountHeadId": "` + sales + `", "creditAmount": "1000"}
		]
	}`
	r := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries", strings.NewReader(body)), actor)
	w := httptest.NewRecorder()
	handler.HandleCreate(w, r)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Success bool                `json:"success"`
		Data    models.JournalEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "JE-20260115-001", resp.Data.EntryNumber)
	assert.Len(t, resp.Data.Lines, 2)

	t.Run("unbalanced payloads come back as 422", func(t *testing.T) {
		body := `{
			"date": "2026-01-16",
			"description": "Broken",
			"lines": [
				{"accountHeadId": "` + cash + `", "debitAmount": "500"},
				{"accountHeadId": "` + sales + `", "creditAmount": "400"}
			]
		}`
		r := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries", strings.NewReader(body)), actor)
		w := httptest.NewRecorder()
		handler.HandleCreate(w, r)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "not balanced")
	})

	t.Run("malformed JSON is a 400", func(t *testing.T) {
		r := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries", strings.NewReader("{")), actor)
		w := httptest.NewRecorder()
		handler.HandleCreate(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing actor is a 401", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.HandleCreate(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestJournalHandlerPostAndGet(t *testing.T) {
	handler, db, actor := newJournalHandlerFixture(t)
	cash := accountID(t, db, "1101")
	sales := accountID(t, db, "4001")

	body := `{
		"date": "2026-02-01",
		"description": "Cash sale",
		"lines": [
			{"accountHeadId": "` + cash + `", "debitAmount": "250"},
			{"accountHeadId": "` + sales + `", "creditAmount": "250"}
		]
	}`
	r := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries", strings.NewReader(body)), actor)
	w := httptest.NewRecorder()
	handler.HandleCreate(w, r)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.JournalEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	r = withActor(httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries/"+created.Data.ID+"/post", nil), actor)
	r.SetPathValue("id", created.Data.ID)
	w = httptest.NewRecorder()
	handler.HandlePost(w, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	t.Run("double post is a 409", func(t *testing.T) {
		r := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries/"+created.Data.ID+"/post", nil), actor)
		r.SetPathValue("id", created.Data.ID)
		w := httptest.NewRecorder()
		handler.HandlePost(w, r)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("get returns the posted entry", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/journal-entries/"+created.Data.ID, nil)
		r.SetPathValue("id", created.Data.ID)
		w := httptest.NewRecorder()
		handler.HandleGet(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data models.JournalEntry `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "POSTED", string(resp.Data.Status))
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/journal-entries/nope", nil)
		r.SetPathValue("id", "nope")
		w := httptest.NewRecorder()
		handler.HandleGet(w, r)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestJournalHandlerValidate(t *testing.T) {
	handler, db, _ := newJournalHandlerFixture(t)
	cash := accountID(t, db, "1101")
	sales := accountID(t, db, "4001")

	body := `{"lines": [
		{"accountHeadId": "` + cash + `", "debitAmount": "500"},
		{"accountHeadId": "` + sales + `", "creditAmount": "400"}
	]}`
	r := httptest.NewRequest(http.MethodPost, "/api/v1/journal-entries/validate", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.HandleValidate(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			IsBalanced bool   `json:"isBalanced"`
			Difference string `json:"difference"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Data.IsBalanced)
	assert.Equal(t, "100", resp.Data.Difference)
}
