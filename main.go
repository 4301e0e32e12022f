package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/ledgererp/backend/src/config"
	"github.com/username/ledgererp/backend/src/database"
	"github.com/username/ledgererp/backend/src/handlers"
	"github.com/username/ledgererp/backend/src/logger"
	"github.com/username/ledgererp/backend/src/security"
	"github.com/username/ledgererp/backend/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == config.Cfg.AllowedOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == http.MethodOptions {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Ledger ERP backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	reportCache := cache.New(config.Cfg.ReportCacheTTL, config.Cfg.ReportCacheCleanup)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	auditService := services.NewAuditService(database.DB)
	accountService := services.NewAccountHeadService(database.DB, auditService)
	journalService := services.NewJournalEntryService(database.DB, auditService, reportCache)
	reportService := services.NewReportService(database.DB, reportCache)
	reconciliationService := services.NewReconciliationService(database.DB, auditService, config.Cfg.BankAccountPrefix)
	periodCloseService := services.NewPeriodCloseService(database.DB, auditService, reportService, reportCache, config.Cfg.RetainedEarningsCode)

	userHandler := handlers.NewUserHandler(authService)
	accountHandler := handlers.NewAccountHandler(accountService)
	journalHandler := handlers.NewJournalHandler(journalService)
	reportHandler := handlers.NewReportHandler(reportService)
	reconciliationHandler := handlers.NewReconciliationHandler(reconciliationService)
	periodCloseHandler := handlers.NewPeriodCloseHandler(periodCloseService)
	auditHandler := handlers.NewAuditHandler(auditService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)
	apiRouter.HandleFunc("POST /api/auth/login", userHandler.LoginUserHandler)
	apiRouter.HandleFunc("POST /api/auth/register", userHandler.RegisterUserHandler)
	apiRouter.HandleFunc("POST /api/auth/refresh", userHandler.RefreshTokenHandler)
	apiRouter.Handle("POST /api/auth/logout", userHandler.AuthMiddleware(http.HandlerFunc(userHandler.LogoutUserHandler)))
	apiRouter.Handle("GET /api/auth/me", userHandler.AuthMiddleware(http.HandlerFunc(userHandler.MeHandler)))

	protected := func(handler http.HandlerFunc) http.Handler {
		return handlers.CSRFMiddleware(userHandler.AuthMiddleware(handler))
	}

	apiRouter.Handle("GET /api/v1/accounts", protected(accountHandler.HandleList))
	apiRouter.Handle("POST /api/v1/accounts", protected(accountHandler.HandleCreate))
	apiRouter.Handle("GET /api/v1/accounts/tree", protected(accountHandler.HandleGetTree))
	apiRouter.Handle("GET /api/v1/accounts/{id}", protected(accountHandler.HandleGet))
	apiRouter.Handle("PUT /api/v1/accounts/{id}", protected(accountHandler.HandleUpdate))
	apiRouter.Handle("DELETE /api/v1/accounts/{id}", protected(accountHandler.HandleDelete))

	apiRouter.Handle("GET /api/v1/journal-entries", protected(journalHandler.HandleList))
	apiRouter.Handle("POST /api/v1/journal-entries", protected(journalHandler.HandleCreate))
	apiRouter.Handle("POST /api/v1/journal-entries/validate", protected(journalHandler.HandleValidate))
	apiRouter.Handle("GET /api/v1/journal-entries/{id}", protected(journalHandler.HandleGet))
	apiRouter.Handle("PUT /api/v1/journal-entries/{id}", protected(journalHandler.HandleUpdate))
	apiRouter.Handle("DELETE /api/v1/journal-entries/{id}", protected(journalHandler.HandleDelete))
	apiRouter.Handle("POST /api/v1/journal-entries/{id}/post", protected(journalHandler.HandlePost))

	apiRouter.Handle("GET /api/v1/reports/general-ledger", protected(reportHandler.HandleGeneralLedger))
	apiRouter.Handle("GET /api/v1/reports/trial-balance", protected(reportHandler.HandleTrialBalance))
	apiRouter.Handle("GET /api/v1/reports/balance-sheet", protected(reportHandler.HandleBalanceSheet))

	apiRouter.Handle("GET /api/v1/reconciliations", protected(reconciliationHandler.HandleList))
	apiRouter.Handle("POST /api/v1/reconciliations", protected(reconciliationHandler.HandleCreate))
	apiRouter.Handle("GET /api/v1/reconciliations/{id}", protected(reconciliationHandler.HandleGet))
	apiRouter.Handle("POST /api/v1/reconciliations/{id}/items", protected(reconciliationHandler.HandleAddItem))
	apiRouter.Handle("POST /api/v1/reconciliations/{id}/import", protected(reconciliationHandler.HandleImportStatement))
	apiRouter.Handle("GET /api/v1/reconciliations/{id}/unmatched-transactions", protected(reconciliationHandler.HandleUnmatchedTransactions))
	apiRouter.Handle("POST /api/v1/reconciliations/{id}/items/{itemId}/match", protected(reconciliationHandler.HandleMatchItem))
	apiRouter.Handle("POST /api/v1/reconciliations/{id}/items/{itemId}/unmatch", protected(reconciliationHandler.HandleUnmatchItem))
	apiRouter.Handle("DELETE /api/v1/reconciliations/{id}/items/{itemId}", protected(reconciliationHandler.HandleDeleteItem))
	apiRouter.Handle("POST /api/v1/reconciliations/{id}/complete", protected(reconciliationHandler.HandleComplete))

	apiRouter.Handle("GET /api/v1/period-closes", protected(periodCloseHandler.HandleList))
	apiRouter.Handle("POST /api/v1/period-closes", protected(periodCloseHandler.HandleCloseMonth))
	apiRouter.Handle("GET /api/v1/period-closes/pnl", protected(periodCloseHandler.HandleMonthPnL))
	apiRouter.Handle("POST /api/v1/period-closes/{id}/reopen", protected(periodCloseHandler.HandleReopen))

	apiRouter.Handle("GET /api/v1/audit-logs", protected(auditHandler.HandleRecent))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Ledger ERP backend is running"})
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
