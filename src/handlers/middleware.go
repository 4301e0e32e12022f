package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/ledgererp/backend/src/database"
	"github.com/username/ledgererp/backend/src/logger"
	"github.com/username/ledgererp/backend/src/models"
	"github.com/username/ledgererp/backend/src/utils"
)

// contextKey is unexported so no other package can collide with our keys.
type contextKey string

const actorContextKey contextKey = "actor"

// ActorFromContext returns the authenticated actor stored by AuthMiddleware.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(models.Actor)
	return actor, ok
}

// mustActor fetches the actor or fails the request. Routes behind
// AuthMiddleware always have one; a miss means a wiring bug.
func mustActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		logger.L.Error("Actor missing from request context", "path", r.URL.Path)
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
	}
	return actor, ok
}

// AuthMiddleware validates the bearer token, checks the session store and
// loads the user's role into the request context as an Actor.
func (h *UserHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logger.L.Debug("AuthMiddleware: Authorization header missing", "path", r.URL.Path)
			utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
			return
		}

		userIDStr, err := h.authService.ValidateToken(tokenString)
		if err != nil {
			logger.L.Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		if _, err := models.GetSessionByToken(database.DB, tokenString); err != nil {
			logger.L.Warn("AuthMiddleware: Session validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired session", http.StatusUnauthorized)
			return
		}

		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			logger.L.Error("AuthMiddleware: Invalid user ID format in token", "userIDStr", userIDStr)
			utils.SendJSONError(w, "Invalid user ID in token", http.StatusInternalServerError)
			return
		}
		user, err := models.GetUserByID(database.DB, userID)
		if err != nil {
			logger.L.Warn("AuthMiddleware: User not found for valid token", "userID", userID)
			utils.SendJSONError(w, "Invalid session or user", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), actorContextKey, user.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
