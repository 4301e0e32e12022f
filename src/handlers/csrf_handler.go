package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/username/ledgererp/backend/src/logger"
	"github.com/username/ledgererp/backend/src/utils"
)

const csrfCookieName = "_csrf_token"

// GetCSRFToken issues a double-submit CSRF token: the value is set as an
// HttpOnly cookie and returned in the body, and mutating requests must echo
// it in the X-CSRF-Token header.
func GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := generateRandomToken()
	if err != nil {
		logger.L.Error("Failed to generate CSRF token", "error", err)
		utils.SendJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   false, // behind TLS-terminating proxy in production
		MaxAge:   3600,
	})
	w.Header().Set("X-CSRF-Token", token)
	utils.SendJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CSRFMiddleware enforces the double-submit check on every mutating request.
func CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		headerToken := r.Header.Get("X-CSRF-Token")
		cookie, err := r.Cookie(csrfCookieName)
		if headerToken != "" && err == nil &&
			subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookie.Value)) == 1 {
			next.ServeHTTP(w, r)
			return
		}

		logger.L.Warn("CSRF validation failed", "method", r.Method, "path", r.URL.Path)
		utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
	})
}
