package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/ledgererp/backend/src/ledger"
	"github.com/username/ledgererp/backend/src/logger"
)

// envelope is the response shape every endpoint uses:
// { success: bool, data: ..., meta?: {...} } on success,
// { success: false, message: ... } on error.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
	Message string `json:"message,omitempty"`
}

// ListMeta carries pagination info for list endpoints.
type ListMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// SendJSON writes a success envelope.
func SendJSON(w http.ResponseWriter, statusCode int, data any) {
	SendJSONWithMeta(w, statusCode, data, nil)
}

// SendJSONWithMeta writes a success envelope with a meta block.
func SendJSONWithMeta(w http.ResponseWriter, statusCode int, data any, meta any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data, Meta: meta}); err != nil {
		if logger.L != nil {
			logger.L.Error("Error encoding JSON response", "error", err)
		}
	}
}

// SendJSONError writes an error envelope.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if logger.L != nil {
		logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	}
	json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}

// SendDomainError maps the ledger error taxonomy onto HTTP status codes:
// validation and balance failures are 422, lifecycle and uniqueness
// conflicts are 409, missing entities are 404.
func SendDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr    *ledger.ValidationError
		notBalancedErr   *ledger.NotBalancedError
		alreadyPostedErr *ledger.AlreadyPostedError
		invalidStateErr  *ledger.InvalidStateError
		conflictErr      *ledger.ConflictError
		alreadyClosedErr *ledger.AlreadyClosedError
		notFoundErr      *ledger.NotFoundError
		permissionErr    *ledger.PermissionError
	)
	switch {
	case errors.As(err, &permissionErr):
		SendJSONError(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &validationErr), errors.As(err, &notBalancedErr):
		SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &alreadyPostedErr), errors.As(err, &invalidStateErr),
		errors.As(err, &conflictErr), errors.As(err, &alreadyClosedErr):
		SendJSONError(w, err.Error(), http.StatusConflict)
	case errors.As(err, &notFoundErr):
		SendJSONError(w, err.Error(), http.StatusNotFound)
	default:
		if logger.L != nil {
			logger.L.Error("Unhandled error in handler", "error", err)
		}
		SendJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

// GenerateETag creates a SHA256 hash of the JSON representation of the data.
func GenerateETag(data any) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data for ETag generation: %w", err)
	}
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:]), nil
}
