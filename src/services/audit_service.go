package services

import (
	"database/sql"
	"time"

	"github.com/username/ledgererp/backend/src/logger"
)

// AuditService records who did what to which entity. Audit writes never
// fail the business operation; failures are logged and dropped.
type AuditService struct {
	db *sql.DB
}

func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

type AuditLog struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (s *AuditService) Log(userID int64, action, entityType, entityID, notes string) {
	_, err := s.db.Exec(`
	INSERT INTO audit_logs (user_id, action, entity_type, entity_id, notes)
	VALUES (?, ?, ?, ?, ?)`,
		userID, action, entityType, entityID, notes)
	if err != nil && logger.L != nil {
		logger.L.Error("Failed to write audit log", "error", err,
			"action", action, "entityType", entityType, "entityId", entityID)
	}
}

// Recent returns the newest audit records, capped at limit.
func (s *AuditService) Recent(limit int) ([]AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(`
	SELECT id, user_id, action, entity_type, entity_id, notes, created_at
	FROM audit_logs
	ORDER BY id DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []AuditLog
	for rows.Next() {
		var l AuditLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.EntityType, &l.EntityID, &l.Notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if logs == nil {
		logs = []AuditLog{}
	}
	return logs, rows.Err()
}
