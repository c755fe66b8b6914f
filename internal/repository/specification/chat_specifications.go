package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySession scopes messages or citations to one chat session
type BySession struct {
	SessionID uuid.UUID
}

func (s BySession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// ByMessage scopes citations to one chat message
type ByMessage struct {
	MessageID uuid.UUID
}

func (s ByMessage) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("message_id = ?", s.MessageID)
}
