package port

import (
	"context"

	"ripeness-detector/internal/domain/entity"
)

// SessionRepository stores chat sessions
type SessionRepository interface {
	// Get returns the session for a user, creating one if it does not exist
	Get(ctx context.Context, userID, chatID int64) (*entity.Session, error)

	// Save stores the session
	Save(ctx context.Context, session *entity.Session) error

	// UpdateState changes the state of an existing session
	UpdateState(ctx context.Context, userID int64, state entity.SessionState) error
}
