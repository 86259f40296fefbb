package storage

import (
	"context"
	"sync"

	"ripeness-detector/internal/domain/entity"
	"ripeness-detector/internal/domain/port"
)

// MemorySessionRepository keeps chat sessions in memory
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]*entity.Session
}

// NewMemorySessionRepository creates an empty repository
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[int64]*entity.Session),
	}
}

// Get returns a copy of the stored session, creating one if it does not exist
func (r *MemorySessionRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[userID]
	if !exists {
		session = entity.NewSession(userID, chatID)
		r.sessions[userID] = session
	}

	cp := *session
	return &cp, nil
}

// Save stores a copy of the session
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.Session) error {
	cp := *session

	r.mu.Lock()
	r.sessions[session.UserID] = &cp
	r.mu.Unlock()

	return nil
}

// UpdateState changes the state of an existing session; unknown users are ignored
func (r *MemorySessionRepository) UpdateState(ctx context.Context, userID int64, state entity.SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, exists := r.sessions[userID]; exists {
		session.SetState(state)
	}

	return nil
}

var _ port.SessionRepository = (*MemorySessionRepository)(nil)
