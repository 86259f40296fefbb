package app

import (
	"context"
	"errors"
	"sync"

	"ripeness-detector/internal/domain/entity"
	"ripeness-detector/internal/domain/port"
)

// ErrSessionBusy is returned when a chat already has an analysis in flight.
var ErrSessionBusy = errors.New("analysis already in progress")

type SessionService struct {
	repo port.SessionRepository
	mu   sync.Mutex
}

func NewSessionService(repo port.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *SessionService) setState(ctx context.Context, userID, chatID int64, state entity.SessionState) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	session.SetState(state)
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// switchDialog moves an idle session to state. A session with an analysis in
// flight is left untouched and ErrSessionBusy is returned; only Finish ends
// processing.
func (s *SessionService) switchDialog(ctx context.Context, userID, chatID int64, state entity.SessionState) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if session.Busy() {
		return session, ErrSessionBusy
	}
	return s.setState(ctx, userID, chatID, state)
}

func (s *SessionService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.switchDialog(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *SessionService) Cancel(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.switchDialog(ctx, userID, chatID, entity.StateMainMenu)
}

// StartProcessing marks the session busy. It fails with ErrSessionBusy when
// another analysis for the same user has not finished yet.
func (s *SessionService) StartProcessing(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if session.Busy() {
		return nil, ErrSessionBusy
	}
	return s.setState(ctx, userID, chatID, entity.StateProcessing)
}

// Finish returns the user's session to the main menu once an analysis is
// over. Users without a session are left alone.
func (s *SessionService) Finish(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.UpdateState(ctx, userID, entity.StateMainMenu)
}
