package entity

// SessionState is the dialog state of a chat session.
type SessionState string

const (
	StateMainMenu      SessionState = "main_menu"      // idle
	StateAwaitingPhoto SessionState = "awaiting_photo" // /check sent, waiting for a photo
	StateProcessing    SessionState = "processing"     // analysis in flight
)

// Session is a chat front-end user together with the dialog state.
type Session struct {
	UserID int64        // Telegram user ID
	ChatID int64        // Telegram chat ID
	State  SessionState // current dialog state
}

// NewSession creates a session in the main menu.
func NewSession(userID, chatID int64) *Session {
	return &Session{
		UserID: userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState updates the dialog state.
func (s *Session) SetState(state SessionState) {
	s.State = state
}

// Busy reports whether an analysis is already running for this session.
func (s *Session) Busy() bool {
	return s.State == StateProcessing
}
