package domain

import "time"

// Utterance is the input to one classification cycle.
type Utterance struct {
	Text      string
	SessionID string
	// UserID is the caller identity. Nil and zero both mean "not supplied".
	UserID *int64
}

// CallerID reports the caller identity when one was supplied.
func (u Utterance) CallerID() (int64, bool) {
	if u.UserID == nil || *u.UserID == 0 {
		return 0, false
	}
	return *u.UserID, true
}

// Exchange is a single persisted (message, reply) pair of a session.
type Exchange struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	UserID      *int64    `json:"user_id,omitempty"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	CreatedAt   time.Time `json:"timestamp"`
}
