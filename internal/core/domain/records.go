package domain

import (
	"encoding/json"
	"time"
)

// Backend tables.
const (
	TableUserData = "user_data"
	TableSessions = "sessions"
	TableRoutines = "routines"
)

// Conflict keys used for upserts, per table.
const (
	ConflictUserID = "user_id"
	ConflictID     = "id"
)

// DateLayout is the calendar date format of WorkoutSession.Date.
const DateLayout = "2006-01-02"

// Profile carries the optional sign-up metadata.
type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// User is an authenticated account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthSession is the backend session of a signed-in user.
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
}

// IsExpired reports whether the access token has expired.
// A zero ExpiresAt never expires.
func (s *AuthSession) IsExpired() bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt)
}

// UserData is the single free-form document kept per user (table user_data).
type UserData struct {
	UserID    string          `json:"user_id"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WorkoutSession is one training session (table sessions).
type WorkoutSession struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	SessionData json.RawMessage `json:"session_data" validate:"required"`
	Date        string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Completed   bool            `json:"completed"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Routine is a reusable workout plan (table routines).
type Routine struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	RoutineData json.RawMessage `json:"routine_data" validate:"required"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RowRef identifies a row owned by a user. It is the payload of delete operations.
type RowRef struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}
