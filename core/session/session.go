package session

import (
	"maps"
	"time"
)

// Session is one authenticated browser or client context.
// It is stored as JSON under Config.KeyPrefix + ID.
type Session struct {
	ID          string `json:"session_id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`

	// CSRFToken is bound 1:1 to the session and replaced on rotation.
	CSRFToken string `json:"csrf_token"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`

	RotationCount int `json:"rotation_count"`
	// RotatedFrom is the identifier this session superseded, kept for audit.
	RotatedFrom string `json:"rotated_from,omitempty"`

	// ClientInfo holds free-form client metadata: IP, user agent, creation reason.
	ClientInfo map[string]string `json:"client_info,omitempty"`
}

// Well-known ClientInfo keys.
const (
	ClientIP        = "ip"
	ClientUserAgent = "user_agent"
	ClientReason    = "reason"
)

// Creation reasons recorded under ClientReason.
const (
	ReasonLogin        = "login"
	ReasonRegistration = "registration"
	ReasonOAuth        = "oauth"
)

// Info is a read-only projection of a session with derived timings.
type Info struct {
	ID             string            `json:"session_id"`
	UserID         string            `json:"user_id"`
	Email          string            `json:"email"`
	DisplayName    string            `json:"display_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastActivityAt time.Time         `json:"last_activity_at"`
	RotationCount  int               `json:"rotation_count"`
	ClientInfo     map[string]string `json:"client_info,omitempty"`

	AgeSeconds  int64 `json:"age_seconds"`
	IdleSeconds int64 `json:"idle_seconds"`
	// ExpiresIn is the remaining store lifetime in seconds, -1 when unknown.
	ExpiresIn int64 `json:"expires_in"`
}

// CreateParams contains parameters for creating a new session.
type CreateParams struct {
	UserID      string
	Email       string
	DisplayName string
	ClientInfo  map[string]string
}

func (s Session) clone() Session {
	s.ClientInfo = maps.Clone(s.ClientInfo)
	return s
}

func (s Session) info(now time.Time, expiresIn time.Duration, known bool) Info {
	exp := int64(-1)
	if known {
		exp = int64(expiresIn / time.Second)
	}
	return Info{
		ID:             s.ID,
		UserID:         s.UserID,
		Email:          s.Email,
		DisplayName:    s.DisplayName,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
		RotationCount:  s.RotationCount,
		ClientInfo:     maps.Clone(s.ClientInfo),
		AgeSeconds:     int64(now.Sub(s.CreatedAt) / time.Second),
		IdleSeconds:    int64(now.Sub(s.LastActivityAt) / time.Second),
		ExpiresIn:      exp,
	}
}
