package auth

import "time"

// Session maps an opaque token to a user. Sessions are issued by the external
// identity service; this service only resolves them.
type Session struct {
	Token     string    `yaml:"token"`
	UserID    string    `yaml:"user_id"`
	ExpiresAt time.Time `yaml:"expires_at"`
	CreatedAt time.Time `yaml:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
