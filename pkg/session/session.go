package session

import (
	"encoding/json"
	"time"
)

// Role is the access level carried by a session.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status is the state of the session machine.
type Status string

const (
	// StatusUnknown holds only until the first Rehydrate completes.
	StatusUnknown Status = "unknown"
	// StatusAnonymous means no valid credential exists.
	StatusAnonymous Status = "anonymous"
	// StatusAuthenticated means a session value is held and a token is stored.
	StatusAuthenticated Status = "authenticated"
)

// Session is the authenticated-user value. The token is persisted separately
// from the user record and never serialized with it.
type Session struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	Token    string    `json:"-"`
	IssuedAt time.Time `json:"issuedAt"`
}

// HasRole reports whether the session carries the given role. Derived from
// the role field, never separately persisted.
func (s *Session) HasRole(role Role) bool {
	return s != nil && s.Role == role
}

// IsAdmin reports whether the session belongs to an admin.
func (s *Session) IsAdmin() bool {
	return s.HasRole(RoleAdmin)
}

// issuedNow returns the issue timestamp normalized to whole seconds in UTC,
// so a session survives a JSON round-trip through the credential store as an
// identical value.
func issuedNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// userRecord is the wire/storage shape of the user part of a session.
type userRecord struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	IssuedAt time.Time `json:"issuedAt,omitempty"`
}

func (u userRecord) session(token string) Session {
	role := u.Role
	if role == "" {
		role = RoleUser
	}
	issued := u.IssuedAt
	if issued.IsZero() {
		issued = issuedNow()
	}
	return Session{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     role,
		Token:    token,
		IssuedAt: issued,
	}
}

func record(s Session) userRecord {
	return userRecord{
		ID:       s.ID,
		Email:    s.Email,
		Name:     s.Name,
		Role:     s.Role,
		IssuedAt: s.IssuedAt,
	}
}

func marshalRecord(s Session) (string, error) {
	data, err := json.Marshal(record(s))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalRecord(data string, token string) (Session, error) {
	var u userRecord
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return Session{}, err
	}
	return u.session(token), nil
}
