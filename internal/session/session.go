package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	sessionDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/session"
)

var (
	ErrNoSession      = errors.New("session not found")
	ErrSessionExpired = errors.New("session expired")
	ErrInvalidToken   = errors.New("invalid session token")
)

// Session is the server-side state of a logged in browser.
// CompanyID and EmployeeID are hints selected while navigating; callers re-check them against storage.
type Session struct {
	ID         string
	UserID     int64
	CSRFToken  string
	CompanyID  *int64
	EmployeeID *int64
	ExpiresAt  time.Time
	LastSeenAt time.Time
	CreatedAt  time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *Session) SelectCompany(companyID int64) {
	s.CompanyID = &companyID
}

func (s *Session) SelectedCompany() (int64, bool) {
	if s == nil || s.CompanyID == nil {
		return 0, false
	}
	return *s.CompanyID, true
}

func (s *Session) SelectedEmployee() (int64, bool) {
	if s == nil || s.EmployeeID == nil {
		return 0, false
	}
	return *s.EmployeeID, true
}

func ToDataModel(s *Session) *sessionDatamodel.Session {
	return &sessionDatamodel.Session{
		ID:         s.ID,
		UserID:     s.UserID,
		CSRFToken:  s.CSRFToken,
		CompanyID:  s.CompanyID,
		EmployeeID: s.EmployeeID,
		ExpiresAt:  s.ExpiresAt,
		LastSeenAt: s.LastSeenAt,
		CreatedAt:  s.CreatedAt,
	}
}

func FromDataModel(s *sessionDatamodel.Session) *Session {
	return &Session{
		ID:         s.ID,
		UserID:     s.UserID,
		CSRFToken:  s.CSRFToken,
		CompanyID:  s.CompanyID,
		EmployeeID: s.EmployeeID,
		ExpiresAt:  s.ExpiresAt,
		LastSeenAt: s.LastSeenAt,
		CreatedAt:  s.CreatedAt,
	}
}

type ctxKey string

const contextSessionKey ctxKey = "session"

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextSessionKey, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(contextSessionKey).(*Session)
	return s, ok && s != nil
}

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
