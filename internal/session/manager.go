package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sessionDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/session"

	"github.com/google/uuid"
)

const (
	flashCookieSuffix = "_flash"
	flashTTL          = 5 * time.Minute
	touchInterval     = time.Minute
)

type Store interface {
	Create(ctx context.Context, s *sessionDatamodel.Session) error
	GetByID(ctx context.Context, id string) (*sessionDatamodel.Session, error)
	Update(ctx context.Context, s *sessionDatamodel.Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type Options struct {
	CookieName string
	Secure     bool
	TTL        time.Duration
}

type Manager struct {
	store  Store
	signer *TokenSigner
	opts   Options
	now    func() time.Time
	logger *slog.Logger
}

func NewManager(store Store, signer *TokenSigner, opts Options, logger *slog.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}
	return &Manager{
		store:  store,
		signer: signer,
		opts:   opts,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source of the manager and its signer.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	m.signer.now = now
	return m
}

// Start creates a session for userID and writes the session cookie.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, userID int64, employeeID *int64) (*Session, error) {
	csrf, err := GenerateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("generate csrf token: %w", err)
	}

	now := m.now()
	s := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		CSRFToken:  csrf,
		EmployeeID: employeeID,
		ExpiresAt:  now.Add(m.opts.TTL),
		LastSeenAt: now,
		CreatedAt:  now,
	}

	if err := m.store.Create(ctx, ToDataModel(s)); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := m.signer.SignSession(s.ID, userID, s.ExpiresAt)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	m.logger.InfoContext(ctx, "session started", "user_id", userID)
	return s, nil
}

// Load resolves the session referenced by the request cookie.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	claims, err := m.signer.ParseSession(cookie.Value)
	if err != nil {
		return nil, err
	}

	row, err := m.store.GetByID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	s := FromDataModel(row)

	if strconv.FormatInt(s.UserID, 10) != claims.Subject {
		return nil, ErrInvalidToken
	}

	now := m.now()
	if s.Expired(now) {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			m.logger.WarnContext(ctx, "failed to delete expired session", "error", err)
		}
		return nil, ErrSessionExpired
	}

	if now.Sub(s.LastSeenAt) > touchInterval {
		s.LastSeenAt = now
		if err := m.store.Update(ctx, ToDataModel(s)); err != nil {
			m.logger.WarnContext(ctx, "failed to touch session", "error", err)
		}
	}

	return s, nil
}

func (m *Manager) Save(ctx context.Context, s *Session) error {
	if err := m.store.Update(ctx, ToDataModel(s)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Destroy removes the session row (if any) and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	m.ClearCookie(w)
	if s == nil {
		return nil
	}
	if err := m.store.Delete(ctx, s.ID); err != nil && !errors.Is(err, ErrNoSession) {
		return fmt.Errorf("delete session: %w", err)
	}
	m.logger.InfoContext(ctx, "session destroyed", "user_id", s.UserID)
	return nil
}

func (m *Manager) HasCookie(r *http.Request) bool {
	cookie, err := r.Cookie(m.opts.CookieName)
	return err == nil && cookie.Value != ""
}

func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// SetFlash queues a message for the next rendered page, keeping messages not yet shown.
func (m *Manager) SetFlash(w http.ResponseWriter, r *http.Request, level Level, message string) {
	flashes := m.pendingFlashes(r)
	flashes = append(flashes, Flash{Level: level, Message: message})

	token, err := m.signer.SignFlashes(flashes, m.now().Add(flashTTL))
	if err != nil {
		m.logger.ErrorContext(r.Context(), "failed to sign flash messages", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.flashCookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(flashTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlashes returns the queued messages and clears them.
func (m *Manager) PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := m.pendingFlashes(r)
	if _, err := r.Cookie(m.flashCookieName()); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     m.flashCookieName(),
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.opts.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return flashes
}

func (m *Manager) pendingFlashes(r *http.Request) []Flash {
	cookie, err := r.Cookie(m.flashCookieName())
	if err != nil || cookie.Value == "" {
		return nil
	}
	flashes, err := m.signer.ParseFlashes(cookie.Value)
	if err != nil {
		return nil
	}
	return flashes
}

func (m *Manager) flashCookieName() string {
	return m.opts.CookieName + flashCookieSuffix
}
