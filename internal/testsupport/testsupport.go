// Package testsupport builds the in-memory fixtures shared by package tests.
package testsupport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/database"
	"github.com/frahmantamala/timeclock/internal/session"
	sessionPostgres "github.com/frahmantamala/timeclock/internal/session/postgres"
	"github.com/frahmantamala/timeclock/internal/transport"
	"github.com/frahmantamala/timeclock/internal/transport/view"
)

const SessionSecret = "0123456789abcdef0123456789abcdef"

const CookieName = "timeclock_test"

// OpenDB returns a migrated sqlite database living in memory.
func OpenDB() (*database.DB, error) {
	db, err := database.Open(internal.DatabaseConfig{Driver: internal.DriverSQLite, Source: ":memory:"})
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db.Gorm); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewBaseHandler wires templates and a database-backed session manager.
func NewBaseHandler(db *database.DB) (*transport.BaseHandler, *session.Manager, error) {
	views, err := view.NewRenderer(time.UTC)
	if err != nil {
		return nil, nil, err
	}
	sessions := session.NewManager(
		sessionPostgres.NewSessionRepository(db.Gorm),
		session.NewTokenSigner(SessionSecret),
		session.Options{CookieName: CookieName, TTL: time.Hour},
		Logger(),
	)
	return transport.NewBaseHandler(Logger(), views, sessions), sessions, nil
}

// AsPrincipal attaches p and a fresh session to req, as the session middleware would.
func AsPrincipal(ctx context.Context, sessions *session.Manager, req *http.Request, p *internal.Principal) (*http.Request, *session.Session, error) {
	s, err := sessions.Start(ctx, httptest.NewRecorder(), p.UserID, p.EmployeeID)
	if err != nil {
		return nil, nil, err
	}
	return WithSession(req, p, s), s, nil
}

func WithSession(req *http.Request, p *internal.Principal, s *session.Session) *http.Request {
	ctx := session.NewContext(req.Context(), s)
	ctx = internal.ContextWithPrincipal(ctx, p)
	return req.WithContext(ctx)
}

// WithCookies copies the live cookies set on rec onto req.
func WithCookies(req *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		req.AddCookie(c)
	}
	return req
}

// Flashes decodes the flash messages a response queued.
func Flashes(sessions *session.Manager, rec *httptest.ResponseRecorder) []session.Flash {
	req := WithCookies(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	return sessions.PopFlashes(httptest.NewRecorder(), req)
}
