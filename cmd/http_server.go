package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/timeclock/api"
	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/attendance"
	attendancePostgres "github.com/frahmantamala/timeclock/internal/attendance/postgres"
	"github.com/frahmantamala/timeclock/internal/auth"
	authPostgres "github.com/frahmantamala/timeclock/internal/auth/postgres"
	"github.com/frahmantamala/timeclock/internal/company"
	companyPostgres "github.com/frahmantamala/timeclock/internal/company/postgres"
	"github.com/frahmantamala/timeclock/internal/core/events"
	"github.com/frahmantamala/timeclock/internal/database"
	"github.com/frahmantamala/timeclock/internal/employee"
	employeePostgres "github.com/frahmantamala/timeclock/internal/employee/postgres"
	"github.com/frahmantamala/timeclock/internal/session"
	sessionPostgres "github.com/frahmantamala/timeclock/internal/session/postgres"
	"github.com/frahmantamala/timeclock/internal/transport"
	"github.com/frahmantamala/timeclock/internal/transport/rest"
	"github.com/frahmantamala/timeclock/internal/transport/view"
	"github.com/frahmantamala/timeclock/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server serving the time clock pages`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *database.DB
	Router   *chi.Mux
	Sessions *session.Manager
	Events   *events.EventBus
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	purged, err := deps.Sessions.PurgeExpired(context.Background())
	if err != nil {
		deps.Logger.Warn("failed to purge expired sessions", "error", err)
	} else {
		deps.Logger.Info("expired sessions purged", "count", purged)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.Events.Close(ctx); err != nil {
			deps.Logger.Error("Event handlers did not finish", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			_ = deps.DB.Close()
			os.Exit(1)
		}
	}

	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}
	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	if _, err := api.Load(context.Background()); err != nil {
		return nil, err
	}

	db, err := database.Open(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := newEventBus(lg)
	router, sessions, err := buildRouter(config, db, bus, lg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Dependencies{
		Config:   config,
		DB:       db,
		Router:   router,
		Sessions: sessions,
		Events:   bus,
		Logger:   lg,
	}, nil
}

func buildRouter(config *internal.Config, db *database.DB, bus *events.EventBus, lg *slog.Logger) (*chi.Mux, *session.Manager, error) {
	loc, err := config.App.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	views, err := view.NewRenderer(loc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	sessions := session.NewManager(
		sessionPostgres.NewSessionRepository(db.Gorm),
		session.NewTokenSigner(config.Security.SessionSecret),
		session.Options{
			CookieName: config.Security.GetCookieName(),
			Secure:     config.Security.CookieSecure,
			TTL:        config.Security.SessionDuration,
		},
		lg,
	)
	base := transport.NewBaseHandler(lg, views, sessions)

	authService := auth.NewService(authPostgres.NewRepository(db.Gorm), config.Security.BCryptCost, lg)
	companyService := company.NewService(companyPostgres.NewCompanyRepository(db.Gorm), lg)
	employeeService := employee.NewService(employeePostgres.NewEmployeeRepository(db.Gorm), companyService, authService, lg)
	attendanceService := attendance.NewService(attendancePostgres.NewAttendanceRepository(db.Gorm), loc, lg).
		WithPublisher(bus)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth:           auth.NewHandler(base, authService),
		RBAC:           auth.NewRBACAuthorization(sessions, lg),
		Company:        company.NewHandler(base, companyService),
		Employee:       employee.NewHandler(base, employeeService),
		Attendance:     attendance.NewHandler(base, attendanceService, companyService),
		Health:         rest.NewHealthHandler(db.SQL),
		OpenAPI:        api.Spec,
		AllowedOrigins: config.Server.Origins(),
		ErrorPage:      base.ServerError,
		Logger:         lg,
	})

	return router, sessions, nil
}
