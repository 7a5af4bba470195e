package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/timeclock/internal"
	attendanceDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/attendance"
	companyDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/company"
	employeeDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/employee"
	sessionDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/user"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const pgxDriver = "pgx"

// DB bundles the ORM handle with the raw pool it runs on.
type DB struct {
	Gorm *gorm.DB
	SQL  *sqlx.DB
}

func (d *DB) Close() error {
	return d.SQL.Close()
}

// Open connects to the configured driver. Postgres goes through pgx's database/sql driver.
func Open(cfg internal.DatabaseConfig) (*DB, error) {
	// errors stay untranslated so unique violations keep their constraint name
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	switch cfg.Driver {
	case internal.DriverSQLite:
		gdb, err := gorm.Open(sqlite.Open(cfg.Source), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite pool: %w", err)
		}
		// sqlite serializes writers; a single connection keeps :memory: databases shared
		sqlDB.SetMaxOpenConns(1)
		return &DB{Gorm: gdb, SQL: sqlx.NewDb(sqlDB, "sqlite3")}, nil

	case internal.DriverPostgres, "":
		dbConn, err := sqlx.Connect(pgxDriver, cfg.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to open db connection: %w", err)
		}

		dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
		dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
		dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

		if err := dbConn.Ping(); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), gormCfg)
		if err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("failed to open gorm on postgres pool: %w", err)
		}
		return &DB{Gorm: gdb, SQL: dbConn}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Models lists every table owned by the application, parents first.
func Models() []interface{} {
	return []interface{}{
		&companyDatamodel.Address{},
		&companyDatamodel.Company{},
		&employeeDatamodel.Employee{},
		&userDatamodel.User{},
		&attendanceDatamodel.Record{},
		&sessionDatamodel.Session{},
	}
}

// AutoMigrate creates the schema without goose. Used by tests and sqlite development databases.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON attendance_records (employee_id) WHERE exit_at IS NULL",
		attendanceDatamodel.OpenRecordIndex,
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create open record index: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err comes from a unique constraint, optionally a specific one.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return false
		}
		return constraint == "" || pgErr.ConstraintName == constraint
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		// sqlite reports columns rather than index names
		return constraint == "" || strings.Contains(msg, constraint) || matchesColumns(msg, constraint)
	}
	return false
}

var sqliteIndexColumns = map[string]string{
	attendanceDatamodel.OpenRecordIndex: "attendance_records.employee_id",
	"idx_employees_email":               "employees.email",
	"idx_users_cpf":                     "users.cpf",
	"idx_users_employee_id":             "users.employee_id",
}

func matchesColumns(msg, constraint string) bool {
	cols, ok := sqliteIndexColumns[constraint]
	return ok && strings.Contains(msg, cols)
}
