package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	attendancePostgres "github.com/frahmantamala/timeclock/internal/attendance/postgres"
	"github.com/frahmantamala/timeclock/internal/auth"
	authPostgres "github.com/frahmantamala/timeclock/internal/auth/postgres"
	"github.com/frahmantamala/timeclock/internal/company"
	companyPostgres "github.com/frahmantamala/timeclock/internal/company/postgres"
	"github.com/frahmantamala/timeclock/internal/database"
	"github.com/frahmantamala/timeclock/internal/employee"
	employeePostgres "github.com/frahmantamala/timeclock/internal/employee/postgres"
	"github.com/frahmantamala/timeclock/internal/seed"
	"github.com/frahmantamala/timeclock/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database from a plan file",
	Long:  `Create the managers, companies, employees and past attendance records listed in a YAML plan. Items that already exist are left untouched.`,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yml", "seed plan file")
}

func loadPlan(path string) (seed.Plan, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return seed.Plan{}, fmt.Errorf("error reading seed plan: %w", err)
	}

	var plan seed.Plan
	if err := v.Unmarshal(&plan); err != nil {
		return seed.Plan{}, fmt.Errorf("error unmarshaling seed plan: %w", err)
	}
	return plan, nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	plan, err := loadPlan(seedFile)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	authService := auth.NewService(authPostgres.NewRepository(db.Gorm), cfg.Security.BCryptCost, lg)
	companyService := company.NewService(companyPostgres.NewCompanyRepository(db.Gorm), lg)
	employeeService := employee.NewService(employeePostgres.NewEmployeeRepository(db.Gorm), companyService, authService, lg)

	loc, err := cfg.App.Location()
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	runner := seed.NewRunner(authService, companyService, employeeService, lg).
		WithRecords(attendancePostgres.NewAttendanceRepository(db.Gorm), loc)
	results := runner.Run(context.Background(), plan)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tKEY\tOUTCOME\tERROR")
	for _, res := range results {
		msg := ""
		if res.Err != nil {
			msg = res.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.Kind, res.Key, res.Outcome, msg)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed := seed.Failed(results); failed > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d of %d seed items failed", failed, len(results))
	}
	return nil
}
