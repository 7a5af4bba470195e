package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/timeclock/internal/auth"
	authPostgres "github.com/frahmantamala/timeclock/internal/auth/postgres"
	"github.com/frahmantamala/timeclock/internal/database"
	"github.com/frahmantamala/timeclock/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	managerCmd = &cobra.Command{
		Use:   "manager",
		Short: "Manage manager accounts",
	}
	managerCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a manager account",
		RunE:  runManagerCreate,
	}
	managerCPF      string
	managerPassword string
)

func init() {
	managerCreateCmd.Flags().StringVar(&managerCPF, "cpf", "", "manager CPF, with or without punctuation")
	managerCreateCmd.Flags().StringVar(&managerPassword, "password", "", "manager password")
	_ = managerCreateCmd.MarkFlagRequired("cpf")
	_ = managerCreateCmd.MarkFlagRequired("password")

	managerCmd.AddCommand(managerCreateCmd)
}

func runManagerCreate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	service := auth.NewService(authPostgres.NewRepository(db.Gorm), cfg.Security.BCryptCost, lg)
	user, err := service.CreateManager(context.Background(), auth.ManagerDTO{CPF: managerCPF, Password: managerPassword})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "manager %s created (id %d)\n", user.CPF, user.ID)
	return nil
}
