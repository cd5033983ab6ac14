package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"blog-platform/pkg/common/config"
	"blog-platform/pkg/core/moderation"
	"blog-platform/pkg/core/storage"
	dao "blog-platform/pkg/core/user/repository/dao/impl"
	"blog-platform/pkg/core/user/service"
	"blog-platform/pkg/web/router"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:          "blog-platform",
		SilenceUsage: true,
	}

	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(loadConfig())
			if err != nil {
				return err
			}
			hlog.Info("schema is up to date")
			return closeDB(db)
		},
	}

	var createAdminCmd = &cobra.Command{
		Use:   "createadmin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			firstName, _ := cmd.Flags().GetString("first-name")
			lastName, _ := cmd.Flags().GetString("last-name")
			return createAdmin(service.RegisterInput{
				Email:     email,
				Password:  password,
				FirstName: firstName,
				LastName:  lastName,
			})
		},
	}
	createAdminCmd.Flags().String("email", "", "admin email")
	createAdminCmd.Flags().String("password", "", "admin password")
	createAdminCmd.Flags().String("first-name", "", "admin first name")
	createAdminCmd.Flags().String("last-name", "", "admin last name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWebServer() error {
	cfg := loadConfig()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	// the classifier is built once and shared by every request
	gate, err := moderation.NewGateFromConfig(cfg.Moderation)
	if err != nil {
		return fmt.Errorf("moderation: %w", err)
	}

	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(int(cfg.Middleware.Security.MaxBodySize)),
	)

	if err := router.RegisterAPIs(h, cfg, db, gate); err != nil {
		return err
	}

	h.Spin()
	return nil
}

func createAdmin(in service.RegisterInput) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	users := service.NewUserService(dao.NewGormUserRepository(db))
	account, err := users.CreateAdmin(context.Background(), in)
	if err != nil {
		return err
	}
	hlog.Infof("admin account %d (%s) created", account.ID, account.Email)
	return nil
}

func loadConfig() *config.Config {
	cfg := config.Load()
	hlog.SetLevel(logLevel(cfg.LogLevel))
	return cfg
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	db, err := cfg.InitDB()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func logLevel(level string) hlog.Level {
	switch level {
	case "trace":
		return hlog.LevelTrace
	case "debug":
		return hlog.LevelDebug
	case "warn":
		return hlog.LevelWarn
	case "error":
		return hlog.LevelError
	default:
		return hlog.LevelInfo
	}
}
