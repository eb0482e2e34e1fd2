package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/facilitator-allocator/cmd/cli/commands"
	"github.com/jakechorley/facilitator-allocator/internal/config"
	"github.com/jakechorley/facilitator-allocator/pkg/clients/gmailclient"
	"github.com/jakechorley/facilitator-allocator/pkg/clients/sheetsclient"
	"github.com/jakechorley/facilitator-allocator/pkg/postgres"
	"github.com/jakechorley/facilitator-allocator/pkg/utils"
	"github.com/jakechorley/facilitator-allocator/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
	pgDB    *postgres.DB
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "allocator",
		Short: "Facilitator allocator CLI - Staff teaching sessions",
		Long:  `A CLI tool for assigning facilitators to teaching sessions, checking conflicts, reporting and managing swaps.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeApp()
		},
		SilenceUsage: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")
	rootCmd.MarkPersistentFlagRequired("env")

	// Add all commands
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.AllocateCmd(app))
	rootCmd.AddCommand(commands.ConflictsCmd(app))
	rootCmd.AddCommand(commands.ReportCmd(app))
	rootCmd.AddCommand(commands.SwapCmd(app))
	rootCmd.AddCommand(commands.LogoutCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		closeApp()
		os.Exit(1)
	}
}

// initApp sets up logger, config, database and, if the config needs them, Google clients
func initApp(cmd *cobra.Command) error {
	var err error
	app.Env = env
	app.Ctx = context.Background()

	// Initialize logger
	app.Logger, err = logging.InitLogger(logging.Options{Env: env, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	if app.Cfg.NeedsGoogle() && cmd.Annotations[commands.AnnotationSkipGoogle] == "" {
		if err := initGoogleClients(); err != nil {
			return err
		}
	}

	// Connect to database
	app.Logger.Info("Connecting to database")
	pgDB, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Database = pgDB
	app.Logger.Info("Database initialized successfully")

	return nil
}

// initGoogleClients authenticates once and builds the clients the config asks for
func initGoogleClients() error {
	app.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg, utils.RequiredScopes(app.Cfg))
	if err != nil {
		return fmt.Errorf("failed to build OAuth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(app.Ctx, oauthConfig, env, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to get OAuth token: %w", err)
	}
	app.Logger.Debug("OAuth token acquired")

	if app.Cfg.ReportSheetID != "" {
		app.Logger.Info("Initializing sheets client")
		app.SheetsClient, err = sheetsclient.NewClient(app.Ctx, oauthConfig, token)
		if err != nil {
			return fmt.Errorf("failed to create sheets client: %w", err)
		}
		app.Logger.Debug("Sheets client initialized successfully")
	}

	if app.Cfg.Notifications.Enabled {
		app.Logger.Info("Initializing gmail client")
		app.GmailClient, err = gmailclient.NewClient(app.Ctx, oauthConfig, token, app.Cfg.Notifications.GmailUserID, app.Cfg.Notifications.GmailSender)
		if err != nil {
			return fmt.Errorf("failed to create gmail client: %w", err)
		}
		app.Logger.Debug("Gmail client initialized successfully")
	}

	return nil
}

func closeApp() {
	if pgDB != nil {
		pgDB.Close()
		pgDB = nil
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
