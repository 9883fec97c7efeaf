package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/factorlab/beltplan-go/internal/infrastructure/config"
	"github.com/factorlab/beltplan-go/internal/infrastructure/database"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage Beltplan configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (BELTPLAN_* prefix)
2. Config file (config.yaml)
3. Default values

User preferences (default project and game definition) are stored in
~/.beltplan/config.json

Examples:
  beltplan config show
  beltplan config set-project base
  beltplan config set-data data/game.json
  beltplan config clear`,
	}

	// Add subcommands
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetProjectCommand())
	cmd.AddCommand(newConfigSetDataCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Display the current configuration settings.

Shows both system configuration and user preferences.

Example:
  beltplan config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load system config
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				fmt.Printf("Warning: Failed to load config: %v\n", err)
				fmt.Println("Using default configuration.")
				cfg = config.LoadConfigOrDefault(configPath)
			}

			// Load user config
			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}

			userCfg, err := userConfigHandler.Load()
			if err != nil {
				fmt.Printf("Warning: Failed to load user config: %v\n\n", err)
				userCfg = &config.UserConfig{}
			}

			// Display configuration
			fmt.Println("Beltplan Configuration")
			fmt.Println("======================")

			fmt.Println("User Preferences:")
			fmt.Printf("  Config file:      %s\n", userConfigHandler.GetConfigPath())
			if userCfg.DefaultProject != "" {
				fmt.Printf("  Default Project:  %s\n", userCfg.DefaultProject)
			} else {
				fmt.Printf("  Default Project:  (not set)\n")
			}
			if userCfg.DefaultData != "" {
				fmt.Printf("  Default Data:     %s\n", userCfg.DefaultData)
			} else {
				fmt.Printf("  Default Data:     (not set)\n")
			}

			fmt.Println("\nProject Store:")
			fmt.Printf("  Type:             %s\n", cfg.Database.Type)
			if cfg.Database.Type == "sqlite" {
				fmt.Printf("  Path:             %s\n", cfg.Database.Path)
			} else if cfg.Database.URL != "" {
				fmt.Printf("  URL:              (set)\n")
			} else {
				fmt.Printf("  Host:             %s\n", cfg.Database.Host)
				fmt.Printf("  Port:             %d\n", cfg.Database.Port)
				fmt.Printf("  Database:         %s\n", cfg.Database.Name)
				fmt.Printf("  User:             %s\n", cfg.Database.User)
			}

			fmt.Println("\nGame Definition:")
			fmt.Printf("  Path:             %s\n", cfg.Data.Path)
			fmt.Printf("  Cache Size:       %d\n", cfg.Data.CacheSize)
			fmt.Printf("  Watch:            %v (debounce %s)\n",
				cfg.Data.Watch.Enabled, cfg.Data.Watch.Debounce)

			fmt.Println("\nSolver:")
			fmt.Printf("  Timeout:          %s\n", cfg.Solver.Timeout)

			fmt.Println("\nDaemon:")
			fmt.Printf("  Address:          %s\n", cfg.Daemon.Address)
			fmt.Printf("  PID File:         %s\n", cfg.Daemon.PIDFile)
			fmt.Printf("  Auto-save:        %s\n", cfg.Daemon.AutoSaveInterval)

			fmt.Println("\nLogging:")
			fmt.Printf("  Level:            %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:           %s\n", cfg.Logging.Format)
			fmt.Printf("  Output:           %s\n", cfg.Logging.Output)

			return nil
		},
	}

	return cmd
}

// newConfigSetProjectCommand creates the config set-project subcommand
func newConfigSetProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-project <name>",
		Short: "Set default project",
		Long: `Set the default project to use for commands.

The default project will be used when --project is not specified.
The project must already exist in the store.

Example:
  beltplan config set-project base`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}

			// Verify the project exists in the store
			_, db, repo, err := openStore()
			if err != nil {
				return err
			}
			defer database.Close(db)

			if _, err := repo.FindByName(context.Background(), name); err != nil {
				return err
			}

			if err := userConfigHandler.SetDefaultProject(name); err != nil {
				return fmt.Errorf("failed to set default project: %w", err)
			}

			fmt.Println("✓ Default project set successfully")
			fmt.Printf("  Project: %s\n", name)
			fmt.Printf("\nCommands will now use this project by default.\n")
			fmt.Printf("Override with the --project flag.\n")

			return nil
		},
	}

	return cmd
}

// newConfigSetDataCommand creates the config set-data subcommand
func newConfigSetDataCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-data <path>",
		Short: "Set default game definition",
		Long: `Set the default game definition file to load.

The path is used when --data is not specified.

Example:
  beltplan config set-data data/game.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("game definition not readable: %w", err)
			}

			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}

			if err := userConfigHandler.SetDefaultData(path); err != nil {
				return fmt.Errorf("failed to set default data path: %w", err)
			}

			fmt.Println("✓ Default game definition set successfully")
			fmt.Printf("  Path: %s\n", path)

			return nil
		},
	}

	return cmd
}

// newConfigClearCommand creates the config clear subcommand
func newConfigClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear stored preferences",
		Long: `Remove the default project and game definition settings.

After clearing, you must explicitly pass --project and --data.

Example:
  beltplan config clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}

			if err := userConfigHandler.ClearDefaults(); err != nil {
				return fmt.Errorf("failed to clear preferences: %w", err)
			}

			fmt.Println("✓ Preferences cleared")
			fmt.Println("\nYou must now specify --project and --data explicitly.")

			return nil
		},
	}

	return cmd
}
