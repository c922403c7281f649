// =============================================================================
// Ledger Consolidation - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (consolidator)
//   ├── editCmd    (consolidator edit)
//   ├── submitCmd  (consolidator submit FILE)
//   ├── reportCmd  (consolidator report LEDGER_CODE)
//   └── versionCmd (consolidator version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the configuration (file, then CONSOLIDATOR_* environment)
//   2. Sets up logging
//   3. Creates the backend client
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ledger-consolidation/internal/api"
	"github.com/ginjaninja78/ledger-consolidation/internal/config"
	"github.com/ginjaninja78/ledger-consolidation/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// Set up by the root command before a subcommand runs.
var (
	appConfig *config.MainConfig
	logger    *logrus.Logger
	client    *api.Client
	closeLog  func() error
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "consolidator",
	Short: "Ledger Consolidation - Link ledgers to their sub and main groups",

	Long: `Ledger Consolidation maintains the links between accounting ledgers and
the sub groups and main groups they roll up into.

Key Features:
  - Interactive form with searchable ledger and group pickers
  - Batch submission from XLSX, CSV or YAML files
  - Validation before anything is written to the server
  - Per-row results with the server's own error messages
  - Consolidated report of a single ledger

Example Usage:
  consolidator edit                        # Open the interactive form
  consolidator submit links.xlsx           # Submit a batch file
  consolidator submit links.csv --dry-run  # Validate a batch without writing
  consolidator report L100                 # Show the consolidated view of L100`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return setup(cmd.Flags().Changed("config"), cmd.Name() == "edit")
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLog != nil {
			return closeLog()
		}
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// setup loads the configuration, the logger and the backend client.
//
// PARAMETERS:
//   - explicitConfig: Whether --config was given. A named file must exist.
//   - interactive: Whether the terminal belongs to the interactive form.
func setup(explicitConfig, interactive bool) error {
	cfg, err := config.LoadMainConfig(cfgFile, explicitConfig)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log, closer, err := logging.New(cfg.Log, interactive)
	if err != nil {
		return err
	}

	c, err := api.New(cfg.API.BaseURL,
		api.WithToken(cfg.API.Token),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(log),
	)
	if err != nil {
		closer.Close()
		return err
	}

	appConfig, logger, client, closeLog = cfg, log, c, closer.Close
	logger.WithFields(logrus.Fields{
		"config":   cfgFile,
		"base_url": cfg.API.BaseURL,
		"policy":   cfg.Validation.Policy,
	}).Debug("configuration loaded")
	return nil
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if _, quiet := err.(exitError); !quiet {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// exitError fails the command after its output already explained why.
type exitError struct{ msg string }

func (e exitError) Error() string { return e.msg }

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}
