// =============================================================================
// Receivables Reconciler - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reconciler)
//   ├── reconcileCmd (reconciler reconcile)
//   ├── validateCmd  (reconciler validate)
//   └── versionCmd   (reconciler version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading and validating the main configuration
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/cobranzas/receivables-reconciler/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// mainConfig and logger are set up before any subcommand runs.
var (
	mainConfig *config.MainConfig
	logger     *logrus.Logger
	logCloser  io.Closer
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Receivables reconciler - build the collections ledger from ERP exports",
	Long: `Receivables reconciler joins the open-invoice export, the collections
export and the client master into one ledger: withholdings resolved against
deposits, real balances, aging status and client contact data.

Example Usage:
  reconciler reconcile                          # Discover the three exports in input_dir
  reconciler reconcile --today 2024-03-15       # Age against a fixed cut-off date
  reconciler reconcile --invoices cartera.xlsx  # Use an explicit invoice file
  reconciler validate                           # Check the exports without reconciling`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return initConfig(cmd)
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// initConfig loads the configuration and builds the logger. A missing
// config.yaml is fine when --config was not given; defaults apply.
func initConfig(cmd *cobra.Command) error {
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.LoadMainConfig(cfgFile, allowMissing)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	log, closer, err := config.NewLogger(cfg, verbose)
	if err != nil {
		return err
	}

	mainConfig = cfg
	logger = log
	logCloser = closer

	logger.WithFields(logrus.Fields{
		"config":   cfgFile,
		"input":    cfg.InputDir,
		"output":   cfg.OutputDir,
		"key_mode": cfg.Rules.KeyMode,
	}).Debug("configuration loaded")

	return nil
}
