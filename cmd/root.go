package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/quorum/internal/dispatch"
	"github.com/joescharf/quorum/internal/ledger"
	"github.com/joescharf/quorum/internal/output"
	"github.com/joescharf/quorum/internal/panel"
	"github.com/joescharf/quorum/internal/review"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui           *output.UI
	bypassLedger ledger.Ledger
	reviewPanel  panel.Panel

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "quorum",
	Short: "Consensus code review - aggregate findings from a reviewer panel",
	Long: `quorum runs a code change past a panel of specialist reviewers,
deduplicates their findings, and computes a consensus score that maps
to an approve / needs_human / block decision. Blocked changes can be
overridden through an audited 24-hour emergency bypass.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/quorum/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "quorum")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("QUORUM")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "quorum")

	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "quorum.db"))
	viper.SetDefault("panel_file", "")
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("dispatch.timeout_seconds", 120)
	viper.SetDefault("review.max_findings_per_reviewer", 25)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose

	// The ledger opens lazily so config/version/panel commands run
	// without a database.
}

// getPanel loads the configured panel, falling back to the built-in
// default when no panel file is set.
func getPanel() (panel.Panel, error) {
	if reviewPanel != nil {
		return reviewPanel, nil
	}

	p, err := panel.Load(viper.GetString("panel_file"))
	if err != nil {
		return nil, fmt.Errorf("load panel: %w", err)
	}
	reviewPanel = p
	return reviewPanel, nil
}

// getOrchestrator builds the review orchestrator for the configured panel.
func getOrchestrator() (*review.Orchestrator, error) {
	p, err := getPanel()
	if err != nil {
		return nil, err
	}
	return review.NewOrchestrator(p), nil
}

// getRunner builds the dispatch runner for the configured panel.
func getRunner() (*dispatch.Runner, error) {
	p, err := getPanel()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(viper.GetInt("dispatch.timeout_seconds")) * time.Second
	return dispatch.NewRunner(p,
		viper.GetString("anthropic.api_key"),
		viper.GetString("anthropic.model"),
		timeout,
		viper.GetInt("review.max_findings_per_reviewer")), nil
}

// getLedger returns the shared bypass ledger, initializing it on first call.
func getLedger() (ledger.Ledger, error) {
	if bypassLedger != nil {
		return bypassLedger, nil
	}

	dbPath := viper.GetString("db_path")
	l, err := ledger.NewSQLiteLedger(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := l.Migrate(rootCmd.Context()); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	bypassLedger = l
	return bypassLedger, nil
}
