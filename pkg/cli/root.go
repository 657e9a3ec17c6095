package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "unknown"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configFile string
	jsonOutput bool
}

// NewRootCmd builds the command tree. Each call returns an independent tree
// with its own flag state.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "bankmock",
		Short: "bankmock serves a mock of open banking REST APIs",
		Long: `bankmock serves account, payment, consent, document, VRP, transaction,
medical-insured and product-agreement APIs backed by SQLite.

Configuration is layered: built-in defaults, then a YAML or JSON file
(--config or BANKMOCK_CONFIG), then BANKMOCK_* environment variables,
then command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true, // We handle errors in Execute()
	}

	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "Path to a YAML or JSON configuration file")
	root.PersistentFlags().BoolVar(&g.jsonOutput, "json", false, "Output command results in JSON format")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "", "Log format (text, json)")
	root.PersistentFlags().String("log-file", "", "Also write JSON logs to this file")
	root.PersistentFlags().String("db", "", "SQLite database path (:memory: for a throwaway database)")

	root.AddCommand(
		newServeCmd(g),
		newMigrateCmd(g),
		newSeedCmd(g),
		newDocsCmd(g),
		newVersionCmd(g),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
