package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the drivetools application
var rootCmd = &cobra.Command{
	Use:   "drivetools",
	Short: "Search, read and manage Google Drive files from the shell or an AI assistant",
	Long: `drivetools gives command-line and AI-assistant access to a single Google
Drive account.

It can run as:
  - A CLI for one-off Drive operations (drivetools drive ...)
  - An MCP (Model Context Protocol) server for AI assistants (drivetools serve)

Run 'drivetools auth login' once to authorize access.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// Global flags shared by every command.
var (
	configPath string
	logLevel   string
	logFormat  string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "drivetools version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/drivetools/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error. Can also use DRIVETOOLS_LOG_LEVEL env var.")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json. Can also use DRIVETOOLS_LOG_FORMAT env var.")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newDriveCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
