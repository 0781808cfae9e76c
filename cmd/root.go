package cmd

import (
	"errors"
	"os"

	"backlog-mcp/internal/config"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfig indicates the configuration failed validation.
	ExitCodeConfig = 2
)

// rootCmd represents the base command for the backlog-mcp application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "backlog-mcp",
	Short: "Backlog MCP server and stdio-to-HTTP gateway",
	Long: `backlog-mcp exposes the Backlog API (issues, wikis, pull requests) as
Model Context Protocol tools, and ships a gateway that serves any stdio MCP
server over stateless streamable HTTP by spawning one worker per request.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "backlog-mcp version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		return ExitCodeConfig
	}

	var verr config.ValidationError
	if errors.As(err, &verr) {
		return ExitCodeConfig
	}

	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGatewayCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newCheckCmd())
}
