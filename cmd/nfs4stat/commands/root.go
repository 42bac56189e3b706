// Package commands implements the nfs4stat CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Flags holds the global flags shared across subcommands.
var Flags struct {
	ConfigPath string
	Server     string
	Export     string
}

var rootCmd = &cobra.Command{
	Use:   "nfs4stat",
	Short: "Mount an NFSv4 export and stat a path",
	Long: `nfs4stat drives the async NFSv4 client core's mount and stat
operations against a real server: it performs the SETCLIENTID handshake,
resolves the export's root file handle, then issues a GETATTR for a path
and prints the decoded stat record.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&Flags.ConfigPath, "config", "", "Path to config file (optional)")
	rootCmd.PersistentFlags().StringVar(&Flags.Server, "server", "", "NFSv4 server address (host:port), overrides config")
	rootCmd.PersistentFlags().StringVar(&Flags.Export, "export", "", "Exported path to mount, overrides config")

	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(versionCmd)
}
