package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/corridas/rankrelay/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"                  _                 _\n" +
		"  _ __ __ _ _ __ | | ___ __ ___| | __ _ _   _\n" +
		" | '__/ _` | '_ \\| |/ / '__/ _ \\ |/ _` | | | |\n" +
		" | | | (_| | | | |   <| | |  __/ | (_| | |_| |\n" +
		" |_|  \\__,_|_| |_|_|\\_\\_|  \\___|_|\\__,_|\\__, |\n" +
		"                                        |___/\n"
)

var rootCmd = &cobra.Command{
	Use:   "rankrelay",
	Short: "Rank Relay - WhatsApp bridge for running rankings",
	Long:  color.CyanString(logo) + "\nRelays ranking commands from a WhatsApp group to the ranking service.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(sendCmd)
}
