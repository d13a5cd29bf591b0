package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var ConfigFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "radiocast",
	Short: "A HTTP proxy that re-exposes an HLS radio stream",
	Long: `radiocast proxies a segmented HLS radio stream and re-exposes it both as a
rewritten HLS playlist and as a continuous Icecast-compatible stream with
inline metadata for legacy clients.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {

	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "config file (optional, environment variables override it)")
}
