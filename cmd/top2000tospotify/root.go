// Package cmd provides command-line interface functionality for the
// top2000tospotify application.
//
// Built on cobra, it wires up the root command, loads configuration and
// logging during pre-run, and registers the sync, extract, man and version
// subcommands.
//
// The sync path ties together the other components: submission fetching from
// internal/npo, the Spotify client from internal/spotify, and playlist
// reconciliation from internal/reconcile.
//
// Example usage:
//
//	import "github.com/HiddeS03/top2000-to-spotify/cmd/top2000tospotify"
//
//	func main() {
//		cmd.Execute()
//	}
package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HiddeS03/top2000-to-spotify/pkg/config"
	"github.com/HiddeS03/top2000-to-spotify/pkg/man"
	"github.com/HiddeS03/top2000-to-spotify/pkg/version"
)

var (
	// conf is populated from the environment in the persistent pre-run and
	// shared by all subcommands.
	conf config.Config
	// debug switches logrus to debug-level output when set via --debug.
	debug bool
)

// rootCmd is the base command of the top2000tospotify CLI. All subcommands
// hang off it and inherit its persistent flags and pre-run.
var rootCmd = &cobra.Command{
	Use:              "top2000tospotify",
	Short:            "Turn your NPO Radio 2 Top 2000 votes into a Spotify playlist",
	Long:             `top2000tospotify is a command-line application that reads the songs from an NPO Radio 2 Top 2000 voting-submission page and adds them to a Spotify playlist. It recovers the song list from the page's embedded data, resolves each song against the Spotify catalog, and appends only the songs the playlist does not already contain.`,
	Args:             cobra.ExactArgs(0),
	PersistentPreRun: rootCmdPreRun,
	Run:              rootCmdRun,
}

// rootCmdRun handles a bare invocation by pointing the user at the
// subcommands that do the actual work.
func rootCmdRun(cmd *cobra.Command, args []string) {
	log.Info("Use 'top2000tospotify sync <submission-url>' to sync your votes to Spotify")
	log.Info("Use 'top2000tospotify extract <submission-url>' to list the songs in a submission")
}

// rootCmdPreRun runs before every command. It loads the environment
// configuration and applies the debug flag to the log level.
func rootCmdPreRun(cmd *cobra.Command, args []string) {
	conf = config.GetEnvVars()
	if debug {
		log.SetLevel(log.DebugLevel)
	}
}

// Execute runs the root command and is the entry point called from main.
// A command error is printed and the process exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug-level logging")

	rootCmd.AddCommand(
		newSyncCmd(),
		newExtractCmd(),
		man.NewManCmd(),
		version.Command(),
	)
}
