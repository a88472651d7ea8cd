// Package cmd provides the extract command implementation for top2000tospotify.
package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HiddeS03/top2000-to-spotify/internal/npo"
	"github.com/HiddeS03/top2000-to-spotify/internal/types"
)

// newExtractCmd creates the extract command for listing the songs in a
// voting submission without touching Spotify.
func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <submission-url>",
		Short: "List the songs in a Top 2000 voting submission",
		Long: `Extract and display the songs from an NPO Radio 2 Top 2000
voting-submission page. This command only reads the submission; it does not
require Spotify credentials and does not modify any playlist.`,
		Args: cobra.ExactArgs(1),
		Run:  runExtract,
	}

	return cmd
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, args []string) {
	link := args[0]

	log.WithField("link", link).Info("Extracting songs from voting submission")

	fetcher := npo.NewFetcher(conf.NPO)

	list, err := fetcher.LoadSubmission(context.Background(), link)
	if err != nil {
		log.WithError(err).Fatal("Failed to load voting submission")
		return
	}

	displaySongs(list)
}

// displaySongs prints the extracted song list in a formatted way.
func displaySongs(list *types.TrackList) {
	fmt.Printf("\n🎵 Songs in submission (%d found, via %s):\n\n", len(list.Records), list.Source)

	for i, rec := range list.Records {
		fmt.Printf("%3d. %s\n", i+1, rec.String())
	}
	fmt.Println()

	log.WithFields(log.Fields{
		"song_count": len(list.Records),
		"source":     list.Source,
	}).Info("Extraction completed")
}
