// Package cmd provides the sync command implementation for top2000tospotify.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/HiddeS03/top2000-to-spotify/internal/npo"
	"github.com/HiddeS03/top2000-to-spotify/internal/reconcile"
	"github.com/HiddeS03/top2000-to-spotify/internal/session"
	"github.com/HiddeS03/top2000-to-spotify/internal/spotify"
	"github.com/HiddeS03/top2000-to-spotify/internal/types"
)

// newSyncCmd creates the sync command for turning a voting submission into a
// Spotify playlist.
func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <submission-url>",
		Short: "Sync a Top 2000 voting submission to a Spotify playlist",
		Long: `Sync the songs from an NPO Radio 2 Top 2000 voting-submission page to a
Spotify playlist. The songs are recovered from the submission page, resolved
against the Spotify catalog, and appended to the playlist. Songs the playlist
already contains are skipped, so running the command twice is safe.`,
		Args: cobra.ExactArgs(1),
		Run:  runSync,
	}

	cmd.Flags().StringP("playlist-name", "n", "", "Name of the target playlist (created if it does not exist)")
	cmd.Flags().StringP("playlist-id", "p", "", "ID of an existing target playlist (overrides --playlist-name)")
	cmd.Flags().IntSliceP("indices", "i", nil, "Only sync the songs at these zero-based positions")

	return cmd
}

// runSync executes the sync command.
func runSync(cmd *cobra.Command, args []string) {
	link := args[0]
	playlistName, _ := cmd.Flags().GetString("playlist-name")
	playlistID, _ := cmd.Flags().GetString("playlist-id")
	indices, _ := cmd.Flags().GetIntSlice("indices")

	log.WithField("link", link).Info("Starting Top 2000 to Spotify sync operation")

	sess, spotifyClient, err := initializeSession()
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize services")
		return
	}

	// Check if Spotify is authenticated, if not, start auth flow
	if !spotifyClient.IsAuthenticated() {
		log.Info("Spotify authentication required. Starting authentication flow...")

		if err := authenticateSpotify(spotifyClient); err != nil {
			log.WithError(err).Fatal("Failed to authenticate with Spotify")
			return
		}

		log.Info("Spotify authentication completed successfully")
	}

	ctx := context.Background()

	list, err := sess.Load(ctx, link)
	if err != nil {
		log.WithError(err).Fatal("Failed to load voting submission")
		return
	}

	fmt.Printf("🎵 Found %d songs in submission:\n", len(list.Records))
	for i, rec := range list.Records {
		fmt.Printf("%3d. %s\n", i+1, rec.String())
	}
	fmt.Println()

	sess.SetTarget(resolveTarget(playlistName, playlistID))
	sess.SetProgress(printProgress)

	var summary *types.Summary
	if len(indices) > 0 {
		summary, err = sess.SyncSubset(ctx, indices)
	} else {
		summary, err = sess.Sync(ctx)
	}
	if err != nil {
		log.WithError(err).Fatal("Sync failed")
		return
	}

	printSummary(summary)
}

// resolveTarget picks the target playlist from the flags and configuration.
// An explicit playlist ID wins; otherwise the name flag, the configured
// default name, and finally a year-stamped fallback are tried in order.
func resolveTarget(playlistName, playlistID string) types.Target {
	if playlistID != "" {
		return types.UseExisting(playlistID)
	}
	if playlistName != "" {
		return types.CreateNamed(playlistName)
	}
	if conf.Spotify.PlaylistName != "" {
		return types.CreateNamed(conf.Spotify.PlaylistName)
	}
	return types.CreateNamed(fmt.Sprintf("NPO Radio 2 Top 2000 - %d", time.Now().Year()))
}

// initializeSession wires the submission fetcher, the Spotify client, and
// the reconciler into a session.
func initializeSession() (*session.Session, *spotify.Client, error) {
	logger := log.StandardLogger()

	fetcher := npo.NewFetcher(conf.NPO)

	spotifyClient, err := spotify.NewClient(conf.Spotify, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Spotify client: %w", err)
	}

	reconciler := reconcile.NewReconciler(spotifyClient, logger)
	sess := session.New(fetcher, reconciler, spotifyClient, logger)

	return sess, spotifyClient, nil
}

// printProgress reports reconciliation progress on the terminal. Resolution
// progress is printed every tenth song to keep the output readable.
func printProgress(stage string, done, total int) {
	switch stage {
	case "resolve":
		if done%10 == 0 || done == total {
			fmt.Printf("   🔎 Resolved %d/%d songs\n", done, total)
		}
	case "append":
		fmt.Printf("   ➕ Added %d/%d songs to playlist\n", done, total)
	}
}

// printSummary displays the sync result in a formatted way.
func printSummary(summary *types.Summary) {
	fmt.Printf("\n📊 Sync Summary:\n")
	fmt.Printf("   • Songs added: %d\n", summary.Added)
	fmt.Printf("   • Already in playlist: %d\n", summary.Skipped)
	fmt.Printf("   • Not found on Spotify: %d\n", summary.NotFound)
	fmt.Printf("   • Target playlist: %s\n", summary.PlaylistName)
	if summary.PlaylistURL != "" {
		fmt.Printf("   • Open it here: %s\n", summary.PlaylistURL)
	}
	fmt.Println()

	log.WithFields(log.Fields{
		"added":     summary.Added,
		"skipped":   summary.Skipped,
		"not_found": summary.NotFound,
		"playlist":  summary.PlaylistName,
	}).Info("Sync completed")
}

// authenticateSpotify walks the user through the OAuth flow. It prints the
// authorization URL and serves the callback on a short-lived local server
// until the exchange completes or the five minute wait runs out.
func authenticateSpotify(spotifyClient *spotify.Client) error {
	authURL := spotifyClient.GetAuthURL()

	log.WithField("auth_url", authURL).Info("Please visit this URL to authenticate with Spotify")
	fmt.Printf("\n🔐 Spotify Authentication Required\n")
	fmt.Printf("Please visit this URL to authenticate:\n%s\n\n", authURL)
	fmt.Printf("Waiting for authentication... (Press Ctrl+C to cancel)\n")

	authComplete := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		handleSpotifyCallback(w, r, spotifyClient, authComplete)
	})

	server := &http.Server{
		Addr:              conf.Server.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("address", server.Addr).Info("Serving OAuth callback")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			authComplete <- fmt.Errorf("callback server: %w", err)
		}
	}()

	stopServer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Could not shut down callback server cleanly")
		}
	}

	select {
	case err := <-authComplete:
		stopServer()
		if err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		return nil
	case <-time.After(5 * time.Minute):
		stopServer()
		return fmt.Errorf("authentication timeout after 5 minutes")
	}
}

// handleSpotifyCallback serves the OAuth redirect. The outcome, success or
// failure, is pushed onto authComplete so the waiting sync run can proceed.
func handleSpotifyCallback(w http.ResponseWriter, r *http.Request, spotifyClient *spotify.Client, authComplete chan<- error) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		log.WithField("error", errParam).Error("Spotify authentication error")
		http.Error(w, "Authentication failed: "+errParam, http.StatusBadRequest)
		authComplete <- fmt.Errorf("spotify authentication error: %s", errParam)
		return
	}

	code := query.Get("code")
	if code == "" {
		log.Error("No authorization code received")
		http.Error(w, "No authorization code received", http.StatusBadRequest)
		authComplete <- fmt.Errorf("no authorization code received")
		return
	}

	if err := spotifyClient.CompleteAuth(code, query.Get("state")); err != nil {
		log.WithError(err).Error("Failed to complete Spotify authentication")
		http.Error(w, "Authentication failed", http.StatusInternalServerError)
		authComplete <- fmt.Errorf("completing authentication: %w", err)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)

	successHTML := `<!DOCTYPE html>
<html>
<head>
	<title>Spotify Connected</title>
	<style>
		body { font-family: sans-serif; text-align: center; padding: 3em; }
		h1 { color: #1db954; }
		p { color: #555; }
	</style>
</head>
<body>
	<h1>✅ Spotify connected</h1>
	<p>You can close this window and return to the terminal.</p>
</body>
</html>
`
	if _, err := w.Write([]byte(successHTML)); err != nil {
		log.WithError(err).Warn("Failed to write success response")
	}

	log.Info("Spotify authentication completed via callback")
	authComplete <- nil
}
