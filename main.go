// Package main provides the entry point for the top2000-to-spotify application.
//
// The application converts an NPO Radio 2 Top 2000 voting-submission page into
// a Spotify playlist: it extracts the voted songs from the submission link and
// reconciles them against a target playlist, skipping tracks that are already
// present.
package main

import cmd "github.com/HiddeS03/top2000-to-spotify/cmd/top2000tospotify"

// main delegates execution to the cmd package which handles all
// command-line interface functionality.
func main() {
	cmd.Execute()
}
