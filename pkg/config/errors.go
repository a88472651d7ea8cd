// Package config provides error definitions for configuration-related errors.
package config

import "errors"

// Sentinel errors for required configuration values.
var (
	// ErrMissingSpotifyClientID signals an unset Spotify client ID.
	ErrMissingSpotifyClientID = errors.New("spotify client ID is required")

	// ErrMissingSpotifyClientSecret signals an unset Spotify client secret.
	ErrMissingSpotifyClientSecret = errors.New("spotify client secret is required")

	// ErrMissingNPOAPIBase signals an unset NPO API base URL.
	ErrMissingNPOAPIBase = errors.New("NPO API base URL is required")
)
