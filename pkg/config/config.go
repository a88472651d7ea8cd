// Package config provides configuration management for the top2000-to-spotify
// application.
//
// Configuration is loaded from environment variables and .env files using
// github.com/caarlos0/env for parsing and github.com/joho/godotenv for .env
// loading, with path traversal protection on the .env lookup.
//
// Lookup order: environment variables first, then a .env file in the working
// directory, then the envDefault tags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the main application configuration with nested service
// configurations.
type Config struct {
	Spotify SpotifyConfig `envPrefix:"SPOTIFY_"`
	NPO     NPOConfig     `envPrefix:"NPO_"`
	Server  ServerConfig  `envPrefix:"SERVER_"`
}

// SpotifyConfig holds the Spotify API credentials and playlist settings.
type SpotifyConfig struct {
	// ClientID identifies the registered Spotify application.
	ClientID string `env:"CLIENT_ID"`

	// ClientSecret is the matching application secret.
	ClientSecret string `env:"CLIENT_SECRET"` // #nosec G117 -- OAuth client secret, expected in config

	// RedirectURL is where Spotify sends the OAuth callback.
	RedirectURL string `env:"REDIRECT_URI" envDefault:"http://127.0.0.1:8080/callback"`

	// PlaylistName is the playlist a sync targets when no name or id is given
	// on the command line. Empty means a yearly default is generated at run
	// time ("NPO Radio 2 Top 2000 - YYYY").
	PlaylistName string `env:"PLAYLIST_NAME"`

	// TokenFilePath is the path where the Spotify authentication token is
	// stored between runs.
	TokenFilePath string `env:"TOKEN_FILE_PATH" envDefault:"~/.config/top2000-to-spotify/spotify_token.json"`
}

// NPOConfig represents the configuration for fetching submission data from
// NPO.
type NPOConfig struct {
	// APIBase is the base URL of the NPO voting API for the current edition.
	// Submission lookups append "/inzending/<id>".
	APIBase string `env:"API_BASE" envDefault:"https://npo.nl/api/stem/npo-radio-2-top-2000-2025"`

	// RelayURL is an optional CORS-relay prefix for the submission-page
	// fetch; the target URL is appended query-escaped. Empty means fetch
	// directly.
	RelayURL string `env:"RELAY_URL"`

	// HTTPTimeout bounds submission fetches, in seconds.
	HTTPTimeout int `env:"HTTP_TIMEOUT" envDefault:"30"`
}

// ServerConfig represents the OAuth callback server configuration.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"8080"`
}

// GetEnvVars loads and returns the application configuration from environment
// variables and a .env file in the current working directory.
//
// The .env path is validated against directory traversal before loading. The
// function terminates the program when configuration cannot be loaded or
// fails validation.
func GetEnvVars() Config {
	if err := loadDotenv(); err != nil {
		fmt.Printf("Error loading .env file: %s\n", err)
		os.Exit(1)
	}

	var conf Config
	if err := env.Parse(&conf); err != nil {
		fmt.Printf("Error parsing configuration from environment: %s\n", err)
		os.Exit(1)
	}

	if err := validateConfig(&conf); err != nil {
		fmt.Printf("Configuration validation error: %s\n", err)
		fmt.Println("Please check your configuration and try again.")
		os.Exit(1)
	}

	return conf
}

// loadDotenv reads an optional .env file from the working directory. The
// resolved path must stay inside the working directory.
func loadDotenv() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining working directory: %w", err)
	}

	envPath, err := filepath.Abs(filepath.Join(cwd, ".env"))
	if err != nil {
		return fmt.Errorf("resolving .env path: %w", err)
	}
	rel, err := filepath.Rel(cwd, envPath)
	if err != nil || strings.Contains(rel, "..") {
		return fmt.Errorf(".env path escapes the working directory")
	}

	if _, err := os.Stat(envPath); err != nil {
		return nil
	}
	return godotenv.Load(envPath)
}

// Address returns the callback server address.
func (s ServerConfig) Address() string {
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetTokenFilePath returns the resolved token file path, handling tilde
// expansion and ensuring the directory exists.
func (s SpotifyConfig) GetTokenFilePath() (string, error) {
	path := s.TokenFilePath
	if after, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home directory: %w", err)
		}
		path = filepath.Join(home, after)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving token file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0700); err != nil {
		return "", fmt.Errorf("creating token directory: %w", err)
	}
	return abs, nil
}

// validateConfig validates the configuration.
func validateConfig(conf *Config) error {
	var errs []string

	if conf.Server.Port < 1 || conf.Server.Port > 65535 {
		errs = append(errs, "server port must be between 1 and 65535")
	}

	// Spotify credentials are warned about rather than fatal so the extract
	// command keeps working without them.
	if conf.Spotify.ClientID == "" {
		fmt.Println("Warning: SPOTIFY_CLIENT_ID is not set. The application will not be able to connect to Spotify.")
		fmt.Println("Please set your Spotify credentials to use the sync command.")
	}
	if conf.Spotify.ClientSecret == "" {
		fmt.Println("Warning: SPOTIFY_CLIENT_SECRET is not set. The application will not be able to connect to Spotify.")
	}

	if conf.NPO.APIBase == "" {
		errs = append(errs, ErrMissingNPOAPIBase.Error())
	}
	if conf.NPO.HTTPTimeout <= 0 {
		errs = append(errs, "NPO HTTP timeout must be greater than 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
