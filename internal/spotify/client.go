// Package spotify implements the remote music-catalog client on top of the
// Spotify Web API, including the OAuth authorization-code flow and token
// persistence between runs.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/HiddeS03/top2000-to-spotify/pkg/config"
)

// authState is the OAuth state parameter echoed back on the callback.
const authState = "top2000-to-spotify-auth-state"

// tokenRefreshMargin is how long before expiry a token gets refreshed.
const tokenRefreshMargin = 5 * time.Minute

// Client holds the authenticated Spotify API client together with the
// authenticator and the persisted credential. The zero credential state means
// the user still has to walk through the authorization flow.
type Client struct {
	client     *spotify.Client
	config     config.SpotifyConfig
	logger     *logrus.Logger
	token      *oauth2.Token
	tokenMu    sync.RWMutex
	ctx        context.Context
	auth       *spotifyauth.Authenticator
	isUserAuth bool
	authURL    string
	state      string
	tokenFile  string
}

// persistedToken is the on-disk shape of the stored credential.
type persistedToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

// NewClient builds the Spotify client and, when a usable token is already
// stored on disk, restores the authenticated session so the user does not have
// to re-authorize on every run.
func NewClient(cfg config.SpotifyConfig, logger *logrus.Logger) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, config.ErrMissingSpotifyClientID
	}
	if cfg.ClientSecret == "" {
		return nil, config.ErrMissingSpotifyClientSecret
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("redirect URL is required but not configured")
	}

	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(cfg.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistModifyPublic,
		),
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
	)

	logger.WithFields(logrus.Fields{
		"client_id":    cfg.ClientID,
		"redirect_url": cfg.RedirectURL,
	}).Debug("Spotify authenticator configured")

	tokenFile, err := cfg.GetTokenFilePath()
	if err != nil {
		logger.WithError(err).Warn("Token file path unavailable, credential will not persist across runs")
	}

	c := &Client{
		config:    cfg,
		logger:    logger,
		ctx:       context.Background(),
		auth:      auth,
		authURL:   auth.AuthURL(authState),
		state:     authState,
		tokenFile: tokenFile,
	}

	if c.loadToken() {
		logger.WithField("token_file", tokenFile).Info("Restored stored Spotify token")
		if c.validateStoredToken() {
			logger.Info("Stored token accepted, no authorization needed")
			return c, nil
		}
		logger.Info("Stored token rejected by the API, authorization required")
	}

	logger.Info("Spotify client ready, user authorization required")
	return c, nil
}

// GetAuthURL returns the authorization URL the user must visit.
func (c *Client) GetAuthURL() string {
	return c.authURL
}

// IsAuthenticated reports whether catalog calls can be made.
func (c *Client) IsAuthenticated() bool {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.isUserAuth && c.client != nil
}

// CompleteAuth exchanges the authorization code from the callback for a token,
// verifies it against the API and persists it.
func (c *Client) CompleteAuth(code, state string) error {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if state != c.state {
		return fmt.Errorf("invalid state parameter")
	}

	token, err := c.auth.Exchange(c.ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	c.bindToken(token)

	user, err := c.client.CurrentUser(c.ctx)
	if err != nil {
		return fmt.Errorf("verifying new credential: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"user_id":           user.ID,
		"user_display_name": user.DisplayName,
	}).Info("Spotify authorization completed")

	if err := c.saveTokenUnsafe(); err != nil {
		c.logger.WithError(err).Warn("Could not persist token, authorization needed again next run")
	} else {
		c.logger.WithField("token_file", c.tokenFile).Info("Spotify token persisted")
	}

	return nil
}

// RefreshToken renews the access token when it is within the refresh margin
// of expiring. A no-op while the current token is still fresh.
func (c *Client) RefreshToken() error {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if !c.isUserAuth {
		return fmt.Errorf("user not authenticated")
	}
	if c.token != nil && time.Until(c.token.Expiry) > tokenRefreshMargin {
		return nil
	}

	renewed, err := c.auth.RefreshToken(c.ctx, c.token)
	if err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}

	c.bindToken(renewed)
	c.logger.Info("Spotify access token refreshed")

	if err := c.saveTokenUnsafe(); err != nil {
		c.logger.WithError(err).Warn("Could not persist refreshed token")
	}
	return nil
}

// ClearToken drops the in-memory credential and removes the persisted token
// file, forcing a fresh authorization on next use.
func (c *Client) ClearToken() error {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	c.token = nil
	c.client = nil
	c.isUserAuth = false

	if c.tokenFile == "" {
		return nil
	}
	if err := os.Remove(c.tokenFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token file: %w", err)
	}

	c.logger.WithField("token_file", c.tokenFile).Info("Cleared stored Spotify credential")
	return nil
}

// bindToken installs a token and rebuilds the API client around it. Caller
// must hold tokenMu.
func (c *Client) bindToken(token *oauth2.Token) {
	c.token = token
	c.client = spotify.New(c.auth.Client(c.ctx, token))
	c.isUserAuth = true
}

// loadToken reads a previously persisted token from disk. Returns false when
// there is nothing usable, which simply routes the user into the
// authorization flow.
func (c *Client) loadToken() bool {
	if c.tokenFile == "" {
		return false
	}

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	raw, err := os.ReadFile(c.tokenFile)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.WithError(err).Debug("Token file unreadable")
		}
		return false
	}

	var stored persistedToken
	if err := json.Unmarshal(raw, &stored); err != nil {
		c.logger.WithError(err).Debug("Token file contents not parseable")
		return false
	}

	c.token = &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}
	return true
}

// saveTokenUnsafe persists the current token. Caller must hold tokenMu. The
// write goes through a temp file and a rename so a crash mid-write never
// leaves a truncated token behind.
func (c *Client) saveTokenUnsafe() error {
	if c.tokenFile == "" || c.token == nil {
		return nil
	}

	raw, err := json.MarshalIndent(persistedToken{
		AccessToken:  c.token.AccessToken,
		RefreshToken: c.token.RefreshToken,
		TokenType:    c.token.TokenType,
		Expiry:       c.token.Expiry,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	tmp := c.tokenFile + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmp, c.tokenFile); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing token file: %w", err)
	}
	return nil
}

// validateStoredToken probes the API with the restored token and, when the
// probe succeeds, promotes it to the active credential.
func (c *Client) validateStoredToken() bool {
	if c.token == nil {
		return false
	}

	probe := spotify.New(c.auth.Client(c.ctx, c.token))
	if _, err := probe.CurrentUser(c.ctx); err != nil {
		c.logger.WithError(err).Debug("Stored token failed validation probe")
		return false
	}

	c.client = probe
	c.isUserAuth = true
	return true
}
