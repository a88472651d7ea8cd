package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"

	"github.com/HiddeS03/top2000-to-spotify/internal/types"
)

const (
	// playlistPageSize is the number of playlists fetched per page when
	// listing a user's playlists.
	playlistPageSize = 50
	// trackPageSize is the number of items fetched per page when listing
	// a playlist's tracks.
	trackPageSize = 100
	// chunkSize is the maximum number of tracks accepted by a single
	// add-tracks call.
	chunkSize = 100
	// maxPages caps pagination loops so a misbehaving remote cannot spin
	// us forever.
	maxPages = 40

	trackURIPrefix = "spotify:track:"
)

// CurrentUserID returns the ID of the authenticated user.
func (c *Client) CurrentUserID(ctx context.Context) (string, error) {
	if !c.IsAuthenticated() {
		return "", fmt.Errorf("%w: user authentication required", types.ErrUnauthorized)
	}

	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return "", classify(err)
	}

	return user.ID, nil
}

// SearchTrack searches the catalog for the best match of a title and artist.
// It returns nil when the catalog has no match at all.
func (c *Client) SearchTrack(ctx context.Context, title, artist string) (*types.CatalogTrack, error) {
	if !c.IsAuthenticated() {
		return nil, fmt.Errorf("%w: user authentication required", types.ErrUnauthorized)
	}

	query := fmt.Sprintf("%s %s", title, artist)

	c.logger.WithFields(logrus.Fields{
		"component": "spotify",
		"operation": "search_track",
		"query":     query,
	}).Debug("Searching for track")

	results, err := c.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return nil, classify(err)
	}

	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return nil, nil
	}

	track := results.Tracks.Tracks[0]
	return &types.CatalogTrack{
		URI:    string(track.URI),
		Name:   track.Name,
		Artist: joinArtists(track.Artists),
	}, nil
}

// ListUserPlaylists returns all playlists owned by or followed by the user,
// paging through the remote collection. A pagination failure returns the
// playlists collected so far along with the error.
func (c *Client) ListUserPlaylists(ctx context.Context, userID string) ([]types.Playlist, error) {
	if !c.IsAuthenticated() {
		return nil, fmt.Errorf("%w: user authentication required", types.ErrUnauthorized)
	}

	var playlists []types.Playlist
	offset := 0

	for page := 0; page < maxPages; page++ {
		result, err := c.client.GetPlaylistsForUser(ctx, userID,
			spotify.Limit(playlistPageSize), spotify.Offset(offset))
		if err != nil {
			return playlists, classify(err)
		}

		for _, p := range result.Playlists {
			playlists = append(playlists, types.Playlist{
				ID:          string(p.ID),
				Name:        p.Name,
				ExternalURL: p.ExternalURLs["spotify"],
				TrackCount:  int(p.Tracks.Total),
			})
		}

		if len(result.Playlists) < playlistPageSize {
			break
		}
		offset += playlistPageSize
	}

	c.logger.WithFields(logrus.Fields{
		"component":      "spotify",
		"operation":      "list_user_playlists",
		"playlist_count": len(playlists),
	}).Debug("Listed user playlists")

	return playlists, nil
}

// FindPlaylistByName looks for a playlist with an exact name match among the
// user's playlists. It returns nil when no playlist carries that name. A hit
// in a partial listing still counts, so a mid-pagination failure only
// surfaces when the name was not seen.
func (c *Client) FindPlaylistByName(ctx context.Context, userID, name string) (*types.Playlist, error) {
	playlists, err := c.ListUserPlaylists(ctx, userID)

	for i := range playlists {
		if playlists[i].Name == name {
			return &playlists[i], nil
		}
	}

	return nil, err
}

// GetPlaylist fetches a single playlist by ID.
func (c *Client) GetPlaylist(ctx context.Context, playlistID string) (*types.Playlist, error) {
	if !c.IsAuthenticated() {
		return nil, fmt.Errorf("%w: user authentication required", types.ErrUnauthorized)
	}

	playlist, err := c.client.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, classify(err)
	}

	return &types.Playlist{
		ID:          string(playlist.ID),
		Name:        playlist.Name,
		ExternalURL: playlist.ExternalURLs["spotify"],
		TrackCount:  int(playlist.Tracks.Total),
	}, nil
}

// ListPlaylistTrackURIs returns the set of track URIs already on a playlist.
// A pagination failure returns the URIs collected so far along with the error.
func (c *Client) ListPlaylistTrackURIs(ctx context.Context, playlistID string) (map[string]bool, error) {
	if !c.IsAuthenticated() {
		return nil, fmt.Errorf("%w: user authentication required", types.ErrUnauthorized)
	}

	uris := make(map[string]bool)
	offset := 0

	for page := 0; page < maxPages; page++ {
		result, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
			spotify.Limit(trackPageSize), spotify.Offset(offset))
		if err != nil {
			return uris, classify(err)
		}

		for _, item := range result.Items {
			if item.Track.Track == nil {
				continue
			}
			uris[string(item.Track.Track.URI)] = true
		}

		if len(result.Items) < trackPageSize {
			break
		}
		offset += trackPageSize
	}

	c.logger.WithFields(logrus.Fields{
		"component":   "spotify",
		"operation":   "list_playlist_tracks",
		"playlist_id": playlistID,
		"track_count": len(uris),
	}).Debug("Listed playlist tracks")

	return uris, nil
}

// CreatePlaylist creates a new playlist for the user.
func (c *Client) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*types.Playlist, error) {
	if !c.IsAuthenticated() {
		return nil, fmt.Errorf("%w: user authentication required", types.ErrUnauthorized)
	}

	c.logger.WithFields(logrus.Fields{
		"component":     "spotify",
		"operation":     "create_playlist",
		"playlist_name": name,
		"public":        public,
	}).Info("Creating playlist")

	playlist, err := c.client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, classify(err)
	}

	return &types.Playlist{
		ID:          string(playlist.ID),
		Name:        playlist.Name,
		ExternalURL: playlist.ExternalURLs["spotify"],
		TrackCount:  0,
	}, nil
}

// AppendTracks adds track URIs to a playlist in chunks, preserving order.
// It returns the number of tracks confirmed written; a mid-chunk failure
// returns the count written so far along with the error.
func (c *Client) AppendTracks(ctx context.Context, playlistID string, uris []string) (int, error) {
	if !c.IsAuthenticated() {
		return 0, fmt.Errorf("%w: user authentication required", types.ErrUnauthorized)
	}

	written := 0
	for start := 0; start < len(uris); start += chunkSize {
		end := start + chunkSize
		if end > len(uris) {
			end = len(uris)
		}

		chunk := make([]spotify.ID, 0, end-start)
		for _, uri := range uris[start:end] {
			chunk = append(chunk, spotify.ID(strings.TrimPrefix(uri, trackURIPrefix)))
		}

		if _, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), chunk...); err != nil {
			return written, classify(err)
		}
		written += len(chunk)

		c.logger.WithFields(logrus.Fields{
			"component":   "spotify",
			"operation":   "append_tracks",
			"playlist_id": playlistID,
			"written":     written,
			"total":       len(uris),
		}).Debug("Added track chunk to playlist")
	}

	return written, nil
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}
