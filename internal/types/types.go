package types

import (
	"context"
	"fmt"
	"time"
)

// RemoteCatalog defines the music-catalog operations used during reconciliation.
// All methods require a previously authenticated client; they fail with
// ErrUnauthorized once the credential expires.
type RemoteCatalog interface {
	CurrentUserID(ctx context.Context) (string, error)
	SearchTrack(ctx context.Context, title, artist string) (*CatalogTrack, error)
	ListUserPlaylists(ctx context.Context, userID string) ([]Playlist, error)
	FindPlaylistByName(ctx context.Context, userID, name string) (*Playlist, error)
	GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error)
	ListPlaylistTrackURIs(ctx context.Context, playlistID string) (map[string]bool, error)
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*Playlist, error)
	AppendTracks(ctx context.Context, playlistID string, uris []string) (int, error)
}

// SubmissionLoader defines the interface for loading a Top 2000 voting
// submission into a track list.
type SubmissionLoader interface {
	LoadSubmission(ctx context.Context, link string) (*TrackList, error)
}

// Core data models

// TrackRecord represents one voted song recovered from a submission page.
// Artist and Title are the source of truth from extraction and are never
// re-derived; ResolvedURI and Added are annotations assigned during
// reconciliation.
type TrackRecord struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`

	// ResolvedURI is the catalog track URI found for this record. Empty means
	// the record has not been resolved, or was not found in the catalog.
	ResolvedURI string `json:"resolved_uri,omitempty"`

	// Added is true once the track is confirmed present in the target
	// playlist, whether newly added or pre-existing. A record marked Added is
	// never re-submitted by a later reconciliation run.
	Added bool `json:"added"`
}

// IsValid checks if the record has the minimum required fields.
func (r *TrackRecord) IsValid() bool {
	return r.Artist != "" && r.Title != ""
}

// String returns a string representation of the record.
func (r *TrackRecord) String() string {
	return fmt.Sprintf("%s - %s", r.Artist, r.Title)
}

// TrackList represents the songs extracted from one submission fetch.
type TrackList struct {
	Records   []TrackRecord `json:"records"`
	FetchedAt time.Time     `json:"fetched_at"`
	Source    string        `json:"source"`
}

// Add appends a record to the list.
func (tl *TrackList) Add(record TrackRecord) {
	tl.Records = append(tl.Records, record)
}

// CatalogTrack represents the top search hit for a record. Name and Artist are
// carried along so the match confidence against the extracted record can be
// reported.
type CatalogTrack struct {
	URI    string `json:"uri"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// Playlist represents a Spotify playlist.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ExternalURL string `json:"external_url"`
	TrackCount  int    `json:"track_count"`
}

// Target selects the playlist a reconciliation run writes to. Exactly one of
// Name or ID is set: Name means find-by-exact-name or create, ID means use the
// existing playlist as-is.
type Target struct {
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

// CreateNamed returns a target that reuses a playlist with the exact given
// name, creating it when absent.
func CreateNamed(name string) Target {
	return Target{Name: name}
}

// UseExisting returns a target that writes to the playlist with the given id.
func UseExisting(id string) Target {
	return Target{ID: id}
}

// Summary reports the outcome of a reconciliation run.
type Summary struct {
	// Added is the number of tracks confirmed written to the playlist. It can
	// be lower than the number of tracks queued when a write chunk fails.
	Added int `json:"added"`

	// Skipped counts resolved tracks that were already in the playlist at the
	// start of the run.
	Skipped int `json:"skipped"`

	// NotFound counts records for which no catalog track was found.
	NotFound int `json:"not_found"`

	PlaylistName string `json:"playlist_name"`
	PlaylistURL  string `json:"playlist_url"`
}

// String returns a one-line human-readable summary.
func (s *Summary) String() string {
	return fmt.Sprintf("added=%d skipped=%d not_found=%d playlist=%q",
		s.Added, s.Skipped, s.NotFound, s.PlaylistName)
}
