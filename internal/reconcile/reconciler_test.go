package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HiddeS03/top2000-to-spotify/internal/types"
)

// mockCatalog is a hand-rolled RemoteCatalog for reconciler tests.
type mockCatalog struct {
	userID    string
	userErr   error
	playlists []types.Playlist

	searchResults map[string]*types.CatalogTrack
	searchErr     error

	playlistTracks map[string]map[string]bool
	listTracksErr  error

	appendErr       error
	appendErrAfter  int
	appendCalls     [][]string
	createdRequests []string
	listTrackCalls  int
	userIDCalls     int
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		userID:         "testuser",
		searchResults:  make(map[string]*types.CatalogTrack),
		playlistTracks: make(map[string]map[string]bool),
		appendErrAfter: -1,
	}
}

func (m *mockCatalog) CurrentUserID(ctx context.Context) (string, error) {
	m.userIDCalls++
	if m.userErr != nil {
		return "", m.userErr
	}
	return m.userID, nil
}

func (m *mockCatalog) SearchTrack(ctx context.Context, title, artist string) (*types.CatalogTrack, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResults[artist+" - "+title], nil
}

func (m *mockCatalog) ListUserPlaylists(ctx context.Context, userID string) ([]types.Playlist, error) {
	return m.playlists, nil
}

func (m *mockCatalog) FindPlaylistByName(ctx context.Context, userID, name string) (*types.Playlist, error) {
	for i := range m.playlists {
		if m.playlists[i].Name == name {
			return &m.playlists[i], nil
		}
	}
	return nil, nil
}

func (m *mockCatalog) GetPlaylist(ctx context.Context, playlistID string) (*types.Playlist, error) {
	for i := range m.playlists {
		if m.playlists[i].ID == playlistID {
			return &m.playlists[i], nil
		}
	}
	return nil, fmt.Errorf("%w: playlist not found", types.ErrRemoteUnavailable)
}

func (m *mockCatalog) ListPlaylistTrackURIs(ctx context.Context, playlistID string) (map[string]bool, error) {
	m.listTrackCalls++
	if m.listTracksErr != nil {
		return nil, m.listTracksErr
	}
	uris := make(map[string]bool)
	for uri := range m.playlistTracks[playlistID] {
		uris[uri] = true
	}
	return uris, nil
}

func (m *mockCatalog) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*types.Playlist, error) {
	m.createdRequests = append(m.createdRequests, name)
	playlist := types.Playlist{
		ID:          "created-" + name,
		Name:        name,
		ExternalURL: "https://open.spotify.com/playlist/created",
	}
	m.playlists = append(m.playlists, playlist)
	return &playlist, nil
}

func (m *mockCatalog) AppendTracks(ctx context.Context, playlistID string, uris []string) (int, error) {
	m.appendCalls = append(m.appendCalls, append([]string(nil), uris...))
	if m.appendErrAfter >= 0 {
		return m.appendErrAfter, m.appendErr
	}
	if m.appendErr != nil {
		return 0, m.appendErr
	}
	if m.playlistTracks[playlistID] == nil {
		m.playlistTracks[playlistID] = make(map[string]bool)
	}
	for _, uri := range uris {
		m.playlistTracks[playlistID][uri] = true
	}
	return len(uris), nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestReconciler_AddsOnlyMissingTracks(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{
		{ID: "pl1", Name: "My Top 2000", ExternalURL: "https://open.spotify.com/playlist/pl1"},
	}
	catalog.playlistTracks["pl1"] = map[string]bool{"spotify:track:queen": true}
	catalog.searchResults["Queen - Bohemian Rhapsody"] = &types.CatalogTrack{
		URI: "spotify:track:queen", Name: "Bohemian Rhapsody", Artist: "Queen",
	}
	catalog.searchResults["Eagles - Hotel California"] = &types.CatalogTrack{
		URI: "spotify:track:eagles", Name: "Hotel California", Artist: "Eagles",
	}

	records := []types.TrackRecord{
		{Artist: "Queen", Title: "Bohemian Rhapsody"},
		{Artist: "Eagles", Title: "Hotel California"},
	}

	r := NewReconciler(catalog, testLogger())
	summary, err := r.Run(context.Background(), records, types.CreateNamed("My Top 2000"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.NotFound)
	assert.Equal(t, "My Top 2000", summary.PlaylistName)
	assert.Equal(t, "https://open.spotify.com/playlist/pl1", summary.PlaylistURL)

	require.Len(t, catalog.appendCalls, 1)
	assert.Equal(t, []string{"spotify:track:eagles"}, catalog.appendCalls[0])

	assert.True(t, records[0].Added)
	assert.True(t, records[1].Added)
	assert.Equal(t, "spotify:track:queen", records[0].ResolvedURI)
	assert.Equal(t, "spotify:track:eagles", records[1].ResolvedURI)
	assert.Empty(t, catalog.createdRequests)
}

func TestReconciler_SecondRunIsIdempotent(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl1", Name: "My Top 2000"}}
	catalog.searchResults["Queen - Bohemian Rhapsody"] = &types.CatalogTrack{
		URI: "spotify:track:queen", Name: "Bohemian Rhapsody", Artist: "Queen",
	}

	records := []types.TrackRecord{{Artist: "Queen", Title: "Bohemian Rhapsody"}}

	r := NewReconciler(catalog, testLogger())
	ctx := context.Background()

	first, err := r.Run(ctx, records, types.CreateNamed("My Top 2000"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Added)
	assert.Equal(t, 0, first.Skipped)

	second, err := r.Run(ctx, records, types.CreateNamed("My Top 2000"))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 1, second.Skipped)

	// Baseline came from cache on the second run
	assert.Equal(t, 1, catalog.listTrackCalls)
	require.Len(t, catalog.appendCalls, 1)
}

func TestReconciler_CreatesPlaylistWhenMissing(t *testing.T) {
	catalog := newMockCatalog()
	catalog.searchResults["Queen - Bohemian Rhapsody"] = &types.CatalogTrack{
		URI: "spotify:track:queen", Name: "Bohemian Rhapsody", Artist: "Queen",
	}

	records := []types.TrackRecord{{Artist: "Queen", Title: "Bohemian Rhapsody"}}

	r := NewReconciler(catalog, testLogger())
	summary, err := r.Run(context.Background(), records, types.CreateNamed("Brand New Playlist"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Brand New Playlist"}, catalog.createdRequests)
	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, "Brand New Playlist", summary.PlaylistName)
}

func TestReconciler_TargetByIDSkipsUserLookup(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl9", Name: "Existing"}}
	catalog.searchResults["Queen - Bohemian Rhapsody"] = &types.CatalogTrack{
		URI: "spotify:track:queen", Name: "Bohemian Rhapsody", Artist: "Queen",
	}

	records := []types.TrackRecord{{Artist: "Queen", Title: "Bohemian Rhapsody"}}

	r := NewReconciler(catalog, testLogger())
	summary, err := r.Run(context.Background(), records, types.UseExisting("pl9"))
	require.NoError(t, err)

	assert.Equal(t, 0, catalog.userIDCalls)
	assert.Equal(t, "Existing", summary.PlaylistName)
	assert.Equal(t, 1, summary.Added)
}

func TestReconciler_UnresolvedSongsCountAsNotFound(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl1", Name: "My Top 2000"}}
	catalog.searchResults["Queen - Bohemian Rhapsody"] = &types.CatalogTrack{
		URI: "spotify:track:queen", Name: "Bohemian Rhapsody", Artist: "Queen",
	}

	records := []types.TrackRecord{
		{Artist: "Queen", Title: "Bohemian Rhapsody"},
		{Artist: "Nobody", Title: "Unknown Song"},
		{Artist: "", Title: "Missing Artist"},
	}

	r := NewReconciler(catalog, testLogger())
	summary, err := r.Run(context.Background(), records, types.CreateNamed("My Top 2000"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 2, summary.NotFound)
	assert.False(t, records[1].Added)
	assert.Empty(t, records[1].ResolvedURI)
	assert.False(t, records[2].Added)
}

func TestReconciler_SearchFailureDegradesToNotFound(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl1", Name: "My Top 2000"}}
	catalog.searchErr = fmt.Errorf("%w: status 500", types.ErrRemoteUnavailable)

	records := []types.TrackRecord{
		{Artist: "Queen", Title: "Bohemian Rhapsody"},
		{Artist: "Eagles", Title: "Hotel California"},
	}

	r := NewReconciler(catalog, testLogger())
	summary, err := r.Run(context.Background(), records, types.CreateNamed("My Top 2000"))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Added)
	assert.Equal(t, 2, summary.NotFound)
	assert.Empty(t, catalog.appendCalls)
}

func TestReconciler_UnauthorizedSearchAbortsRun(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl1", Name: "My Top 2000"}}
	catalog.searchErr = fmt.Errorf("%w: token expired", types.ErrUnauthorized)

	records := []types.TrackRecord{{Artist: "Queen", Title: "Bohemian Rhapsody"}}

	r := NewReconciler(catalog, testLogger())
	summary, err := r.Run(context.Background(), records, types.CreateNamed("My Top 2000"))

	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Nil(t, summary)
	assert.Empty(t, catalog.appendCalls)
}

func TestReconciler_PartialAppendReturnsPartialSummary(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl1", Name: "My Top 2000"}}
	catalog.searchResults["Queen - Bohemian Rhapsody"] = &types.CatalogTrack{
		URI: "spotify:track:queen", Name: "Bohemian Rhapsody", Artist: "Queen",
	}
	catalog.searchResults["Eagles - Hotel California"] = &types.CatalogTrack{
		URI: "spotify:track:eagles", Name: "Hotel California", Artist: "Eagles",
	}
	catalog.appendErr = fmt.Errorf("%w: status 502", types.ErrRemoteUnavailable)
	catalog.appendErrAfter = 1

	records := []types.TrackRecord{
		{Artist: "Queen", Title: "Bohemian Rhapsody"},
		{Artist: "Eagles", Title: "Hotel California"},
	}

	r := NewReconciler(catalog, testLogger())
	summary, err := r.Run(context.Background(), records, types.CreateNamed("My Top 2000"))
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 1, summary.Added)
}

func TestReconciler_UnauthorizedAppendSurfacesError(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl1", Name: "My Top 2000"}}
	catalog.searchResults["Queen - Bohemian Rhapsody"] = &types.CatalogTrack{
		URI: "spotify:track:queen", Name: "Bohemian Rhapsody", Artist: "Queen",
	}
	catalog.appendErr = fmt.Errorf("%w: token expired", types.ErrUnauthorized)
	catalog.appendErrAfter = 0

	records := []types.TrackRecord{{Artist: "Queen", Title: "Bohemian Rhapsody"}}

	r := NewReconciler(catalog, testLogger())
	summary, err := r.Run(context.Background(), records, types.CreateNamed("My Top 2000"))

	assert.ErrorIs(t, err, types.ErrUnauthorized)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.Added)
}

func TestReconciler_RunSubset(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl1", Name: "My Top 2000"}}
	catalog.searchResults["Eagles - Hotel California"] = &types.CatalogTrack{
		URI: "spotify:track:eagles", Name: "Hotel California", Artist: "Eagles",
	}

	records := []types.TrackRecord{
		{Artist: "Queen", Title: "Bohemian Rhapsody"},
		{Artist: "Eagles", Title: "Hotel California"},
		{Artist: "Golden Earring", Title: "Radar Love"},
	}

	r := NewReconciler(catalog, testLogger())
	summary, err := r.RunSubset(context.Background(), records, []int{1}, types.CreateNamed("My Top 2000"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 0, summary.NotFound)

	// Untouched records keep their zero state
	assert.Empty(t, records[0].ResolvedURI)
	assert.False(t, records[0].Added)
	assert.Empty(t, records[2].ResolvedURI)
}

func TestReconciler_RunSubsetRejectsBadIndices(t *testing.T) {
	r := NewReconciler(newMockCatalog(), testLogger())
	records := []types.TrackRecord{{Artist: "Queen", Title: "Bohemian Rhapsody"}}

	_, err := r.RunSubset(context.Background(), records, []int{5}, types.CreateNamed("My Top 2000"))
	assert.Error(t, err)

	_, err = r.RunSubset(context.Background(), records, []int{-1}, types.CreateNamed("My Top 2000"))
	assert.Error(t, err)
}

func TestReconciler_ProgressCallback(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl1", Name: "My Top 2000"}}
	catalog.searchResults["Queen - Bohemian Rhapsody"] = &types.CatalogTrack{
		URI: "spotify:track:queen", Name: "Bohemian Rhapsody", Artist: "Queen",
	}
	catalog.searchResults["Eagles - Hotel California"] = &types.CatalogTrack{
		URI: "spotify:track:eagles", Name: "Hotel California", Artist: "Eagles",
	}

	records := []types.TrackRecord{
		{Artist: "Queen", Title: "Bohemian Rhapsody"},
		{Artist: "Eagles", Title: "Hotel California"},
	}

	var stages []string
	r := NewReconciler(catalog, testLogger())
	r.SetProgress(func(stage string, done, total int) {
		stages = append(stages, fmt.Sprintf("%s %d/%d", stage, done, total))
	})

	_, err := r.Run(context.Background(), records, types.CreateNamed("My Top 2000"))
	require.NoError(t, err)

	assert.Equal(t, []string{"resolve 1/2", "resolve 2/2", "append 2/2"}, stages)
}

func TestReconciler_ResetForcesBaselineRefetch(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl1", Name: "My Top 2000"}}
	catalog.searchResults["Queen - Bohemian Rhapsody"] = &types.CatalogTrack{
		URI: "spotify:track:queen", Name: "Bohemian Rhapsody", Artist: "Queen",
	}

	records := []types.TrackRecord{{Artist: "Queen", Title: "Bohemian Rhapsody"}}

	r := NewReconciler(catalog, testLogger())
	ctx := context.Background()

	_, err := r.Run(ctx, records, types.CreateNamed("My Top 2000"))
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.listTrackCalls)

	r.Reset()

	_, err = r.Run(ctx, records, types.CreateNamed("My Top 2000"))
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.listTrackCalls)
}

func TestReconciler_PartialBaselineStillUsed(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl1", Name: "My Top 2000"}}
	catalog.listTracksErr = fmt.Errorf("%w: status 502", types.ErrRemoteUnavailable)
	catalog.searchResults["Queen - Bohemian Rhapsody"] = &types.CatalogTrack{
		URI: "spotify:track:queen", Name: "Bohemian Rhapsody", Artist: "Queen",
	}

	records := []types.TrackRecord{{Artist: "Queen", Title: "Bohemian Rhapsody"}}

	r := NewReconciler(catalog, testLogger())
	summary, err := r.Run(context.Background(), records, types.CreateNamed("My Top 2000"))
	require.NoError(t, err)

	// With no baseline information everything looks missing and gets queued
	assert.Equal(t, 1, summary.Added)
}

func TestReconciler_UnauthorizedBaselineAborts(t *testing.T) {
	catalog := newMockCatalog()
	catalog.playlists = []types.Playlist{{ID: "pl1", Name: "My Top 2000"}}
	catalog.listTracksErr = fmt.Errorf("%w: token expired", types.ErrUnauthorized)

	records := []types.TrackRecord{{Artist: "Queen", Title: "Bohemian Rhapsody"}}

	r := NewReconciler(catalog, testLogger())
	summary, err := r.Run(context.Background(), records, types.CreateNamed("My Top 2000"))

	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Nil(t, summary)
}
