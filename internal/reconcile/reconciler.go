// Package reconcile turns a list of extracted song records into playlist
// membership: it resolves each record against the remote catalog, compares
// the results with what the playlist already holds, and appends only the
// missing tracks.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/HiddeS03/top2000-to-spotify/internal/match"
	"github.com/HiddeS03/top2000-to-spotify/internal/types"
)

const playlistDescription = "Songs from my NPO Radio 2 Top 2000 voting submission"

// ProgressFunc reports reconciliation progress. Stage is one of "resolve" or
// "append"; done counts completed items out of total.
type ProgressFunc func(stage string, done, total int)

// Reconciler resolves song records against a remote catalog and keeps a
// target playlist in sync with them. Playlist baselines are cached per
// playlist ID for the lifetime of the reconciler, so repeated runs against
// the same playlist skip the membership refetch.
type Reconciler struct {
	catalog   types.RemoteCatalog
	logger    *log.Logger
	progress  ProgressFunc
	userID    string
	baselines map[string]map[string]bool
}

// NewReconciler creates a reconciler backed by the given catalog.
func NewReconciler(catalog types.RemoteCatalog, logger *log.Logger) *Reconciler {
	return &Reconciler{
		catalog:   catalog,
		logger:    logger,
		baselines: make(map[string]map[string]bool),
	}
}

// SetProgress registers a callback invoked as resolution and appending
// advance. Passing nil disables progress reporting.
func (r *Reconciler) SetProgress(fn ProgressFunc) {
	r.progress = fn
}

// Reset drops the cached user ID and playlist baselines, forcing the next
// run to refetch remote state.
func (r *Reconciler) Reset() {
	r.userID = ""
	r.baselines = make(map[string]map[string]bool)
}

// Run reconciles all records against the target playlist. Records are
// mutated in place: ResolvedURI is set for every record the catalog could
// resolve, and Added is set for records that are on the playlist by the time
// the run finishes, whether they were already there or appended now.
//
// Credential failures abort the run. Other remote failures degrade: a song
// that cannot be resolved counts as not found, and a failed append still
// returns a summary describing what was written before the failure.
func (r *Reconciler) Run(ctx context.Context, records []types.TrackRecord, target types.Target) (*types.Summary, error) {
	indices := make([]int, len(records))
	for i := range indices {
		indices[i] = i
	}
	return r.RunSubset(ctx, records, indices, target)
}

// RunSubset reconciles only the records at the given indices, leaving the
// rest untouched. Indices outside the record list are rejected.
func (r *Reconciler) RunSubset(ctx context.Context, records []types.TrackRecord, indices []int, target types.Target) (*types.Summary, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= len(records) {
			return nil, fmt.Errorf("record index %d out of range (have %d records)", idx, len(records))
		}
	}

	r.logger.WithFields(log.Fields{
		"component":    "reconciler",
		"operation":    "run",
		"record_count": len(indices),
		"target_name":  target.Name,
		"target_id":    target.ID,
	}).Info("Starting playlist reconciliation")

	playlist, err := r.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	baseline, err := r.loadBaseline(ctx, playlist.ID)
	if err != nil {
		return nil, err
	}

	summary := &types.Summary{
		PlaylistName: playlist.Name,
		PlaylistURL:  playlist.ExternalURL,
	}

	var pending []string
	for done, idx := range indices {
		rec := &records[idx]
		if !rec.IsValid() {
			summary.NotFound++
			continue
		}

		track, err := r.catalog.SearchTrack(ctx, rec.Title, rec.Artist)
		if err != nil {
			if errors.Is(err, types.ErrUnauthorized) {
				return nil, fmt.Errorf("resolving %q: %w", rec.String(), err)
			}
			r.logger.WithError(err).WithFields(log.Fields{
				"component": "reconciler",
				"operation": "resolve",
				"song":      rec.String(),
			}).Warn("Catalog search failed, counting song as not found")
			summary.NotFound++
			continue
		}
		if track == nil {
			r.logger.WithFields(log.Fields{
				"component": "reconciler",
				"operation": "resolve",
				"song":      rec.String(),
			}).Debug("No catalog match for song")
			summary.NotFound++
			continue
		}

		rec.ResolvedURI = track.URI

		if assessment := match.Evaluate(*rec, track); assessment.IsLowConfidence() {
			r.logger.WithFields(log.Fields{
				"component":  "reconciler",
				"operation":  "resolve",
				"song":       rec.String(),
				"matched":    fmt.Sprintf("%s - %s", track.Artist, track.Name),
				"confidence": assessment.Overall,
			}).Warn("Low confidence catalog match")
		}

		if baseline[track.URI] {
			rec.Added = true
			summary.Skipped++
		} else {
			rec.Added = true
			pending = append(pending, track.URI)
		}

		if r.progress != nil {
			r.progress("resolve", done+1, len(indices))
		}
	}

	if len(pending) == 0 {
		r.logger.WithFields(log.Fields{
			"component":     "reconciler",
			"operation":     "append",
			"playlist_name": playlist.Name,
		}).Info("Playlist already up to date, nothing to append")
		return summary, nil
	}

	written, err := r.catalog.AppendTracks(ctx, playlist.ID, pending)
	summary.Added = written

	for _, uri := range pending[:written] {
		baseline[uri] = true
	}

	if r.progress != nil {
		r.progress("append", written, len(pending))
	}

	if err != nil {
		if errors.Is(err, types.ErrUnauthorized) {
			return summary, err
		}
		r.logger.WithError(err).WithFields(log.Fields{
			"component":     "reconciler",
			"operation":     "append",
			"playlist_name": playlist.Name,
			"written":       written,
			"pending":       len(pending),
		}).Warn("Append failed partway, returning partial result")
		return summary, nil
	}

	r.logger.WithFields(log.Fields{
		"component":     "reconciler",
		"operation":     "append",
		"playlist_name": playlist.Name,
		"added":         summary.Added,
		"skipped":       summary.Skipped,
		"not_found":     summary.NotFound,
	}).Info("Playlist reconciliation completed")

	return summary, nil
}

// resolveTarget turns a target descriptor into a concrete playlist, creating
// a private playlist under the target name when no existing one matches.
func (r *Reconciler) resolveTarget(ctx context.Context, target types.Target) (*types.Playlist, error) {
	if target.ID != "" {
		playlist, err := r.catalog.GetPlaylist(ctx, target.ID)
		if err != nil {
			return nil, fmt.Errorf("loading playlist %s: %w", target.ID, err)
		}
		return playlist, nil
	}

	if target.Name == "" {
		return nil, fmt.Errorf("target needs a playlist name or ID")
	}

	userID, err := r.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	playlist, err := r.catalog.FindPlaylistByName(ctx, userID, target.Name)
	if err != nil {
		if errors.Is(err, types.ErrUnauthorized) {
			return nil, err
		}
		r.logger.WithError(err).WithFields(log.Fields{
			"component":     "reconciler",
			"operation":     "resolve_target",
			"playlist_name": target.Name,
		}).Warn("Playlist listing failed, treating playlist as missing")
	}
	if playlist != nil {
		r.logger.WithFields(log.Fields{
			"component":     "reconciler",
			"operation":     "resolve_target",
			"playlist_name": playlist.Name,
			"playlist_id":   playlist.ID,
		}).Info("Reusing existing playlist")
		return playlist, nil
	}

	created, err := r.catalog.CreatePlaylist(ctx, userID, target.Name, playlistDescription, false)
	if err != nil {
		return nil, fmt.Errorf("creating playlist %q: %w", target.Name, err)
	}

	r.logger.WithFields(log.Fields{
		"component":     "reconciler",
		"operation":     "resolve_target",
		"playlist_name": created.Name,
		"playlist_id":   created.ID,
	}).Info("Created new playlist")

	return created, nil
}

func (r *Reconciler) currentUserID(ctx context.Context) (string, error) {
	if r.userID != "" {
		return r.userID, nil
	}

	userID, err := r.catalog.CurrentUserID(ctx)
	if err != nil {
		return "", fmt.Errorf("looking up current user: %w", err)
	}

	r.userID = userID
	return userID, nil
}

// loadBaseline fetches the playlist's current track URIs, serving repeated
// runs from cache. A partial listing is still used when the failure was not
// a credential problem; missing entries then show up as append duplicates,
// which the remote tolerates.
func (r *Reconciler) loadBaseline(ctx context.Context, playlistID string) (map[string]bool, error) {
	if baseline, ok := r.baselines[playlistID]; ok {
		return baseline, nil
	}

	baseline, err := r.catalog.ListPlaylistTrackURIs(ctx, playlistID)
	if err != nil {
		if errors.Is(err, types.ErrUnauthorized) {
			return nil, fmt.Errorf("loading playlist contents: %w", err)
		}
		r.logger.WithError(err).WithFields(log.Fields{
			"component":   "reconciler",
			"operation":   "load_baseline",
			"playlist_id": playlistID,
			"known_uris":  len(baseline),
		}).Warn("Playlist listing incomplete, using partial baseline")
	}

	if baseline == nil {
		baseline = make(map[string]bool)
	}
	r.baselines[playlistID] = baseline

	return baseline, nil
}
