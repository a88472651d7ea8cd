// Package session ties one voting-submission link, its extracted records,
// and a target playlist selection into a single unit of work, so repeated
// syncs and partial syncs operate on the same state.
package session

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/HiddeS03/top2000-to-spotify/internal/reconcile"
	"github.com/HiddeS03/top2000-to-spotify/internal/types"
)

// CredentialClearer removes a stored remote credential.
type CredentialClearer interface {
	ClearToken() error
}

// Session holds the state of one submission-to-playlist workflow.
type Session struct {
	loader      types.SubmissionLoader
	reconciler  *reconcile.Reconciler
	credentials CredentialClearer
	logger      *log.Logger

	link   string
	list   *types.TrackList
	target types.Target
}

// New creates a session. The credential clearer may be nil when logout
// support is not needed.
func New(loader types.SubmissionLoader, reconciler *reconcile.Reconciler, credentials CredentialClearer, logger *log.Logger) *Session {
	return &Session{
		loader:      loader,
		reconciler:  reconciler,
		credentials: credentials,
		logger:      logger,
	}
}

// Load fetches the submission behind the link and replaces any previously
// loaded records.
func (s *Session) Load(ctx context.Context, link string) (*types.TrackList, error) {
	list, err := s.loader.LoadSubmission(ctx, link)
	if err != nil {
		return nil, err
	}

	s.link = link
	s.list = list

	s.logger.WithFields(log.Fields{
		"component":  "session",
		"operation":  "load",
		"link":       link,
		"song_count": len(list.Records),
	}).Info("Loaded voting submission")

	return list, nil
}

// Link returns the currently loaded submission link, empty if none.
func (s *Session) Link() string {
	return s.link
}

// Records returns the loaded records. Reconciliation mutates these in place.
func (s *Session) Records() []types.TrackRecord {
	if s.list == nil {
		return nil
	}
	return s.list.Records
}

// SetTarget selects the playlist the next sync will reconcile against.
func (s *Session) SetTarget(target types.Target) {
	s.target = target
}

// Target returns the current playlist selection.
func (s *Session) Target() types.Target {
	return s.target
}

// SetProgress forwards a progress callback to the reconciler.
func (s *Session) SetProgress(fn reconcile.ProgressFunc) {
	s.reconciler.SetProgress(fn)
}

// Sync reconciles all loaded records against the selected target.
func (s *Session) Sync(ctx context.Context) (*types.Summary, error) {
	if s.list == nil {
		return nil, fmt.Errorf("no submission loaded")
	}
	return s.reconciler.Run(ctx, s.list.Records, s.target)
}

// SyncSubset reconciles only the records at the given indices.
func (s *Session) SyncSubset(ctx context.Context, indices []int) (*types.Summary, error) {
	if s.list == nil {
		return nil, fmt.Errorf("no submission loaded")
	}
	return s.reconciler.RunSubset(ctx, s.list.Records, indices, s.target)
}

// Reset clears the loaded submission, the target selection, and the
// reconciler's cached remote state. With clearCredential set it also removes
// the stored remote credential, turning the reset into a logout.
func (s *Session) Reset(clearCredential bool) error {
	s.link = ""
	s.list = nil
	s.target = types.Target{}
	s.reconciler.Reset()

	s.logger.WithFields(log.Fields{
		"component":        "session",
		"operation":        "reset",
		"clear_credential": clearCredential,
	}).Info("Session reset")

	if clearCredential && s.credentials != nil {
		return s.credentials.ClearToken()
	}

	return nil
}
