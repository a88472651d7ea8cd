// Package types provides the shared data models and error taxonomy for the
// top2000-to-spotify application.
package types

import "errors"

// Remote error taxonomy. All remote collaborators (the catalog API and the
// submission-page fetch) classify non-success responses into one of these so
// callers can distinguish credential expiry and throttling from general
// unavailability.
var (
	// ErrUnauthorized indicates the bearer credential is invalid or expired.
	// A reconciliation run aborts immediately when it surfaces.
	ErrUnauthorized = errors.New("spotify credential invalid or expired")

	// ErrRateLimited indicates the remote API throttled the request.
	ErrRateLimited = errors.New("rate limited by remote API")

	// ErrRemoteUnavailable indicates any other non-success remote response.
	ErrRemoteUnavailable = errors.New("remote API unavailable")
)
