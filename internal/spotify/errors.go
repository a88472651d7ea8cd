package spotify

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"

	"github.com/HiddeS03/top2000-to-spotify/internal/types"
)

// classify maps a Spotify API error onto the shared remote error taxonomy so
// callers can react to credential expiry and throttling without inspecting
// status codes. Non-API errors (transport failures, timeouts) are treated as
// remote unavailability.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", types.ErrUnauthorized, apiErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", types.ErrRateLimited, apiErr.Message)
		default:
			return fmt.Errorf("%w: status %d: %s", types.ErrRemoteUnavailable, apiErr.Status, apiErr.Message)
		}
	}

	return fmt.Errorf("%w: %v", types.ErrRemoteUnavailable, err)
}
