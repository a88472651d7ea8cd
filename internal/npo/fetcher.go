// Package npo loads a Top 2000 voting submission from an NPO link.
//
// Two retrieval paths exist. When the link carries a submission id, the NPO
// JSON API is queried directly. When it does not, or the API path fails, the
// rendered submission page is fetched and its embedded payload is recovered
// through the extraction cascade.
package npo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/HiddeS03/top2000-to-spotify/internal/extract"
	"github.com/HiddeS03/top2000-to-spotify/internal/types"
	"github.com/HiddeS03/top2000-to-spotify/pkg/config"
	"github.com/HiddeS03/top2000-to-spotify/pkg/useragent"
)

// submissionIDPattern matches the submission id segment of a voting link.
var submissionIDPattern = regexp.MustCompile(`inzending/([a-f0-9-]+)`)

// Fetcher handles fetching and parsing of Top 2000 submission data.
type Fetcher struct {
	apiBase    string
	relayURL   string
	httpClient *http.Client
	logger     *log.Entry
}

// submissionResponse is the shape of the NPO submission API payload. Older
// editions used name/performer for the same fields, hence the fallbacks.
type submissionResponse struct {
	Songs []struct {
		Title     string `json:"title"`
		Name      string `json:"name"`
		Artist    string `json:"artist"`
		Performer string `json:"performer"`
	} `json:"songs"`
}

// NewFetcher creates a new submission fetcher from configuration.
func NewFetcher(cfg config.NPOConfig) *Fetcher {
	timeout := time.Duration(cfg.HTTPTimeout) * time.Second
	if cfg.HTTPTimeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Fetcher{
		apiBase:  strings.TrimSuffix(cfg.APIBase, "/"),
		relayURL: cfg.RelayURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log.WithField("component", "npo_fetcher"),
	}
}

// SubmissionID extracts the submission id from a voting link, or returns an
// empty string when the link does not carry one.
func SubmissionID(link string) string {
	if m := submissionIDPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

// LoadSubmission fetches the voted songs behind a submission link.
//
// When the link carries a submission id, the JSON API is tried first; a
// failure there falls through to scraping the rendered page, so a link that
// is valid for either path still resolves.
func (f *Fetcher) LoadSubmission(ctx context.Context, link string) (*types.TrackList, error) {
	f.logger.WithField("link", link).Info("Loading Top 2000 submission")

	if id := SubmissionID(link); id != "" {
		list, err := f.fetchFromAPI(ctx, id)
		if err == nil {
			return list, nil
		}
		f.logger.WithError(err).WithField("submission_id", id).
			Warn("Submission API fetch failed, falling back to page scrape")
	}

	html, err := f.fetchPage(ctx, link)
	if err != nil {
		return nil, err
	}

	records, err := extract.Extract(extract.Locate(html))
	if err != nil {
		return nil, err
	}

	f.logger.WithField("song_count", len(records)).Info("Extracted songs from submission page")

	return &types.TrackList{
		Records:   records,
		FetchedAt: time.Now(),
		Source:    "page",
	}, nil
}

// fetchFromAPI queries the NPO submission API directly by submission id.
func (f *Fetcher) fetchFromAPI(ctx context.Context, submissionID string) (*types.TrackList, error) {
	apiURL := fmt.Sprintf("%s/inzending/%s", f.apiBase, submissionID)

	body, err := f.get(ctx, apiURL, "application/json, text/plain, */*")
	if err != nil {
		return nil, err
	}

	var resp submissionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode submission API response: %w", err)
	}

	list := &types.TrackList{
		FetchedAt: time.Now(),
		Source:    "api",
	}
	for _, song := range resp.Songs {
		title := song.Title
		if title == "" {
			title = song.Name
		}
		artist := song.Artist
		if artist == "" {
			artist = song.Performer
		}

		record := types.TrackRecord{
			Artist: strings.TrimSpace(artist),
			Title:  strings.TrimSpace(title),
		}
		if record.IsValid() {
			list.Add(record)
		}
	}

	if len(list.Records) == 0 {
		return nil, extract.ErrNoSongs
	}

	f.logger.WithFields(log.Fields{
		"submission_id": submissionID,
		"song_count":    len(list.Records),
	}).Info("Loaded submission from NPO API")

	return list, nil
}

// fetchPage retrieves the rendered submission page, optionally routed through
// the configured relay endpoint.
func (f *Fetcher) fetchPage(ctx context.Context, link string) (string, error) {
	pageURL := link
	if f.relayURL != "" {
		pageURL = f.relayURL + url.QueryEscape(link)
		f.logger.WithField("relay_url", pageURL).Debug("Routing page fetch through relay")
	}

	body, err := f.get(ctx, pageURL, "text/html,application/xhtml+xml")
	if err != nil {
		return "", err
	}

	f.logger.WithField("page_length", len(body)).Debug("Fetched submission page")
	return string(body), nil
}

// get performs one GET with browser headers and a bounded retry on gateway
// errors, returning the response body.
func (f *Fetcher) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "nl-NL,nl;q=0.9,en;q=0.5")
	req.Header.Set("User-Agent", useragent.GetLatestChromeUserAgent())

	var resp *http.Response
	maxRetries := 3

	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err = f.httpClient.Do(req)

		if err == nil && resp.StatusCode != http.StatusBadGateway && resp.StatusCode != http.StatusGatewayTimeout {
			break
		}

		if resp != nil {
			_ = resp.Body.Close()
		}

		if attempt < maxRetries {
			waitTime := time.Duration(attempt) * 2 * time.Second
			f.logger.WithFields(log.Fields{
				"attempt":     attempt,
				"max_retries": maxRetries,
				"wait_time":   waitTime,
				"error":       err,
			}).Warn("Submission fetch failed, retrying...")

			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s after %d attempts: %w", rawURL, maxRetries, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.WithFields(log.Fields{
			"status_code": resp.StatusCode,
			"url":         rawURL,
		}).Error("Submission fetch returned non-200 status")
		return nil, fmt.Errorf("%w: fetch of %s returned status %d", types.ErrRemoteUnavailable, rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}
