// Package useragent provides utilities for generating browser user agent
// strings.
//
// The NPO submission page sits behind bot filtering that rejects obviously
// non-browser clients, so page fetches present a current Chrome user agent.
package useragent

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// ChromeVersionResponse represents the response from the Chrome version API.
type ChromeVersionResponse struct {
	Versions []ChromeVersion `json:"versions"`
}

// ChromeVersion represents a Chrome version entry.
type ChromeVersion struct {
	Version string `json:"version"`
}

// fallbackUserAgent is used whenever the version lookup fails.
const fallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"

// GetLatestChromeUserAgent fetches the latest stable Chrome version and
// returns a Windows user agent string carrying it.
//
// The Google Chrome version-history API is queried with a short timeout; any
// failure falls back to a recent hardcoded version rather than erroring.
func GetLatestChromeUserAgent() string {
	version, err := fetchLatestStableVersion()
	if err != nil {
		log.WithError(err).Debug("Chrome version lookup failed, using fallback user agent")
		return fallbackUserAgent
	}
	log.Debugf("Using Chrome user agent with version %s", version)
	return GetChromeUserAgentWithVersion(version)
}

func fetchLatestStableVersion() (string, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get("https://versionhistory.googleapis.com/v1/chrome/platforms/win64/channels/stable/versions?fields=versions(version)&filter=endtime=none")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("version API returned status %d", resp.StatusCode)
	}

	var parsed ChromeVersionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding version response: %w", err)
	}
	if len(parsed.Versions) == 0 {
		return "", fmt.Errorf("version API returned no versions")
	}
	return parsed.Versions[0].Version, nil
}

// GetChromeUserAgentWithVersion constructs a Windows Chrome user agent string
// with the given version.
func GetChromeUserAgentWithVersion(version string) string {
	return fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", version)
}
