package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/HiddeS03/top2000-to-spotify/internal/types"
)

// Extraction failure modes. The two are kept distinct so the caller can tell
// "wrong link" apart from "page format changed".
var (
	// ErrNoData indicates no recognizable data-embedding pattern was located
	// on the page.
	ErrNoData = errors.New("no submission data found on page")

	// ErrNoSongs indicates data was located but no valid song records could
	// be extracted from it.
	ErrNoSongs = errors.New("no songs found in submission data")
)

var (
	// trackObjectPattern matches brace-delimited object literals that carry
	// both an artist key and a title key, in that order.
	trackObjectPattern = regexp.MustCompile(`\{[^}]*?"artist"[^}]*?"title"[^}]*?\}`)

	// escapedPairPattern handles payloads nested inside another JSON string,
	// where every quote arrives double-escaped.
	escapedPairPattern = regexp.MustCompile(`\{\\"artist\\":\\"([^"]+)\\",.*?\\"title\\":\\"([^"]+)\\"`)

	// Targeted field patterns used to recover an object that fails
	// whole-object JSON parsing.
	artistFieldPattern = regexp.MustCompile(`"artist"\s*:\s*"([^"]+)"`)
	titleFieldPattern  = regexp.MustCompile(`"title"\s*:\s*"([^"]+)"`)
)

// strategy attempts to recover track records from one candidate fragment.
// Strategies are pure: same fragment in, same records out.
type strategy func(fragment string) []types.TrackRecord

// strategies is the ordered cascade applied to each candidate fragment.
// The first strategy to produce at least one record wins for that candidate.
var strategies = []strategy{
	extractStructuredObjects,
	extractEscapedPairs,
}

// Extract runs the strategy cascade over the located candidate fragments and
// returns the records of the first candidate that yields any.
//
// Candidates that do not textually mention both an artist and a title field
// are skipped outright. Output preserves the order records were encountered
// in the winning candidate; no dedup of (artist, title) pairs happens here.
func Extract(candidates []string) ([]types.TrackRecord, error) {
	promising := 0

	for i, candidate := range candidates {
		if !strings.Contains(candidate, "artist") || !strings.Contains(candidate, "title") {
			continue
		}
		promising++

		log.WithFields(log.Fields{
			"candidate_index":  i,
			"candidate_length": len(candidate),
		}).Debug("Processing candidate fragment for song extraction")

		for _, strat := range strategies {
			records := strat(candidate)
			if len(records) > 0 {
				log.WithFields(log.Fields{
					"candidate_index": i,
					"record_count":    len(records),
				}).Debug("Candidate fragment yielded song records")
				return records, nil
			}
		}
	}

	if promising == 0 {
		return nil, ErrNoData
	}
	return nil, ErrNoSongs
}

// extractStructuredObjects scans a fragment for brace-delimited track objects
// and parses each as JSON. A malformed individual object is recovered via
// targeted field regexes; only when both fields are found is the pair
// accepted. Objects that still miss a field are dropped silently.
func extractStructuredObjects(fragment string) []types.TrackRecord {
	matches := trackObjectPattern.FindAllString(fragment, -1)
	if matches == nil {
		return nil
	}

	var records []types.TrackRecord
	for _, objText := range matches {
		// Payloads arrive at varying escape depths; normalize before parsing.
		cleaned := strings.ReplaceAll(objText, `\\`, `\`)
		cleaned = strings.ReplaceAll(cleaned, `\"`, `"`)

		var obj struct {
			Artist string `json:"artist"`
			Title  string `json:"title"`
		}
		if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
			if record := makeRecord(obj.Artist, obj.Title); record != nil {
				records = append(records, *record)
			}
			continue
		}

		// Whole-object parse failed, recover the two fields individually.
		artistMatch := artistFieldPattern.FindStringSubmatch(cleaned)
		titleMatch := titleFieldPattern.FindStringSubmatch(cleaned)
		if artistMatch != nil && titleMatch != nil {
			if record := makeRecord(artistMatch[1], titleMatch[1]); record != nil {
				records = append(records, *record)
			}
		}
	}

	return records
}

// extractEscapedPairs applies the double-escaped form of the track pattern,
// pairing one artist capture with one title capture per match in order.
func extractEscapedPairs(fragment string) []types.TrackRecord {
	var records []types.TrackRecord
	for _, m := range escapedPairPattern.FindAllStringSubmatch(fragment, -1) {
		if record := makeRecord(m[1], m[2]); record != nil {
			records = append(records, *record)
		}
	}
	return records
}

// makeRecord trims both fields and returns a record only when both are
// non-empty. Partial matches are dropped, not reported per-record.
func makeRecord(artist, title string) *types.TrackRecord {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if artist == "" || title == "" {
		return nil
	}
	return &types.TrackRecord{Artist: artist, Title: title}
}
