// Package match scores how well a catalog search result corresponds to the
// song that was asked for. The catalog search returns its own idea of the best
// hit; these scores let callers flag dubious matches without rejecting them.
package match

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/HiddeS03/top2000-to-spotify/internal/types"
)

// Assessment holds per-field and combined confidence scores for a single
// catalog match.
type Assessment struct {
	TitleConfidence  float64 `json:"title_confidence"`
	ArtistConfidence float64 `json:"artist_confidence"`
	Overall          float64 `json:"overall"`
}

// IsHighConfidence returns true if the overall match confidence is above 0.8
func (a Assessment) IsHighConfidence() bool {
	return a.Overall >= 0.8
}

// IsLowConfidence returns true if the overall match confidence is below 0.5
func (a Assessment) IsLowConfidence() bool {
	return a.Overall < 0.5
}

// Evaluate scores a catalog track against the requested record. Title carries
// more weight than artist because cover versions share titles but a wrong
// title is almost always a wrong song.
func Evaluate(record types.TrackRecord, track *types.CatalogTrack) Assessment {
	if track == nil {
		return Assessment{}
	}

	titleConfidence := Score(record.Title, track.Name)
	artistConfidence := Score(record.Artist, track.Artist)

	return Assessment{
		TitleConfidence:  titleConfidence,
		ArtistConfidence: artistConfidence,
		Overall:          (titleConfidence * 0.6) + (artistConfidence * 0.4),
	}
}

// Score calculates a confidence score between 0.0 and 1.0 for how well the
// found item matches the search query.
func Score(query, itemName string) float64 {
	// Normalize strings for comparison
	normalizedQuery := strings.ToLower(strings.TrimSpace(query))
	normalizedItem := strings.ToLower(strings.TrimSpace(itemName))

	if normalizedQuery == "" || normalizedItem == "" {
		return 0.1
	}

	// Exact match gets perfect score
	if normalizedQuery == normalizedItem {
		return 1.0
	}

	// Check if query is contained in item name
	if strings.Contains(normalizedItem, normalizedQuery) {
		// Calculate ratio based on length difference
		ratio := float64(len(normalizedQuery)) / float64(len(normalizedItem))
		return 0.8 + (ratio * 0.2) // Score between 0.8 and 1.0
	}

	// Check if item name is contained in query
	if strings.Contains(normalizedQuery, normalizedItem) {
		ratio := float64(len(normalizedItem)) / float64(len(normalizedQuery))
		return 0.7 + (ratio * 0.2) // Score between 0.7 and 0.9
	}

	// Use fuzzy matching for more complex cases
	matches := fuzzy.Find(normalizedQuery, []string{normalizedItem})
	if len(matches) > 0 {
		// Fuzzy scores are typically 0-100+; normalize to the 0.0-0.7 range
		fuzzyScore := float64(matches[0].Score)
		maxExpectedScore := float64(len(normalizedQuery) * 2)
		confidence := (fuzzyScore / maxExpectedScore) * 0.7

		// Cap at 0.7 and ensure minimum of 0.1 for any match
		if confidence > 0.7 {
			confidence = 0.7
		}
		if confidence < 0.1 {
			confidence = 0.1
		}

		return confidence
	}

	// If no fuzzy match found, return low confidence
	return 0.1
}
