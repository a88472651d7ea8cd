// Package extract recovers (artist, title) pairs from a server-rendered
// Top 2000 submission page.
//
// The page embeds its payload in one of two shapes depending on how it was
// rendered: a single bootstrap-data script tag, or a series of streamed
// self.__next_f.push segments. Neither shape is documented and both have
// changed between deployments, so extraction runs an ordered cascade of
// parsing strategies and stops at the first one that yields a result.
package extract

import "regexp"

var (
	// bootstrapScriptPattern matches the uniquely-tagged bootstrap data
	// script element and captures its textual content.
	bootstrapScriptPattern = regexp.MustCompile(`(?s)<script id="__NEXT_DATA__"[^>]*>(.*?)</script>`)

	// pushSegmentPattern matches one streamed flight-data push call. The
	// segments do not span lines, so '.' deliberately stops at newlines.
	pushSegmentPattern = regexp.MustCompile(`self\.__next_f\.push\(\[.*?\]\)`)
)

// Locate isolates the opaque data fragments of a submission page worth
// inspecting, without decoding them. The bootstrap script content (when
// present) comes first, followed by every streamed push segment in page
// order. Candidates are not deduplicated here; an empty result is not itself
// an error and is surfaced downstream as ErrNoData.
func Locate(rawHTML string) []string {
	var candidates []string

	if m := bootstrapScriptPattern.FindStringSubmatch(rawHTML); m != nil {
		candidates = append(candidates, m[1])
	}

	candidates = append(candidates, pushSegmentPattern.FindAllString(rawHTML, -1)...)

	return candidates
}
