package jptransit

// Link is an anchor discovered on a listing page.
type Link struct {
	URL   string // absolute URL
	Label string // trimmed anchor text
}

// Extractor parses pages of the source site's prefecture → line → station
// hierarchy. Implementations are best-effort: malformed content degrades to
// empty results, a page with no recognizable shape returns an ESCRAPE error.
type Extractor interface {
	// LineLinks returns links to railway line pages found on a prefecture
	// listing page. Only anchors within the prefecture's namespace whose
	// label denotes a line are returned.
	LineLinks(html string, prefCode string, baseURL string) ([]Link, error)

	// StationLinks returns candidate station links found on a line's
	// station-listing page.
	StationLinks(html string, baseURL string) ([]Link, error)

	// StationDetail extracts the optional detail fields for a station from
	// its own page. It never fails: unrecognized content yields an empty bag.
	StationDetail(html string, url string) *StationDetail
}
