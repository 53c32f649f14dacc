// Package goquery implements jptransit.Extractor by parsing the transit
// site's prefecture, line and station pages with CSS selectors.
package goquery

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	jptransit "github.com/anhlt/jp-transit-search"
)

// stationLabelStoplist holds anchor labels that look like station links but
// point at auxiliary pages.
var stationLabelStoplist = map[string]bool{
	"駅情報": true,
	"時刻表": true,
}

// maxStationLabelRunes bounds station anchor labels; longer labels are
// navigation or ads, not station names.
const maxStationLabelRunes = 15

// Ensure Extractor implements jptransit.Extractor at compile time.
var _ jptransit.Extractor = (*Extractor)(nil)

// Extractor parses the source site's listing and detail pages.
// Extraction is best-effort: malformed markup degrades to empty results.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// LineLinks returns railway line links found on a prefecture listing page.
// A line link lives under the prefecture's path namespace and carries a
// label that denotes a line (contains 線 or JR).
func (e *Extractor) LineLinks(html string, prefCode string, baseURL string) ([]jptransit.Link, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, jptransit.Errorf(jptransit.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, jptransit.Errorf(jptransit.ESCRAPE, "failed to parse prefecture page: %v", err)
	}

	namespace := "/station/" + trimZero(prefCode) + "/"

	seen := make(map[string]bool)
	var links []jptransit.Link

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		label := strings.TrimSpace(sel.Text())
		if href == "" || label == "" {
			return
		}
		if !strings.Contains(href, namespace) {
			return
		}
		if !strings.Contains(label, "線") && !strings.Contains(label, "JR") {
			return
		}

		resolved := resolveURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, jptransit.Link{URL: resolved, Label: label})
	})

	return links, nil
}

// StationLinks returns candidate station links found on a line's
// station-listing page. A candidate must carry both a prefecture and a
// company query parameter and a short, non-stoplisted label.
func (e *Extractor) StationLinks(html string, baseURL string) ([]jptransit.Link, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, jptransit.Errorf(jptransit.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, jptransit.Errorf(jptransit.ESCRAPE, "failed to parse line page: %v", err)
	}

	// Line pages often link a station several times (map, timetable,
	// platform blocks); the first anchor per name wins.
	seen := make(map[string]bool)
	var links []jptransit.Link

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		label := strings.TrimSpace(sel.Text())
		if href == "" || label == "" || seen[label] {
			return
		}
		if !strings.Contains(href, "/station/") {
			return
		}

		u, err := url.Parse(href)
		if err != nil {
			return
		}
		q := u.Query()
		if q.Get("pref") == "" || q.Get("company") == "" {
			return
		}

		if stationLabelStoplist[label] || utf8.RuneCountInString(label) > maxStationLabelRunes {
			return
		}

		resolved := resolveURL(base, href)
		if resolved == "" {
			return
		}
		seen[label] = true
		links = append(links, jptransit.Link{URL: resolved, Label: label})
	})

	return links, nil
}

// StationDetail extracts the optional detail fields from a station page.
// Any field the page does not expose stays zero; malformed markup yields an
// empty bag, never an error.
func (e *Extractor) StationDetail(html string, pageURL string) *jptransit.StationDetail {
	detail := &jptransit.StationDetail{}
	if html == "" {
		return detail
	}

	detail.StationID = StationIDFromURL(pageURL)
	if u, err := url.Parse(pageURL); err == nil {
		q := u.Query()
		detail.PrefectureID = padPrefCode(q.Get("pref"))
		detail.CompanyName = q.Get("company")
		detail.LineName = q.Get("line")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return detail
	}

	// The page title disambiguates homonym stations as 青山(岩手県)駅; keep
	// the full disambiguated form as an alias.
	title := doc.Find("title").First().Text()
	if idx := strings.Index(title, "駅の"); idx >= 0 {
		name := title[:idx]
		if strings.ContainsAny(name, "(（") {
			detail.Aliases = append(detail.Aliases, name)
		}
	}

	// Reading, when present, is marked up as ruby text.
	doc.Find("rt").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			detail.Reading = text
			return false
		}
		return true
	})

	detail.AllLines = lineNames(doc)

	return detail
}

// lineNameStoplist filters anchors that mention lines without naming one.
var lineNameStoplist = []string{"路線図", "路線情報", "線路", "新幹線情報"}

// lineNames collects every line serving the station from its detail page.
func lineNames(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var lines []string

	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" || utf8.RuneCountInString(text) >= 30 {
			return
		}
		if !strings.Contains(text, "線") && !strings.Contains(text, "Line") {
			return
		}
		for _, term := range lineNameStoplist {
			if strings.Contains(text, term) {
				return
			}
		}
		if seen[text] {
			return
		}
		seen[text] = true
		lines = append(lines, text)
	})

	return lines
}

// StationIDFromURL returns the numeric station id embedded in a station URL
// path (/station/22741?...), or "" when the path segment is not numeric.
func StationIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	seg := strings.TrimPrefix(u.Path, "/station/")
	seg = strings.TrimSuffix(seg, "/")
	if seg == "" || strings.Contains(seg, "/") {
		return ""
	}
	if _, err := strconv.Atoi(seg); err != nil {
		return ""
	}
	return seg
}

// trimZero drops the leading zero of a two-digit prefecture code; the site's
// paths use /station/1/ not /station/01/.
func trimZero(code string) string {
	if n, err := strconv.Atoi(code); err == nil {
		return strconv.Itoa(n)
	}
	return code
}

// padPrefCode normalizes a pref query parameter to the fixed two-digit form.
func padPrefCode(code string) string {
	if code == "" {
		return ""
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 1 || n > 47 {
		return ""
	}
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// resolveURL resolves href against base and returns the absolute URL, or ""
// for unusable links.
func resolveURL(base *url.URL, href string) string {
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
