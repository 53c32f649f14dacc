// Package search provides an in-memory fuzzy search index over the station
// directory. Queries match any script variant of a station name - kanji,
// hiragana, katakana, or romaji - as well as its aliases, with an
// edit-distance fallback for near misses.
package search

import (
	"context"
	"sort"
	"strings"

	jptransit "github.com/anhlt/jp-transit-search"
	"golang.org/x/sync/errgroup"
)

// DefaultFuzzyThreshold is the minimum edit-distance score for a fuzzy hit.
const DefaultFuzzyThreshold = 60

// variant fill parallelism during index builds.
const fillConcurrency = 8

// Config holds the optional collaborators of an Index.
type Config struct {
	// Converter fills missing script variants at build time. Nil leaves
	// records as loaded.
	Converter jptransit.Converter

	// Scorer rates fuzzy candidates. Nil disables edit-distance matching.
	Scorer Scorer

	// FuzzyThreshold is the minimum fuzzy score (0-100) to report a hit.
	// Non-positive means DefaultFuzzyThreshold.
	FuzzyThreshold int
}

// Result is a scored search hit.
type Result struct {
	Station *jptransit.Station
	Score   int
}

// Index is an immutable in-memory search index over stations. Once built it
// is safe for concurrent use.
type Index struct {
	stations []*jptransit.Station
	terms    []stationTerms // aligned with stations

	byName     map[string][]*jptransit.Station
	byHiragana map[string][]*jptransit.Station
	byKatakana map[string][]*jptransit.Station
	byRomaji   map[string][]*jptransit.Station
	byAlias    map[string][]*jptransit.Station

	byPrefecture map[string][]*jptransit.Station

	scorer    Scorer
	threshold int
}

// stationTerms holds a station's lowercased matchable strings. Name terms
// and alias terms are kept apart because exact alias matches have special
// ranking semantics.
type stationTerms struct {
	names   []string
	aliases []string
}

// NewIndex builds an index over the given stations. Records are copied so
// later mutation of the inputs does not affect the index. When cfg.Converter
// is set, stations missing script variants are filled concurrently before
// the index structures are built.
func NewIndex(ctx context.Context, stations []*jptransit.Station, cfg Config) (*Index, error) {
	ix := &Index{
		stations:     make([]*jptransit.Station, 0, len(stations)),
		terms:        make([]stationTerms, 0, len(stations)),
		byName:       make(map[string][]*jptransit.Station),
		byHiragana:   make(map[string][]*jptransit.Station),
		byKatakana:   make(map[string][]*jptransit.Station),
		byRomaji:     make(map[string][]*jptransit.Station),
		byAlias:      make(map[string][]*jptransit.Station),
		byPrefecture: make(map[string][]*jptransit.Station),
		scorer:       cfg.Scorer,
		threshold:    cfg.FuzzyThreshold,
	}
	if ix.threshold <= 0 {
		ix.threshold = DefaultFuzzyThreshold
	}

	for _, st := range stations {
		if st == nil || st.Name == "" {
			continue
		}
		clone := *st
		ix.stations = append(ix.stations, &clone)
	}

	if cfg.Converter != nil {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(fillConcurrency)
		for _, st := range ix.stations {
			st := st
			if st.NameHiragana != "" && st.NameKatakana != "" && st.NameRomaji != "" {
				continue
			}
			g.Go(func() error {
				fillVariants(st, cfg.Converter)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	for _, st := range ix.stations {
		ix.add(st)
	}
	return ix, nil
}

// Len returns the number of indexed stations.
func (ix *Index) Len() int {
	return len(ix.stations)
}

// SearchByName finds stations matching a name query in any script.
//
// An exact alias match wins outright: when the query equals an alias, only
// the stations carrying that alias are returned. Otherwise every station
// whose name variants or aliases equal the query scores 100 and substring
// matches score 90; when nothing matches at all and a Scorer is configured,
// edit-distance candidates at or above the threshold are returned instead.
// Results are ordered by descending score, ties broken by name.
func (ix *Index) SearchByName(query string) []Result {
	q := normalizeQuery(query)
	if q == "" {
		return nil
	}

	if hits := ix.byAlias[q]; len(hits) > 0 {
		results := make([]Result, 0, len(hits))
		for _, st := range dedup(hits) {
			results = append(results, Result{Station: st, Score: 100})
		}
		sortResults(results)
		return results
	}

	results := ix.heuristic(q)
	if len(results) == 0 && ix.scorer != nil {
		results = ix.fuzzy(q, ix.threshold)
	}
	sortResults(results)
	return results
}

// SearchExact finds stations whose name equals the query in any one of the
// four scripts. No substring, alias, or edit-distance matching is applied;
// hits are deduplicated by identity and all score 100.
func (ix *Index) SearchExact(query string) []Result {
	q := normalizeQuery(query)
	if q == "" {
		return nil
	}

	var hits []*jptransit.Station
	hits = append(hits, ix.byName[q]...)
	hits = append(hits, ix.byHiragana[q]...)
	hits = append(hits, ix.byKatakana[q]...)
	hits = append(hits, ix.byRomaji[q]...)
	if len(hits) == 0 {
		return nil
	}

	results := make([]Result, 0, len(hits))
	for _, st := range dedup(hits) {
		results = append(results, Result{Station: st, Score: 100})
	}
	sortResults(results)
	return results
}

// FuzzySearch finds stations by edit distance against every name variant
// and alias, reporting the best score per station at or above the
// threshold. Without a Scorer it degrades to the heuristic match set, each
// hit reported at a nominal 100.
func (ix *Index) FuzzySearch(query string) []Result {
	q := normalizeQuery(query)
	if q == "" {
		return nil
	}

	if ix.scorer == nil {
		results := ix.heuristic(q)
		for i := range results {
			results[i].Score = 100
		}
		sortResults(results)
		return results
	}

	results := ix.fuzzy(q, ix.threshold)
	sortResults(results)
	return results
}

// SearchByPrefecture returns the stations of the named prefecture in the
// order they were indexed. The match is exact.
func (ix *Index) SearchByPrefecture(prefecture string) []*jptransit.Station {
	return ix.byPrefecture[strings.TrimSpace(prefecture)]
}

// AllPrefectures returns the sorted names of every prefecture that has at
// least one indexed station.
func (ix *Index) AllPrefectures() []string {
	out := make([]string, 0, len(ix.byPrefecture))
	for name := range ix.byPrefecture {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ListStations returns indexed stations filtered by prefecture and line,
// either of which may be empty to match everything. The line filter is a
// case-insensitive substring match against the discovery line and any line
// on the station's detail page. A positive limit caps the result.
func (ix *Index) ListStations(prefecture, line string, limit int) []*jptransit.Station {
	prefecture = strings.TrimSpace(prefecture)
	line = strings.TrimSpace(line)

	var out []*jptransit.Station
	for _, st := range ix.stations {
		if prefecture != "" && st.Prefecture != prefecture {
			continue
		}
		if line != "" && !servesLine(st, line) {
			continue
		}
		out = append(out, st)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (ix *Index) add(st *jptransit.Station) {
	terms := buildTerms(st)
	ix.terms = append(ix.terms, terms)

	addKey(ix.byName, st.Name, st)
	addKey(ix.byHiragana, st.NameHiragana, st)
	addKey(ix.byKatakana, st.NameKatakana, st)
	addKey(ix.byRomaji, st.NameRomaji, st)
	for _, a := range st.Aliases {
		addKey(ix.byAlias, a, st)
	}

	if st.Prefecture != "" {
		ix.byPrefecture[st.Prefecture] = append(ix.byPrefecture[st.Prefecture], st)
	}
}

// heuristic scores every station against the query: 100 for an exact match
// on any term, 90 when a term contains the query. Name terms are checked
// before alias terms and a later term only replaces a strictly better
// score.
func (ix *Index) heuristic(q string) []Result {
	var results []Result
	for i, st := range ix.stations {
		best := 0
		for _, term := range ix.terms[i].names {
			if s := heuristicScore(q, term); s > best {
				best = s
			}
		}
		for _, term := range ix.terms[i].aliases {
			if s := heuristicScore(q, term); s > best {
				best = s
			}
		}
		if best > 0 {
			results = append(results, Result{Station: st, Score: best})
		}
	}
	return results
}

func (ix *Index) fuzzy(q string, threshold int) []Result {
	var results []Result
	for i, st := range ix.stations {
		best := 0
		for _, term := range ix.terms[i].names {
			if s := ix.scorer.Score(q, term); s > best {
				best = s
			}
		}
		for _, term := range ix.terms[i].aliases {
			if s := ix.scorer.Score(q, term); s > best {
				best = s
			}
		}
		if best >= threshold {
			results = append(results, Result{Station: st, Score: best})
		}
	}
	return results
}

func heuristicScore(q, term string) int {
	switch {
	case q == term:
		return 100
	case strings.Contains(term, q):
		return 90
	default:
		return 0
	}
}

func buildTerms(st *jptransit.Station) stationTerms {
	var t stationTerms
	for _, name := range []string{st.Name, st.NameHiragana, st.NameKatakana, st.NameRomaji} {
		if name != "" {
			t.names = append(t.names, strings.ToLower(name))
		}
	}
	for _, a := range st.Aliases {
		if a != "" {
			t.aliases = append(t.aliases, strings.ToLower(a))
		}
	}
	return t
}

func fillVariants(st *jptransit.Station, conv jptransit.Converter) {
	src := st.Name
	if st.NameHiragana != "" {
		src = st.NameHiragana
	}
	v := conv.Variants(src)
	if st.NameHiragana == "" {
		st.NameHiragana = v.Hiragana
	}
	if st.NameKatakana == "" {
		st.NameKatakana = v.Katakana
	}
	if st.NameRomaji == "" {
		st.NameRomaji = v.Romaji
	}
}

func addKey(m map[string][]*jptransit.Station, key string, st *jptransit.Station) {
	if key == "" {
		return
	}
	key = strings.ToLower(key)
	m[key] = append(m[key], st)
}

func servesLine(st *jptransit.Station, line string) bool {
	q := strings.ToLower(line)
	if strings.Contains(strings.ToLower(st.LineName), q) {
		return true
	}
	for _, l := range st.AllLines {
		if strings.Contains(strings.ToLower(l), q) {
			return true
		}
	}
	return false
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func dedup(stations []*jptransit.Station) []*jptransit.Station {
	seen := make(map[*jptransit.Station]bool, len(stations))
	out := stations[:0:0]
	for _, st := range stations {
		if !seen[st] {
			seen[st] = true
			out = append(out, st)
		}
	}
	return out
}

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Station.Name < results[j].Station.Name
	})
}
