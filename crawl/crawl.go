// Package crawl orchestrates the prefecture → line → station walk of the
// source site. It coordinates fetching, extraction, script conversion, and
// storage, with batched checkpointing so an interrupted crawl can resume
// where it left off.
package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	jptransit "github.com/anhlt/jp-transit-search"
	"github.com/google/uuid"
)

const (
	// DefaultBatchSize is the number of discovered stations buffered before
	// a checkpoint write.
	DefaultBatchSize = 50

	// Frontier sizing. The source site lists roughly 9000 stations; the
	// capacity leaves room for repeat listings across lines.
	frontierCapacity = 50000
	frontierFPRate   = 0.001
)

// Crawler walks the source site and persists every discovered station.
type Crawler struct {
	Fetcher   jptransit.Fetcher
	Extractor jptransit.Extractor
	Converter jptransit.Converter
	Stations  jptransit.StationStore
	States    jptransit.StateStore

	// BaseURL is the root of the source site, without a trailing slash.
	BaseURL string

	// RetryDelays configures prefecture fetch backoff.
	// Nil means DefaultRetryDelays.
	RetryDelays []time.Duration

	// Throttle paces line and detail fetches. Nil disables pacing.
	Throttle *Throttle

	// BatchSize is the checkpoint interval in stations. Non-positive means
	// DefaultBatchSize.
	BatchSize int

	// MaxLinesPerPrefecture caps how many lines are walked per prefecture.
	// Non-positive means no cap.
	MaxLinesPerPrefecture int

	Logger   *slog.Logger
	Progress ProgressFunc
}

// ProgressFunc is a callback receiving a progress snapshot after each
// completed line and prefecture.
type ProgressFunc func(p jptransit.CrawlProgress)

// Result holds the outcome of a crawl session.
type Result struct {
	Stations    int
	Duplicates  int
	Prefectures int
	Lines       int
	Errors      int
	Duration    time.Duration
}

// Crawl walks all 47 prefectures in JIS order. With resume true it starts
// from the persisted cursor and skips completed prefectures and lines;
// otherwise the station store and state are reset first.
//
// Recoverable failures (network, scraping) are counted and skipped; a
// prefecture page that cannot be fetched after retries is skipped whole.
// Cancellation flushes the pending batch, saves state, and returns an
// ECANCELED error. The error return is otherwise non-nil only when the
// session found no stations at all while recording errors, or when a
// storage write failed.
func (c *Crawler) Crawl(ctx context.Context, resume bool) (*Result, error) {
	s, err := c.newSession(ctx, resume)
	if err != nil {
		return nil, err
	}

	start := 0
	if resume {
		start = s.state.ResumeIndex()
	}

	for i := start; i < len(jptransit.Prefectures); i++ {
		pref := jptransit.Prefectures[i]
		if s.state.PrefectureDone(pref.Name) {
			continue
		}
		if ctx.Err() != nil {
			return s.interrupt(ctx)
		}

		s.progress.CurrentPrefecture = pref.Name

		failedLines, err := s.crawlPrefecture(ctx, pref)
		if err != nil {
			if ctx.Err() != nil {
				return s.interrupt(ctx)
			}
			switch jptransit.ErrorCode(err) {
			case jptransit.ENETWORK, jptransit.ESCRAPE, jptransit.EINVALID:
				c.logger().Warn("prefecture failed", "prefecture", pref.Name, "error", err)
				s.progress.Errors++
				continue
			default:
				return s.result(), err
			}
		}

		// A prefecture with a failed line stays incomplete so a resumed
		// session revisits it; its finished lines are skipped by the
		// completed-lines set.
		if failedLines == 0 {
			s.state.MarkPrefectureDone(pref.Name)
			s.progress.PrefecturesCompleted++
		} else {
			c.logger().Warn("prefecture incomplete", "prefecture", pref.Name, "failed_lines", failedLines)
		}
		s.advanceCursor()
		if err := s.checkpoint(ctx); err != nil {
			return s.result(), err
		}
		s.report()
	}

	if err := s.checkpoint(ctx); err != nil {
		return s.result(), err
	}

	removed, err := c.dedupStore(ctx)
	if err != nil {
		return s.result(), err
	}
	if removed > 0 {
		c.logger().Info("removed duplicates from store", "count", removed)
	}

	// Keep the state file around after a run with failures so the skipped
	// prefectures and lines can be resumed.
	if s.progress.Errors == 0 {
		if err := c.States.Clear(ctx); err != nil {
			return s.result(), err
		}
	}

	res := s.result()
	if res.Stations == 0 && res.Errors > 0 {
		return res, jptransit.Errorf(jptransit.EINTERNAL, "crawl found no stations after %d errors", res.Errors)
	}
	return res, nil
}

// session holds the per-run mutable state of one Crawl call.
type session struct {
	c        *Crawler
	state    *jptransit.CrawlState
	seen     *IdentitySet
	frontier *Frontier
	batch    []*jptransit.Station
	progress *jptransit.CrawlProgress
}

func (c *Crawler) newSession(ctx context.Context, resume bool) (*session, error) {
	s := &session{
		c:        c,
		seen:     NewIdentitySet(),
		frontier: NewFrontier(frontierCapacity, frontierFPRate),
		progress: &jptransit.CrawlProgress{StartTime: time.Now()},
	}

	if resume {
		state, err := c.States.Load(ctx)
		if err != nil {
			return nil, err
		}
		s.state = state

		// Seed dedup with everything already on disk so a resumed session
		// never re-appends a station from a partially crawled line.
		existing, err := c.Stations.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, st := range existing {
			s.seen.Add(st.IdentityKey())
		}
	} else {
		if err := c.Stations.Truncate(ctx); err != nil {
			return nil, err
		}
		if err := c.States.Clear(ctx); err != nil {
			return nil, err
		}
		s.state = jptransit.NewCrawlState()
	}

	if s.state.SessionID == "" {
		s.state.SessionID = uuid.NewString()
	}
	s.state.Progress = s.progress
	return s, nil
}

// crawlPrefecture walks one prefecture's lines and reports how many of
// them failed, so the caller can leave the prefecture incomplete.
func (s *session) crawlPrefecture(ctx context.Context, pref jptransit.Prefecture) (int, error) {
	pageURL := s.c.prefectureURL(pref)
	html, err := FetchWithRetryDelays(ctx, pageURL, s.c.Fetcher.Fetch, s.logRetry, s.c.retryDelays())
	if err != nil {
		return 0, jptransit.Errorf(jptransit.ENETWORK, "prefecture page %s: %v", pref.Name, err)
	}

	links, err := s.c.Extractor.LineLinks(html, pref.Code, s.c.BaseURL)
	if err != nil {
		return 0, err
	}
	if max := s.c.MaxLinesPerPrefecture; max > 0 && len(links) > max {
		links = links[:max]
	}

	s.c.logger().Info("prefecture", "name", pref.Name, "lines", len(links))

	failed := 0
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		if s.state.LineDone(pref.Name, link.Label) {
			continue
		}
		s.progress.CurrentLine = link.Label

		if err := s.crawlLine(ctx, pref, link); err != nil {
			if ctx.Err() != nil {
				return failed, err
			}
			switch jptransit.ErrorCode(err) {
			case jptransit.ENETWORK, jptransit.ESCRAPE, jptransit.EINVALID:
				s.c.logger().Warn("line failed", "prefecture", pref.Name, "line", link.Label, "error", err)
				s.progress.Errors++
				failed++
				continue
			default:
				return failed, err
			}
		}

		s.state.MarkLineDone(pref.Name, link.Label)
		s.progress.LinesCompleted++
		s.report()
	}
	return failed, nil
}

func (s *session) crawlLine(ctx context.Context, pref jptransit.Prefecture, line jptransit.Link) error {
	if err := s.c.Throttle.WaitLine(ctx); err != nil {
		return err
	}

	// Line pages are not retried: a failed line is logged, counted, and
	// revisited on the next session.
	html, err := s.c.Fetcher.Fetch(ctx, line.URL)
	if err != nil {
		return err
	}

	links, err := s.c.Extractor.StationLinks(html, s.c.BaseURL)
	if err != nil {
		return err
	}

	for _, link := range links {
		if !s.frontier.Push(link) {
			s.progress.DuplicatesFiltered++
		}
	}

	for {
		link, ok := s.frontier.Pop()
		if !ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.crawlStation(ctx, pref, line, link); err != nil {
			return err
		}
	}
}

func (s *session) crawlStation(ctx context.Context, pref jptransit.Prefecture, line, link jptransit.Link) error {
	// Identity is decided from the listing alone so a known station never
	// costs a detail fetch.
	key := listingKey(pref, link)
	if s.seen.Has(key) {
		s.progress.DuplicatesFiltered++
		return nil
	}

	if err := s.c.Throttle.WaitDetail(ctx); err != nil {
		return err
	}

	detail := &jptransit.StationDetail{}
	html, err := s.c.Fetcher.Fetch(ctx, link.URL)
	if err != nil {
		// The listing already gave us name, line, and prefecture; a failed
		// detail fetch degrades to those fields.
		s.c.logger().Warn("detail fetch failed", "station", link.Label, "error", err)
		s.progress.Errors++
	} else {
		detail = s.c.Extractor.StationDetail(html, link.URL)
	}

	st := s.buildStation(pref, line, link, detail)
	s.seen.Add(key)
	if finalKey := st.IdentityKey(); finalKey != key && !s.seen.Add(finalKey) {
		// The detail page revealed an id the listing lacked and that id is
		// already on record.
		s.progress.DuplicatesFiltered++
		return nil
	}

	s.batch = append(s.batch, st)
	s.progress.StationsFound++
	if len(s.batch) >= s.c.batchSize() {
		return s.checkpoint(ctx)
	}
	return nil
}

func (s *session) buildStation(pref jptransit.Prefecture, line, link jptransit.Link, d *jptransit.StationDetail) *jptransit.Station {
	st := &jptransit.Station{
		Name:         link.Label,
		Prefecture:   pref.Name,
		PrefectureID: pref.Code,
		LineName:     line.Label,
		StationID:    stationIDFromURL(link.URL),
		AllLines:     []string{},
		Aliases:      []string{},
	}
	if st.StationID == "" {
		st.StationID = d.StationID
	}
	if d.PrefectureID != "" {
		st.PrefectureID = d.PrefectureID
	}
	if len(d.AllLines) > 0 {
		st.AllLines = d.AllLines
	}
	if len(d.Aliases) > 0 {
		st.Aliases = d.Aliases
	}

	st.RailwayCompany = CompanyForLine(line.Label)
	if st.RailwayCompany == CompanyOther && d.CompanyName != "" {
		st.RailwayCompany = d.CompanyName
	}

	if s.c.Converter != nil {
		v := s.c.Converter.Variants(st.Name)
		if v == (jptransit.TextVariants{}) && d.Reading != "" {
			// Kanji names cannot be read mechanically; fall back to the
			// kana reading scraped from the detail page.
			v = s.c.Converter.Variants(d.Reading)
		}
		st.NameHiragana = v.Hiragana
		st.NameKatakana = v.Katakana
		st.NameRomaji = v.Romaji
	}
	return st
}

// checkpoint writes the pending batch and saves state. Writes have no batch
// ordering requirement beyond append-only, so a checkpoint that fails after
// the append but before the state save re-appends stations the dedup pass
// removes later.
// advanceCursor moves the resume cursor forward to the first prefecture
// that is not yet complete. A prefecture left incomplete by a failed line
// holds the cursor in place so a resumed session starts there.
func (s *session) advanceCursor() {
	i := s.state.ResumeIndex()
	for i < len(jptransit.Prefectures) && s.state.PrefectureDone(jptransit.Prefectures[i].Name) {
		i++
	}
	s.state.SetResumeIndex(i)
}

func (s *session) checkpoint(ctx context.Context) error {
	if len(s.batch) > 0 {
		if err := s.c.Stations.Append(ctx, s.batch); err != nil {
			return err
		}
		s.batch = nil
	}
	return s.c.States.Save(ctx, s.state)
}

// interrupt persists progress after cancellation and returns ECANCELED.
func (s *session) interrupt(ctx context.Context) (*Result, error) {
	// The flush must survive the canceled context.
	flushCtx := context.WithoutCancel(ctx)
	if err := s.checkpoint(flushCtx); err != nil {
		return s.result(), err
	}
	s.c.logger().Info("crawl interrupted, progress saved",
		"stations", s.progress.StationsFound,
		"prefectures", s.progress.PrefecturesCompleted)
	return s.result(), jptransit.Errorf(jptransit.ECANCELED, "crawl interrupted; progress saved")
}

func (s *session) report() {
	if s.c.Progress != nil {
		s.c.Progress(*s.progress)
	}
}

func (s *session) result() *Result {
	return &Result{
		Stations:    s.progress.StationsFound,
		Duplicates:  s.progress.DuplicatesFiltered,
		Prefectures: s.progress.PrefecturesCompleted,
		Lines:       s.progress.LinesCompleted,
		Errors:      s.progress.Errors,
		Duration:    s.progress.Elapsed(),
	}
}

func (s *session) logRetry(format string, args ...any) {
	s.c.logger().Warn(fmt.Sprintf(format, args...))
}

// dedupStore rewrites the station store with one record per identity key,
// first occurrence wins. No-op when the store is already unique.
func (c *Crawler) dedupStore(ctx context.Context) (int, error) {
	all, err := c.Stations.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	seen := NewIdentitySet()
	unique := make([]*jptransit.Station, 0, len(all))
	for _, st := range all {
		if seen.Add(st.IdentityKey()) {
			unique = append(unique, st)
		}
	}
	if len(unique) == len(all) {
		return 0, nil
	}

	if err := c.Stations.Truncate(ctx); err != nil {
		return 0, err
	}
	if err := c.Stations.Append(ctx, unique); err != nil {
		return 0, err
	}
	return len(all) - len(unique), nil
}

// prefectureURL builds a prefecture listing page URL. Codes stay in their
// fixed two-digit form, e.g. /station/pref/01/.
func (c *Crawler) prefectureURL(pref jptransit.Prefecture) string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/station/pref/" + pref.Code + "/"
}

func (c *Crawler) batchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return DefaultBatchSize
}

func (c *Crawler) retryDelays() []time.Duration {
	if c.RetryDelays != nil {
		return c.RetryDelays
	}
	return DefaultRetryDelays()
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// listingKey computes a station's identity from its listing link alone: the
// URL-embedded id when present, otherwise name and prefecture.
func listingKey(pref jptransit.Prefecture, link jptransit.Link) string {
	if id := stationIDFromURL(link.URL); id != "" {
		return "id:" + id
	}
	return link.Label + "|" + pref.Name
}

// stationIDFromURL extracts the numeric station id from a detail URL path,
// e.g. /station/22828/. Empty when the path has no such segment.
func stationIDFromURL(rawURL string) string {
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
