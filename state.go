package jptransit

import (
	"context"
	"time"
)

// CrawlState is the persisted resume position of a crawl. It grows
// monotonically within and across sessions; entries are only removed by a
// fresh-start reset.
type CrawlState struct {
	SessionID             string              `json:"session_id,omitempty"`
	CompletedPrefectures  []string            `json:"completed_prefectures"`
	CompletedLines        map[string][]string `json:"completed_lines"`
	CurrentPrefectureIdx  *int                `json:"current_prefecture_index"`
	Progress              *CrawlProgress      `json:"progress,omitempty"`
	Timestamp             string              `json:"timestamp"`
}

// NewCrawlState returns an empty state.
func NewCrawlState() *CrawlState {
	return &CrawlState{
		CompletedPrefectures: []string{},
		CompletedLines:       map[string][]string{},
	}
}

// PrefectureDone reports whether the named prefecture has been fully crawled.
func (s *CrawlState) PrefectureDone(name string) bool {
	for _, p := range s.CompletedPrefectures {
		if p == name {
			return true
		}
	}
	return false
}

// LineDone reports whether a line under the named prefecture has been fully
// crawled.
func (s *CrawlState) LineDone(prefecture, line string) bool {
	for _, l := range s.CompletedLines[prefecture] {
		if l == line {
			return true
		}
	}
	return false
}

// MarkPrefectureDone records a completed prefecture. Idempotent.
func (s *CrawlState) MarkPrefectureDone(name string) {
	if !s.PrefectureDone(name) {
		s.CompletedPrefectures = append(s.CompletedPrefectures, name)
	}
}

// MarkLineDone records a completed line under a prefecture. Idempotent.
func (s *CrawlState) MarkLineDone(prefecture, line string) {
	if s.LineDone(prefecture, line) {
		return
	}
	if s.CompletedLines == nil {
		s.CompletedLines = map[string][]string{}
	}
	s.CompletedLines[prefecture] = append(s.CompletedLines[prefecture], line)
}

// ResumeIndex returns the prefecture index the next session should start
// from: the stored cursor, or 0 when none was recorded.
func (s *CrawlState) ResumeIndex() int {
	if s.CurrentPrefectureIdx == nil || *s.CurrentPrefectureIdx < 0 {
		return 0
	}
	return *s.CurrentPrefectureIdx
}

// SetResumeIndex updates the resume cursor.
func (s *CrawlState) SetResumeIndex(i int) {
	s.CurrentPrefectureIdx = &i
}

// CrawlProgress holds observability counters for one crawl session.
// All counters are monotonically non-decreasing within a session.
type CrawlProgress struct {
	StationsFound        int    `json:"stations_found"`
	DuplicatesFiltered   int    `json:"duplicates_filtered"`
	PrefecturesCompleted int    `json:"prefectures_completed"`
	LinesCompleted       int    `json:"lines_completed"`
	Errors               int    `json:"errors"`
	CurrentPrefecture    string `json:"current_prefecture,omitempty"`
	CurrentLine          string `json:"current_line,omitempty"`

	StartTime time.Time `json:"start_time"`
}

// Elapsed returns the time since the session started.
func (p *CrawlProgress) Elapsed() time.Duration {
	if p.StartTime.IsZero() {
		return 0
	}
	return time.Since(p.StartTime)
}

// StateStore persists CrawlState between sessions.
type StateStore interface {
	// Load reads the persisted state. A missing or unparsable state file is
	// not an error: it yields an empty state.
	Load(ctx context.Context) (*CrawlState, error)

	// Save durably writes the state.
	Save(ctx context.Context, state *CrawlState) error

	// Clear removes the persisted state, if any.
	Clear(ctx context.Context) error
}
