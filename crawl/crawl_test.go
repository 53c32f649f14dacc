package crawl_test

import (
	"context"
	"sync"
	"testing"
	"time"

	jptransit "github.com/anhlt/jp-transit-search"
	"github.com/anhlt/jp-transit-search/crawl"
	"github.com/anhlt/jp-transit-search/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://transit.example.jp"

// fakeSite describes a crawlable site for the mocks: prefecture pages list
// line URLs, line pages list station URLs, and station pages carry details.
// The mock fetcher echoes the URL as the page HTML so extraction can key on
// it.
type fakeSite struct {
	lines    map[string][]jptransit.Link // prefecture page URL → line links
	stations map[string][]jptransit.Link // line page URL → station links
	details  map[string]*jptransit.StationDetail
	failing  map[string]int // URL → remaining failures

	mu      sync.Mutex
	fetched []string
}

func (f *fakeSite) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			f.mu.Lock()
			f.fetched = append(f.fetched, url)
			if n := f.failing[url]; n != 0 {
				if n > 0 {
					f.failing[url] = n - 1
				}
				f.mu.Unlock()
				return "", jptransit.Errorf(jptransit.ENETWORK, "fetch %s: connection refused", url)
			}
			f.mu.Unlock()
			return url, nil
		},
	}
}

func (f *fakeSite) extractor() *mock.Extractor {
	return &mock.Extractor{
		LineLinksFn: func(html, _, _ string) ([]jptransit.Link, error) {
			return f.lines[html], nil
		},
		StationLinksFn: func(html, _ string) ([]jptransit.Link, error) {
			return f.stations[html], nil
		},
		StationDetailFn: func(html, _ string) *jptransit.StationDetail {
			if d, ok := f.details[html]; ok {
				return d
			}
			return &jptransit.StationDetail{}
		},
	}
}

func (f *fakeSite) fetchCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.fetched {
		if u == url {
			n++
		}
	}
	return n
}

// memStation is an in-memory StationStore for tests.
type memStation struct {
	mu        sync.Mutex
	stations  []*jptransit.Station
	appends   int
	truncates int
}

func (m *memStation) store() *mock.StationStore {
	return &mock.StationStore{
		AppendFn: func(_ context.Context, stations []*jptransit.Station) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.stations = append(m.stations, stations...)
			m.appends++
			return nil
		},
		LoadAllFn: func(_ context.Context) ([]*jptransit.Station, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			out := make([]*jptransit.Station, len(m.stations))
			copy(out, m.stations)
			return out, nil
		},
		TruncateFn: func(_ context.Context) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.stations = nil
			m.truncates++
			return nil
		},
	}
}

func (m *memStation) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.stations))
	for i, s := range m.stations {
		out[i] = s.Name
	}
	return out
}

// memState is an in-memory StateStore for tests.
type memState struct {
	mu            sync.Mutex
	state         *jptransit.CrawlState
	lastSessionID string
	saves         int
	clears        int
}

func (m *memState) store() *mock.StateStore {
	return &mock.StateStore{
		LoadFn: func(_ context.Context) (*jptransit.CrawlState, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.state == nil {
				return jptransit.NewCrawlState(), nil
			}
			return m.state, nil
		},
		SaveFn: func(_ context.Context, state *jptransit.CrawlState) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.state = state
			m.lastSessionID = state.SessionID
			m.saves++
			return nil
		},
		ClearFn: func(_ context.Context) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.state = nil
			m.clears++
			return nil
		},
	}
}

// hokkaidoSite builds a single-prefecture site: 北海道 has two lines sharing
// one station, every other prefecture page is empty.
func hokkaidoSite() *fakeSite {
	pref := testBaseURL + "/station/pref/01/"
	lineA := testBaseURL + "/station/1/jrhokkaido/hakodate/"
	lineB := testBaseURL + "/station/1/jrhokkaido/chitose/"
	return &fakeSite{
		lines: map[string][]jptransit.Link{
			pref: {
				{URL: lineA, Label: "JR函館本線"},
				{URL: lineB, Label: "JR千歳線"},
			},
		},
		stations: map[string][]jptransit.Link{
			lineA: {
				{URL: testBaseURL + "/station/101/?pref=1&company=jrhokkaido", Label: "札幌"},
				{URL: testBaseURL + "/station/102/?pref=1&company=jrhokkaido", Label: "白石"},
			},
			lineB: {
				{URL: testBaseURL + "/station/102/?pref=1&company=jrhokkaido", Label: "白石"},
				{URL: testBaseURL + "/station/103/?pref=1&company=jrhokkaido", Label: "新千歳空港"},
			},
		},
		details: map[string]*jptransit.StationDetail{
			testBaseURL + "/station/101/?pref=1&company=jrhokkaido": {
				Reading:  "さっぽろ",
				AllLines: []string{"JR函館本線", "JR千歳線"},
			},
		},
		failing: map[string]int{},
	}
}

func newCrawler(site *fakeSite, stations *memStation, states *memState) *crawl.Crawler {
	return &crawl.Crawler{
		Fetcher:     site.fetcher(),
		Extractor:   site.extractor(),
		Stations:    stations.store(),
		States:      states.store(),
		BaseURL:     testBaseURL,
		RetryDelays: []time.Duration{0}, // no delay for tests
	}
}

func TestCrawler_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("walks all prefectures and stores each station once", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)

		result, err := c.Crawl(context.Background(), false)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Stations)
		assert.Equal(t, 1, result.Duplicates)
		assert.Equal(t, 47, result.Prefectures)
		assert.Equal(t, 2, result.Lines)
		assert.Equal(t, 0, result.Errors)
		assert.ElementsMatch(t, []string{"札幌", "白石", "新千歳空港"}, stations.names())
	})

	t.Run("fills station fields from listing and detail page", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)
		c.Converter = &mock.Converter{
			VariantsFn: func(name string) jptransit.TextVariants {
				if name == "さっぽろ" {
					return jptransit.TextVariants{Hiragana: "さっぽろ", Katakana: "サッポロ", Romaji: "sapporo"}
				}
				return jptransit.TextVariants{} // kanji is unreadable
			},
		}

		_, err := c.Crawl(context.Background(), false)
		require.NoError(t, err)

		var sapporo *jptransit.Station
		for _, s := range stations.stations {
			if s.Name == "札幌" {
				sapporo = s
			}
		}
		require.NotNil(t, sapporo)
		assert.Equal(t, "101", sapporo.StationID)
		assert.Equal(t, "北海道", sapporo.Prefecture)
		assert.Equal(t, "01", sapporo.PrefectureID)
		assert.Equal(t, "JR函館本線", sapporo.LineName)
		assert.Equal(t, "JR東日本", sapporo.RailwayCompany)
		assert.Equal(t, []string{"JR函館本線", "JR千歳線"}, sapporo.AllLines)
		assert.Equal(t, "さっぽろ", sapporo.NameHiragana)
		assert.Equal(t, "sapporo", sapporo.NameRomaji)
	})

	t.Run("fresh start resets store and state", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		stations := &memStation{stations: []*jptransit.Station{{Name: "stale"}}}
		states := &memState{state: jptransit.NewCrawlState()}
		c := newCrawler(site, stations, states)

		_, err := c.Crawl(context.Background(), false)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, stations.truncates, 1)
		assert.GreaterOrEqual(t, states.clears, 1)
		assert.NotContains(t, stations.names(), "stale")
	})

	t.Run("resume skips completed lines and already stored stations", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		prev := jptransit.NewCrawlState()
		prev.SessionID = "prev-session"
		prev.MarkLineDone("北海道", "JR函館本線")
		stations := &memStation{stations: []*jptransit.Station{
			{Name: "札幌", StationID: "101", Prefecture: "北海道"},
			{Name: "白石", StationID: "102", Prefecture: "北海道"},
		}}
		states := &memState{state: prev}
		c := newCrawler(site, stations, states)

		result, err := c.Crawl(context.Background(), true)

		require.NoError(t, err)
		assert.Zero(t, site.fetchCount(testBaseURL+"/station/1/jrhokkaido/hakodate/"))
		// Only 新千歳空港 is new; 白石 is on disk from the previous session.
		assert.Equal(t, 1, result.Stations)
		assert.ElementsMatch(t, []string{"札幌", "白石", "新千歳空港"}, stations.names())
		assert.Equal(t, "prev-session", states.savedSessionID())
	})

	t.Run("resume starts from the stored cursor", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		prev := jptransit.NewCrawlState()
		prev.SetResumeIndex(1) // past 北海道
		stations := &memStation{}
		states := &memState{state: prev}
		c := newCrawler(site, stations, states)

		result, err := c.Crawl(context.Background(), true)

		require.NoError(t, err)
		assert.Zero(t, site.fetchCount(testBaseURL+"/station/pref/01/"))
		assert.Equal(t, 0, result.Stations)
		assert.Equal(t, 46, result.Prefectures)
	})

	t.Run("checkpoints once per batch", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)
		c.BatchSize = 2

		result, err := c.Crawl(context.Background(), false)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Stations)
		// 3 unique stations with batch size 2: one full batch plus the
		// final flush.
		assert.Equal(t, 2, stations.appends)
		assert.GreaterOrEqual(t, states.saves, 2)
	})

	t.Run("cancellation saves state and returns ECANCELED", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)

		ctx, cancel := context.WithCancel(context.Background())
		c.Progress = func(p jptransit.CrawlProgress) {
			if p.LinesCompleted == 1 {
				cancel()
			}
		}

		result, err := c.Crawl(ctx, false)

		require.Error(t, err)
		assert.Equal(t, jptransit.ECANCELED, jptransit.ErrorCode(err))
		assert.Equal(t, 2, result.Stations)
		require.NotNil(t, states.state)
		assert.True(t, states.state.LineDone("北海道", "JR函館本線"))
		assert.False(t, states.state.PrefectureDone("北海道"))
		assert.ElementsMatch(t, []string{"札幌", "白石"}, stations.names())
	})

	t.Run("skips a prefecture that fails after retries", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		site.failing[testBaseURL+"/station/pref/01/"] = -1 // always fails
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)

		result, err := c.Crawl(context.Background(), false)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Errors)
		assert.Equal(t, 46, result.Prefectures)
		require.NotNil(t, states.state)
		assert.False(t, states.state.PrefectureDone("北海道"))
	})

	t.Run("retries a prefecture page before giving up", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		site.failing[testBaseURL+"/station/pref/01/"] = 1 // first attempt fails
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)

		result, err := c.Crawl(context.Background(), false)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Stations)
		assert.Equal(t, 2, site.fetchCount(testBaseURL+"/station/pref/01/"))
	})

	t.Run("counts a failed line and continues", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		site.failing[testBaseURL+"/station/1/jrhokkaido/hakodate/"] = -1
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)

		result, err := c.Crawl(context.Background(), false)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Errors)
		assert.Equal(t, 1, result.Lines)
		assert.ElementsMatch(t, []string{"白石", "新千歳空港"}, stations.names())
		require.NotNil(t, states.state)
		assert.False(t, states.state.LineDone("北海道", "JR函館本線"))
	})

	t.Run("resume revisits a prefecture whose line failed", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		lineA := testBaseURL + "/station/1/jrhokkaido/hakodate/"
		lineB := testBaseURL + "/station/1/jrhokkaido/chitose/"
		site.failing[lineA] = -1
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)

		_, err := c.Crawl(context.Background(), false)
		require.NoError(t, err)
		require.NotNil(t, states.state)
		assert.False(t, states.state.PrefectureDone("北海道"))
		assert.True(t, states.state.LineDone("北海道", "JR千歳線"))
		assert.Equal(t, 0, states.state.ResumeIndex())

		// The line is healthy again on the next session.
		delete(site.failing, lineA)

		result, err := c.Crawl(context.Background(), true)

		require.NoError(t, err)
		assert.Equal(t, 2, site.fetchCount(lineA))
		assert.Equal(t, 1, site.fetchCount(lineB))
		assert.Equal(t, 1, result.Stations) // 札幌; 白石 is already on disk
		assert.ElementsMatch(t, []string{"白石", "新千歳空港", "札幌"}, stations.names())
		assert.Nil(t, states.state)
	})

	t.Run("keeps a station whose detail fetch fails", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		site.failing[testBaseURL+"/station/101/?pref=1&company=jrhokkaido"] = -1
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)

		result, err := c.Crawl(context.Background(), false)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Stations)
		assert.Equal(t, 1, result.Errors)
		assert.Contains(t, stations.names(), "札幌")
	})

	t.Run("errors when nothing was found and failures occurred", func(t *testing.T) {
		t.Parallel()

		site := &fakeSite{failing: map[string]int{}}
		for _, p := range jptransit.Prefectures {
			site.failing[testBaseURL+"/station/pref/"+p.Code+"/"] = -1
		}
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)

		result, err := c.Crawl(context.Background(), false)

		require.Error(t, err)
		assert.Equal(t, jptransit.EINTERNAL, jptransit.ErrorCode(err))
		assert.Equal(t, 0, result.Stations)
		assert.Equal(t, 47, result.Errors)
	})

	t.Run("clears state after a completed crawl", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)

		_, err := c.Crawl(context.Background(), false)

		require.NoError(t, err)
		assert.Nil(t, states.state)
	})

	t.Run("caps lines per prefecture", func(t *testing.T) {
		t.Parallel()

		site := hokkaidoSite()
		stations := &memStation{}
		states := &memState{}
		c := newCrawler(site, stations, states)
		c.MaxLinesPerPrefecture = 1

		result, err := c.Crawl(context.Background(), false)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Lines)
		assert.ElementsMatch(t, []string{"札幌", "白石"}, stations.names())
	})
}

// savedSessionID reads the session id from the last state save. A completed
// crawl clears the state afterwards, so the live state may already be gone.
func (m *memState) savedSessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSessionID
}
