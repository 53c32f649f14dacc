package main_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	jptransit "github.com/anhlt/jp-transit-search"
	main "github.com/anhlt/jp-transit-search/cmd/jptransit"
	"github.com/anhlt/jp-transit-search/config"
	"github.com/anhlt/jp-transit-search/crawl"
	"github.com/anhlt/jp-transit-search/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptySiteCrawler() *crawl.Crawler {
	return &crawl.Crawler{
		Fetcher: &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) { return "<html></html>", nil },
		},
		Extractor: &mock.Extractor{
			LineLinksFn: func(html, prefCode, baseURL string) ([]jptransit.Link, error) { return nil, nil },
		},
		Converter: &mock.Converter{
			VariantsFn: func(name string) jptransit.TextVariants { return jptransit.TextVariants{} },
		},
		Stations: &mock.StationStore{
			AppendFn:   func(ctx context.Context, stations []*jptransit.Station) error { return nil },
			LoadAllFn:  func(ctx context.Context) ([]*jptransit.Station, error) { return nil, nil },
			TruncateFn: func(ctx context.Context) error { return nil },
		},
		States: &mock.StateStore{
			LoadFn:  func(ctx context.Context) (*jptransit.CrawlState, error) { return jptransit.NewCrawlState(), nil },
			SaveFn:  func(ctx context.Context, state *jptransit.CrawlState) error { return nil },
			ClearFn: func(ctx context.Context) error { return nil },
		},
		BaseURL:     "https://example.com",
		RetryDelays: []time.Duration{0},
	}
}

func TestCrawlCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("reports a completed crawl", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Config:  config.NewConfig(),
			Crawler: emptySiteCrawler(),
		}

		require.NoError(t, (&main.CrawlCmd{}).Run(deps))

		output := stdout.String()
		assert.Contains(t, output, "Starting a fresh crawl")
		assert.Contains(t, output, "47 prefectures")
	})

	t.Run("announces resume mode", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Config:  config.NewConfig(),
			Crawler: emptySiteCrawler(),
		}

		require.NoError(t, (&main.CrawlCmd{Resume: true}).Run(deps))

		assert.Contains(t, stdout.String(), "Resuming crawl")
	})

	t.Run("treats interruption as a clean exit", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     ctx,
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Config:  config.NewConfig(),
			Crawler: emptySiteCrawler(),
		}

		require.NoError(t, (&main.CrawlCmd{}).Run(deps))

		assert.Contains(t, stdout.String(), "--resume")
	})

	t.Run("caps lines per prefecture from the flag", func(t *testing.T) {
		t.Parallel()

		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  &bytes.Buffer{},
			Config:  config.NewConfig(),
			Crawler: emptySiteCrawler(),
		}

		require.NoError(t, (&main.CrawlCmd{MaxLines: 3}).Run(deps))

		assert.Equal(t, 3, deps.Crawler.MaxLinesPerPrefecture)
	})
}
