// Package mock provides hand-rolled mocks of the jptransit interfaces for
// testing.
package mock

import (
	"context"

	jptransit "github.com/anhlt/jp-transit-search"
)

var _ jptransit.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of jptransit.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

var _ jptransit.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of jptransit.Extractor.
type Extractor struct {
	LineLinksFn     func(html, prefCode, baseURL string) ([]jptransit.Link, error)
	StationLinksFn  func(html, baseURL string) ([]jptransit.Link, error)
	StationDetailFn func(html, url string) *jptransit.StationDetail
}

func (e *Extractor) LineLinks(html, prefCode, baseURL string) ([]jptransit.Link, error) {
	return e.LineLinksFn(html, prefCode, baseURL)
}

func (e *Extractor) StationLinks(html, baseURL string) ([]jptransit.Link, error) {
	return e.StationLinksFn(html, baseURL)
}

func (e *Extractor) StationDetail(html, url string) *jptransit.StationDetail {
	if e.StationDetailFn == nil {
		return &jptransit.StationDetail{}
	}
	return e.StationDetailFn(html, url)
}

var _ jptransit.Converter = (*Converter)(nil)

// Converter is a mock implementation of jptransit.Converter.
type Converter struct {
	VariantsFn func(name string) jptransit.TextVariants
}

func (c *Converter) Variants(name string) jptransit.TextVariants {
	if c.VariantsFn == nil {
		return jptransit.TextVariants{}
	}
	return c.VariantsFn(name)
}

var _ jptransit.StationStore = (*StationStore)(nil)

// StationStore is a mock implementation of jptransit.StationStore.
type StationStore struct {
	AppendFn   func(ctx context.Context, stations []*jptransit.Station) error
	LoadAllFn  func(ctx context.Context) ([]*jptransit.Station, error)
	TruncateFn func(ctx context.Context) error
}

func (s *StationStore) Append(ctx context.Context, stations []*jptransit.Station) error {
	return s.AppendFn(ctx, stations)
}

func (s *StationStore) LoadAll(ctx context.Context) ([]*jptransit.Station, error) {
	return s.LoadAllFn(ctx)
}

func (s *StationStore) Truncate(ctx context.Context) error {
	return s.TruncateFn(ctx)
}

var _ jptransit.StateStore = (*StateStore)(nil)

// StateStore is a mock implementation of jptransit.StateStore.
type StateStore struct {
	LoadFn  func(ctx context.Context) (*jptransit.CrawlState, error)
	SaveFn  func(ctx context.Context, state *jptransit.CrawlState) error
	ClearFn func(ctx context.Context) error
}

func (s *StateStore) Load(ctx context.Context) (*jptransit.CrawlState, error) {
	return s.LoadFn(ctx)
}

func (s *StateStore) Save(ctx context.Context, state *jptransit.CrawlState) error {
	return s.SaveFn(ctx, state)
}

func (s *StateStore) Clear(ctx context.Context) error {
	return s.ClearFn(ctx)
}
