// Package bloom provides probabilistic link deduplication for crawl
// traversal.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter for link deduplication. False positives are
// possible; false negatives are not, so a link is never crawled twice.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected links
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records a link in the filter.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// Test returns true if the link might have been recorded.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(url)
}

// EstimatedCount returns the approximate number of recorded links.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
