// Package referral provides a bloom-filter negative cache for referral
// codes, so registrations carrying bogus codes skip the database lookup.
package referral

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

// CodeSource lists the referral codes currently issued.
type CodeSource interface {
	ListReferralCodes(ctx context.Context) ([]string, error)
}

// Filter is a concurrency-safe bloom filter over issued referral codes.
// MightContain never yields a false negative: a false answer means the code
// definitely does not exist. Positive answers must be confirmed against the
// store.
type Filter struct {
	mu sync.RWMutex
	bf *bloom.BloomFilter
}

// expectedCodes sizes the filter; growing past it only raises the false
// positive rate, it never breaks correctness.
const expectedCodes = 100_000

// NewFilter creates an empty filter with a 1% false positive rate at the
// expected capacity.
func NewFilter() *Filter {
	return &Filter{bf: bloom.NewWithEstimates(expectedCodes, 0.01)}
}

// Load populates the filter from the given source, replacing its contents.
func (f *Filter) Load(ctx context.Context, src CodeSource) error {
	codes, err := src.ListReferralCodes(ctx)
	if err != nil {
		return errors.Wrap(err, "list referral codes")
	}

	bf := bloom.NewWithEstimates(max(expectedCodes, uint(len(codes))), 0.01)
	for _, code := range codes {
		bf.AddString(code)
	}

	f.mu.Lock()
	f.bf = bf
	f.mu.Unlock()
	return nil
}

// Add records a newly issued code.
func (f *Filter) Add(code string) {
	f.mu.Lock()
	f.bf.AddString(code)
	f.mu.Unlock()
}

// MightContain reports whether code may have been issued.
func (f *Filter) MightContain(code string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.TestString(code)
}
