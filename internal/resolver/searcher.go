package resolver

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultSearchLimit caps search results when the caller passes limit <= 0.
const DefaultSearchLimit = 25

// Searcher runs at most one search at a time in the background. Callers
// that type faster than searches finish get their extra requests dropped.
type Searcher struct {
	r       *Resolver
	running atomic.Bool
	wg      sync.WaitGroup
}

func NewSearcher(r *Resolver) *Searcher { return &Searcher{r: r} }

// Search starts a background search for text and returns true, or returns
// false without doing anything when a search is already in flight. deliver
// is called exactly once per accepted search, from the search goroutine,
// with ctx.Err() when ctx ended before results were ready.
func (s *Searcher) Search(ctx context.Context, text string, limit int, deliver func([]Profile, error)) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		if err := ctx.Err(); err != nil {
			deliver(nil, err)
			return
		}
		res := s.r.Search(text, limit)
		if err := ctx.Err(); err != nil {
			deliver(nil, err)
			return
		}
		deliver(res, nil)
	}()
	return true
}

// Busy reports whether a search is in flight.
func (s *Searcher) Busy() bool { return s.running.Load() }

// Wait blocks until the in-flight search, if any, has delivered.
func (s *Searcher) Wait() { s.wg.Wait() }
