package rewrite

import (
	"context"
	"sync"
	"time"

	"articles/backend/internal/serper"
)

// spacedSearcher keeps consecutive searches at least minInterval apart
// across all requests sharing it.
type spacedSearcher struct {
	inner       Searcher
	minInterval time.Duration

	mu            sync.Mutex
	nextAllowedAt time.Time
}

// NewSpacedSearcher returns inner unchanged when no spacing is configured.
func NewSpacedSearcher(inner Searcher, minInterval time.Duration) Searcher {
	if inner == nil || minInterval <= 0 {
		return inner
	}
	return &spacedSearcher{
		inner:       inner,
		minInterval: minInterval,
	}
}

func (s *spacedSearcher) Search(ctx context.Context, query string) ([]serper.SearchResult, error) {
	if err := s.waitTurn(ctx); err != nil {
		return nil, err
	}
	return s.inner.Search(ctx, query)
}

func (s *spacedSearcher) waitTurn(ctx context.Context) error {
	for {
		s.mu.Lock()
		now := time.Now()
		if s.nextAllowedAt.IsZero() || !s.nextAllowedAt.After(now) {
			s.nextAllowedAt = now.Add(s.minInterval)
			s.mu.Unlock()
			return nil
		}
		wait := time.Until(s.nextAllowedAt)
		s.mu.Unlock()

		if err := waitWithContext(ctx, wait); err != nil {
			return err
		}
	}
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
