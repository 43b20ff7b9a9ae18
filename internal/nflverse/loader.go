package nflverse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

// Shape is one known URL layout for a dataset. Per-season shapes are fetched
// once per requested season; combined shapes once and filtered by season.
type Shape struct {
	Name      string
	PerSeason bool
	Resolve   func(ctx context.Context, season int) (string, error)
}

// Loader fetches one dataset through the first shape that works and sticks
// with it for later calls.
type Loader struct {
	Dataset string
	client  *Client
	shapes  []Shape

	mu     sync.Mutex
	chosen int
}

func newLoader(c *Client, dataset string, shapes ...Shape) *Loader {
	return &Loader{Dataset: dataset, client: c, shapes: shapes, chosen: -1}
}

// Shape returns the name of the layout that last succeeded, or "".
func (l *Loader) Shape() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.chosen < 0 {
		return ""
	}
	return l.shapes[l.chosen].Name
}

func (l *Loader) order() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, 0, len(l.shapes))
	if l.chosen >= 0 {
		out = append(out, l.chosen)
	}
	for i := range l.shapes {
		if i != l.chosen {
			out = append(out, i)
		}
	}
	return out
}

// Load returns the dataset restricted to seasons (all rows when empty).
func (l *Loader) Load(ctx context.Context, seasons []int) (*schema.Frame, error) {
	var lastErr error
	for _, i := range l.order() {
		s := l.shapes[i]
		if s.PerSeason && len(seasons) == 0 {
			continue
		}
		f, err := l.try(ctx, s, seasons)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.client.logger.Debug("nflverse shape failed", "dataset", l.Dataset, "shape", s.Name, "err", err)
			lastErr = err
			continue
		}
		l.mu.Lock()
		if l.chosen != i {
			l.client.logger.Info("nflverse shape selected", "dataset", l.Dataset, "shape", s.Name)
		}
		l.chosen = i
		l.mu.Unlock()
		return f, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no applicable layout")
	}
	if errors.Is(lastErr, ErrUpstreamUnavailable) {
		return nil, fmt.Errorf("%s: %w", l.Dataset, lastErr)
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, l.Dataset, lastErr)
}

func (l *Loader) try(ctx context.Context, s Shape, seasons []int) (*schema.Frame, error) {
	if !s.PerSeason {
		url, err := s.Resolve(ctx, 0)
		if err != nil {
			return nil, err
		}
		f, err := l.client.fetchFrame(ctx, url)
		if err != nil {
			return nil, err
		}
		return filterSeasons(f, seasons), nil
	}

	frames := make([]*schema.Frame, 0, len(seasons))
	var firstErr error
	for _, season := range seasons {
		url, err := s.Resolve(ctx, season)
		if err == nil {
			var f *schema.Frame
			if f, err = l.client.fetchFrame(ctx, url); err == nil {
				frames = append(frames, f)
				continue
			}
		}
		// Missing seasons are skipped; any other failure fails the shape.
		l.client.logger.Warn("nflverse season unavailable", "dataset", l.Dataset, "shape", s.Name, "season", season, "err", err)
		if firstErr == nil {
			firstErr = err
		}
		if !errors.Is(err, errNotFound) {
			return nil, err
		}
	}
	if len(frames) == 0 {
		return nil, firstErr
	}
	return schema.Concat(frames...), nil
}

func filterSeasons(f *schema.Frame, seasons []int) *schema.Frame {
	if len(seasons) == 0 || !f.Has("season") {
		return f
	}
	want := make(map[int]struct{}, len(seasons))
	for _, s := range seasons {
		want[s] = struct{}{}
	}
	si := f.Index("season")
	return f.Filter(func(row int) bool {
		_, ok := want[schema.ParseInt(f.Cell(row, si), 0)]
		return ok
	})
}
