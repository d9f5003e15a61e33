// Package service composes the cache, the fetch orchestrator, the
// aggregation engine and the insight generator into the two read-through
// gates the application exposes.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"garminwrapped/internal/cache"
	"garminwrapped/internal/garmin"
	"garminwrapped/internal/insights"
	"garminwrapped/internal/orchestrator"
	"garminwrapped/internal/wrapped"
)

// Service serves wrapped summaries and generated insights, hitting the
// upstream backend only on cache misses
type Service struct {
	client garmin.Client
	store  cache.Store
	gen    insights.Generator
	budget time.Duration

	// group collapses concurrent requests for the same cache key into one
	// computation; the cache key embeds the namespace, so wrapped and
	// insight flights never collide
	group singleflight.Group
}

// New creates a Service. budget bounds each whole orchestration run.
func New(client garmin.Client, store cache.Store, gen insights.Generator, budget time.Duration) *Service {
	return &Service{
		client: client,
		store:  store,
		gen:    gen,
		budget: budget,
	}
}

// Wrapped returns the user's wrapped summary for the year, fetching and
// aggregating upstream data only when the cache has no entry. Concurrent
// first-time requests for the same user-year share a single orchestration
// run. A failed cache write degrades to a warning: the freshly computed
// summary is still returned.
func (s *Service) Wrapped(ctx context.Context, userID string, year int) (*wrapped.WrappedData, error) {
	key := cache.Key(cache.NamespaceWrapped, userID, year)

	v, err, _ := s.group.Do(key, func() (any, error) {
		if data, err := s.cachedWrapped(ctx, key); err == nil {
			return data, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			slog.Warn("wrapped cache read failed, refetching", "key", key, "error", err)
		}

		raw, err := orchestrator.Fetch(ctx, s.client, year, s.budget)
		if err != nil {
			return nil, err
		}

		data := wrapped.Aggregate(raw, userID)
		s.writeBack(ctx, key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*wrapped.WrappedData), nil
}

// cachedWrapped looks up and decodes a stored summary
func (s *Service) cachedWrapped(ctx context.Context, key string) (*wrapped.WrappedData, error) {
	payload, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var data wrapped.WrappedData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("corrupt cache entry: %w", err)
	}
	return &data, nil
}

// writeBack persists a value best-effort; the current response does not
// depend on the cache accepting it
func (s *Service) writeBack(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		slog.Warn("failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := s.store.Put(ctx, key, payload); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}

// Insights returns the generated insight record for the user-year, invoking
// the text-generation collaborator only when no record is cached. Generation
// failures are returned to the caller and never cached, so the next request
// retries.
func (s *Service) Insights(ctx context.Context, userID string, year int, data *wrapped.WrappedData) (*insights.Record, error) {
	key := cache.Key(cache.NamespaceInsights, userID, year)

	v, err, _ := s.group.Do(key, func() (any, error) {
		if payload, err := s.store.Get(ctx, key); err == nil {
			var rec insights.Record
			if err := json.Unmarshal(payload, &rec); err == nil {
				return &rec, nil
			}
			slog.Warn("corrupt insight cache entry, regenerating", "key", key, "error", err)
		} else if !errors.Is(err, cache.ErrNotFound) {
			slog.Warn("insight cache read failed, regenerating", "key", key, "error", err)
		}

		insightText, forecastText, err := s.gen.Generate(ctx, data)
		if err != nil {
			return nil, err
		}

		rec := &insights.Record{
			User:        userID,
			Year:        year,
			Insights:    insightText,
			Forecast:    forecastText,
			GeneratedAt: time.Now().UTC(),
		}
		s.writeBack(ctx, key, rec)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*insights.Record), nil
}

// Invalidate removes the cached summary and insight record for the
// user-year. The next request re-fetches and regenerates.
func (s *Service) Invalidate(ctx context.Context, userID string, year int) error {
	return errors.Join(
		s.store.Delete(ctx, cache.Key(cache.NamespaceWrapped, userID, year)),
		s.store.Delete(ctx, cache.Key(cache.NamespaceInsights, userID, year)),
	)
}
