package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"garminwrapped/internal/cache"
	"garminwrapped/internal/garmin"
	"garminwrapped/internal/testutil"
	"garminwrapped/internal/wrapped"
)

func countingClient(fetches *atomic.Int32) *testutil.MockClient {
	return &testutil.MockClient{
		ActivitiesFunc: func(ctx context.Context, year int) ([]garmin.Activity, error) {
			fetches.Add(1)
			return []garmin.Activity{{
				ActivityType:   garmin.ActivityType{TypeKey: "running"},
				StartTimeLocal: "2025-03-01 08:00:00",
				Distance:       5000,
				Duration:       1500,
			}}, nil
		},
	}
}

func TestWrapped_MissPopulatesCache(t *testing.T) {
	var fetches atomic.Int32
	store := cache.NewMemStore()
	svc := New(countingClient(&fetches), store, &testutil.MockGenerator{}, 5*time.Second)

	data, err := svc.Wrapped(context.Background(), "alice", 2025)
	if err != nil {
		t.Fatalf("Wrapped: %v", err)
	}
	if data.User != "alice" || data.Year != 2025 {
		t.Errorf("got user=%q year=%d", data.User, data.Year)
	}
	if data.Activities == nil || data.Activities.TotalRuns != 1 {
		t.Error("expected the fetched activity in the summary")
	}

	key := cache.Key(cache.NamespaceWrapped, "alice", 2025)
	payload, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("cache entry missing after miss: %v", err)
	}
	var cached wrapped.WrappedData
	if err := json.Unmarshal(payload, &cached); err != nil {
		t.Fatalf("cached payload does not decode: %v", err)
	}
	if cached.User != "alice" {
		t.Errorf("cached user = %q, want alice", cached.User)
	}
}

func TestWrapped_HitSkipsUpstream(t *testing.T) {
	var fetches atomic.Int32
	store := cache.NewMemStore()
	svc := New(countingClient(&fetches), store, &testutil.MockGenerator{}, 5*time.Second)

	ctx := context.Background()
	if _, err := svc.Wrapped(ctx, "alice", 2025); err != nil {
		t.Fatalf("first Wrapped: %v", err)
	}
	if _, err := svc.Wrapped(ctx, "alice", 2025); err != nil {
		t.Fatalf("second Wrapped: %v", err)
	}

	if got := fetches.Load(); got != 1 {
		t.Errorf("upstream fetched %d times, want 1", got)
	}
}

func TestWrapped_ConcurrentRequestsShareOneFetch(t *testing.T) {
	var fetches atomic.Int32
	client := &testutil.MockClient{
		ActivitiesFunc: func(ctx context.Context, year int) ([]garmin.Activity, error) {
			fetches.Add(1)
			// hold the flight open so all callers join it
			time.Sleep(50 * time.Millisecond)
			return nil, nil
		},
	}
	store := cache.NewMemStore()
	svc := New(client, store, &testutil.MockGenerator{}, 5*time.Second)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Wrapped(context.Background(), "alice", 2025)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("upstream fetched %d times for %d concurrent callers, want 1", got, callers)
	}
}

func TestWrapped_DistinctYearsDoNotShareFlights(t *testing.T) {
	var fetches atomic.Int32
	store := cache.NewMemStore()
	svc := New(countingClient(&fetches), store, &testutil.MockGenerator{}, 5*time.Second)

	ctx := context.Background()
	if _, err := svc.Wrapped(ctx, "alice", 2024); err != nil {
		t.Fatalf("Wrapped 2024: %v", err)
	}
	if _, err := svc.Wrapped(ctx, "alice", 2025); err != nil {
		t.Fatalf("Wrapped 2025: %v", err)
	}

	if got := fetches.Load(); got != 2 {
		t.Errorf("upstream fetched %d times for two distinct years, want 2", got)
	}
}

func TestWrapped_AuthErrorNotCached(t *testing.T) {
	client := &testutil.MockClient{
		ActivitiesFunc: func(ctx context.Context, year int) ([]garmin.Activity, error) {
			return nil, garmin.NewAuthError(401)
		},
	}
	store := cache.NewMemStore()
	svc := New(client, store, &testutil.MockGenerator{}, 5*time.Second)

	_, err := svc.Wrapped(context.Background(), "alice", 2025)
	if !garmin.IsAuthError(err) {
		t.Fatalf("Wrapped returned %v, want auth error", err)
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d entries after a failed run, want 0", store.Len())
	}
}

func TestWrapped_CacheWriteFailureStillReturnsResult(t *testing.T) {
	var fetches atomic.Int32
	store := &testutil.FlakyStore{
		Store:  cache.NewMemStore(),
		PutErr: errors.New("disk full"),
	}
	svc := New(countingClient(&fetches), store, &testutil.MockGenerator{}, 5*time.Second)

	data, err := svc.Wrapped(context.Background(), "alice", 2025)
	if err != nil {
		t.Fatalf("Wrapped must tolerate a failed cache write, got %v", err)
	}
	if data == nil || data.Activities == nil {
		t.Error("expected the computed summary despite the write failure")
	}
}

func TestWrapped_CacheReadFailureFallsBackToFetch(t *testing.T) {
	var fetches atomic.Int32
	store := &testutil.FlakyStore{
		Store:  cache.NewMemStore(),
		GetErr: errors.New("backend unreachable"),
	}
	svc := New(countingClient(&fetches), store, &testutil.MockGenerator{}, 5*time.Second)

	if _, err := svc.Wrapped(context.Background(), "alice", 2025); err != nil {
		t.Fatalf("Wrapped: %v", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("upstream fetched %d times, want 1", got)
	}
}

func TestWrapped_CorruptCacheEntryRefetches(t *testing.T) {
	var fetches atomic.Int32
	store := cache.NewMemStore()
	key := cache.Key(cache.NamespaceWrapped, "alice", 2025)
	if err := store.Put(context.Background(), key, []byte("{not json")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	svc := New(countingClient(&fetches), store, &testutil.MockGenerator{}, 5*time.Second)
	data, err := svc.Wrapped(context.Background(), "alice", 2025)
	if err != nil {
		t.Fatalf("Wrapped: %v", err)
	}
	if data.Activities == nil {
		t.Error("expected a freshly computed summary")
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("upstream fetched %d times, want 1", got)
	}
}

func TestInsights_MissGeneratesAndCaches(t *testing.T) {
	var generations atomic.Int32
	gen := &testutil.MockGenerator{
		GenerateFunc: func(ctx context.Context, data *wrapped.WrappedData) (string, string, error) {
			generations.Add(1)
			return "a strong year", "keep it up", nil
		},
	}
	store := cache.NewMemStore()
	svc := New(&testutil.MockClient{}, store, gen, 5*time.Second)

	data := &wrapped.WrappedData{User: "alice", Year: 2025}
	rec, err := svc.Insights(context.Background(), "alice", 2025, data)
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if rec.Insights != "a strong year" || rec.Forecast != "keep it up" {
		t.Errorf("got insights=%q forecast=%q", rec.Insights, rec.Forecast)
	}
	if rec.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}

	// second call served from cache
	if _, err := svc.Insights(context.Background(), "alice", 2025, data); err != nil {
		t.Fatalf("second Insights: %v", err)
	}
	if got := generations.Load(); got != 1 {
		t.Errorf("generator invoked %d times, want 1", got)
	}
}

func TestInsights_GenerationFailureNotCached(t *testing.T) {
	genErr := errors.New("model overloaded")
	var generations atomic.Int32
	gen := &testutil.MockGenerator{
		GenerateFunc: func(ctx context.Context, data *wrapped.WrappedData) (string, string, error) {
			if generations.Add(1) == 1 {
				return "", "", genErr
			}
			return "second try insights", "second try forecast", nil
		},
	}
	store := cache.NewMemStore()
	svc := New(&testutil.MockClient{}, store, gen, 5*time.Second)

	data := &wrapped.WrappedData{User: "alice", Year: 2025}
	if _, err := svc.Insights(context.Background(), "alice", 2025, data); !errors.Is(err, genErr) {
		t.Fatalf("Insights returned %v, want %v", err, genErr)
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d entries after a failed generation, want 0", store.Len())
	}

	// failure was not cached, so the retry reaches the generator
	rec, err := svc.Insights(context.Background(), "alice", 2025, data)
	if err != nil {
		t.Fatalf("retry Insights: %v", err)
	}
	if rec.Insights != "second try insights" {
		t.Errorf("retry returned %q", rec.Insights)
	}
}

func TestInvalidate(t *testing.T) {
	var fetches atomic.Int32
	store := cache.NewMemStore()
	svc := New(countingClient(&fetches), store, &testutil.MockGenerator{}, 5*time.Second)

	ctx := context.Background()
	data, err := svc.Wrapped(ctx, "alice", 2025)
	if err != nil {
		t.Fatalf("Wrapped: %v", err)
	}
	if _, err := svc.Insights(ctx, "alice", 2025, data); err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("store holds %d entries, want 2", store.Len())
	}

	if err := svc.Invalidate(ctx, "alice", 2025); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d entries after Invalidate, want 0", store.Len())
	}

	// next request goes upstream again
	if _, err := svc.Wrapped(ctx, "alice", 2025); err != nil {
		t.Fatalf("Wrapped after Invalidate: %v", err)
	}
	if got := fetches.Load(); got != 2 {
		t.Errorf("upstream fetched %d times, want 2", got)
	}
}
