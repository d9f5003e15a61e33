package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"garminwrapped/internal/cache"
	"garminwrapped/internal/garmin"
	"garminwrapped/internal/insights"
	"garminwrapped/internal/service"
)

// newGarminServer serves plausible payloads for every data source endpoint
func newGarminServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		switch {
		case strings.Contains(r.URL.Path, "/activities/search"):
			w.Write([]byte(`[
				{
					"activityId": 1,
					"activityType": {"typeKey": "running"},
					"startTimeLocal": "2025-04-12 08:00:00",
					"distance": 5000.0,
					"duration": 1320.0,
					"elevationGain": 30.0,
					"calories": 320.0,
					"averageHR": 155.0
				},
				{
					"activityId": 2,
					"activityType": {"typeKey": "running"},
					"startTimeLocal": "2025-09-03 07:30:00",
					"distance": 5000.0,
					"duration": 1305.0,
					"elevationGain": 25.0,
					"calories": 315.0,
					"averageHR": 158.0
				}
			]`))
		case strings.Contains(r.URL.Path, "/stats/sleep"):
			w.Write([]byte(`[
				{"calendarDate": "2025-04-11", "overallSleepScore": 82, "sleepTimeSeconds": 27000},
				{"calendarDate": "2025-04-12", "overallSleepScore": 88, "sleepTimeSeconds": 30600}
			]`))
		case strings.Contains(r.URL.Path, "/stats/steps"):
			w.Write([]byte(`[
				{"calendarDate": "2025-04-11", "totalSteps": 12000},
				{"calendarDate": "2025-04-12", "totalSteps": 8000}
			]`))
		case strings.Contains(r.URL.Path, "/personalrecord"):
			w.Write([]byte(`[
				{"typeId": 5, "value": 1310.0, "actStartDateTimeInGMTFormatted": "2024-06-15"}
			]`))
		case strings.Contains(r.URL.Path, "/locations"):
			w.Write([]byte(`[
				{"country": "Spain", "place": "Madrid"},
				{"country": "SPAIN", "place": "madrid"}
			]`))
		default:
			// remaining wellness endpoints respond with no data points
			w.Write([]byte(`[]`))
		}
	}))
}

// newGeminiServer serves a fixed generation result
func newGeminiServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"candidates": [
				{"content": {"parts": [{"text": "A remarkable year of consistent running."}]}}
			]
		}`))
	}))
}

func TestIntegration_WrappedAndInsights(t *testing.T) {
	garminServer := newGarminServer(t)
	defer garminServer.Close()
	geminiServer := newGeminiServer(t)
	defer geminiServer.Close()

	client := garmin.NewSessionClient("session-token", garminServer.URL)
	store, err := cache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer store.Close()
	gen := insights.NewGeminiGenerator("test-key", "test-model", geminiServer.URL)

	svc := service.New(client, store, gen, 30*time.Second)
	ctx := context.Background()

	data, err := svc.Wrapped(ctx, "alice", 2025)
	if err != nil {
		t.Fatalf("Wrapped: %v", err)
	}

	if data.Activities == nil {
		t.Fatal("activities section missing")
	}
	if data.Activities.TotalRuns != 2 {
		t.Errorf("TotalRuns = %d, want 2", data.Activities.TotalRuns)
	}
	rec := data.Activities.Records["5k"]
	if rec == nil {
		t.Fatal("expected a 5k record")
	}
	if rec.TimeFormatted != "21:45" {
		t.Errorf("5k record = %q, want 21:45", rec.TimeFormatted)
	}
	if !rec.AllTime {
		t.Error("21:45 beats the 21:50 all-time mark and must be flagged")
	}
	if len(data.Locations) != 1 {
		t.Errorf("Locations = %v, want one deduplicated place", data.Locations)
	}
	if len(data.Manifest) != 0 {
		t.Errorf("Manifest = %v, want empty: every source responded", data.Manifest)
	}
	// sources that responded with zero data points stay out of the manifest
	if data.Stress != nil {
		t.Error("stress section should be nil with no data points")
	}

	record, err := svc.Insights(ctx, "alice", 2025, data)
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if record.Insights == "" || record.Forecast == "" {
		t.Errorf("got insights=%q forecast=%q", record.Insights, record.Forecast)
	}

	// second call is served from the filesystem cache
	garminServer.Close()
	geminiServer.Close()

	again, err := svc.Wrapped(ctx, "alice", 2025)
	if err != nil {
		t.Fatalf("Wrapped from cache: %v", err)
	}
	if again.Activities == nil || again.Activities.TotalRuns != 2 {
		t.Error("cached summary does not match the original")
	}
	if _, err := svc.Insights(ctx, "alice", 2025, again); err != nil {
		t.Fatalf("Insights from cache: %v", err)
	}
}

func TestIntegration_PartialUpstreamOutage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/stats/sleep") {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if strings.Contains(r.URL.Path, "/activities/search") {
			w.Write([]byte(`[
				{
					"activityId": 1,
					"activityType": {"typeKey": "running"},
					"startTimeLocal": "2025-04-12 08:00:00",
					"distance": 10000.0,
					"duration": 3300.0
				}
			]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := garmin.NewSessionClient("session-token", server.URL)
	store, err := cache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer store.Close()

	svc := service.New(client, store, nil, 30*time.Second)

	data, err := svc.Wrapped(context.Background(), "alice", 2025)
	if err != nil {
		t.Fatalf("Wrapped must tolerate one failed source: %v", err)
	}

	if data.Activities == nil || data.Activities.TotalRuns != 1 {
		t.Error("activities section missing despite a healthy endpoint")
	}
	if data.Sleep != nil {
		t.Error("sleep section must be nil after the upstream failure")
	}

	found := false
	for _, s := range data.Manifest {
		if s == "sleep" {
			found = true
		}
	}
	if !found {
		t.Errorf("Manifest = %v, want it to name sleep", data.Manifest)
	}
}

func TestIntegration_AuthFailureAbortsEverything(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := garmin.NewSessionClient("expired-token", server.URL)
	store, err := cache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	defer store.Close()

	svc := service.New(client, store, nil, 30*time.Second)

	_, err = svc.Wrapped(context.Background(), "alice", 2025)
	if !garmin.IsAuthError(err) {
		t.Fatalf("Wrapped returned %v, want auth error", err)
	}

	// nothing may be cached after an aborted run
	ok, err := store.Exists(context.Background(), cache.Key(cache.NamespaceWrapped, "alice", 2025))
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("aborted run left a cache entry behind")
	}
}
