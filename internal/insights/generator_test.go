package insights

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"garminwrapped/internal/wrapped"
)

func sampleData() *wrapped.WrappedData {
	return &wrapped.WrappedData{
		User: "alice",
		Year: 2025,
		Activities: &wrapped.ActivitySummary{
			TotalRuns:       120,
			TotalDistanceKm: 1050.5,
			TotalTimeHours:  98.2,
			Averages:        wrapped.Averages{PaceFormatted: "5:30"},
		},
	}
}

func TestGeminiGenerator_Generate_Success(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)

		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q, want test-key", got)
		}

		text := "**1050km** across 120 runs. A strong year."
		if n == 2 {
			text = "Next year: aim for 1200km."
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"candidates": [
				{"content": {"parts": [{"text": "` + text + `"}]}}
			]
		}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	gen := NewGeminiGenerator("test-key", "test-model", server.URL)
	insightText, forecastText, err := gen.Generate(context.Background(), sampleData())
	if err != nil {
		t.Fatalf("Generate() returned unexpected error: %v", err)
	}

	if !strings.Contains(insightText, "1050km") {
		t.Errorf("insights = %q", insightText)
	}
	if !strings.Contains(forecastText, "1200km") {
		t.Errorf("forecast = %q", forecastText)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("generateContent called %d times, want 2 (insights then forecast)", got)
	}
}

func TestGeminiGenerator_Generate_APIError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	gen := NewGeminiGenerator("test-key", "test-model", server.URL)
	_, _, err := gen.Generate(context.Background(), sampleData())
	if err == nil {
		t.Fatal("Generate() expected an error for 429")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error %v does not carry the status code", err)
	}
}

func TestGeminiGenerator_Generate_EmptyCandidates(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"candidates": []}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	gen := NewGeminiGenerator("test-key", "test-model", server.URL)
	_, _, err := gen.Generate(context.Background(), sampleData())
	if err == nil {
		t.Fatal("Generate() expected an error for an empty candidate list")
	}
}

func TestBuildInsightsPrompt_NilSections(t *testing.T) {
	data := &wrapped.WrappedData{
		User:     "alice",
		Year:     2025,
		Manifest: []string{"sleep", "stress"},
	}

	// a summary with every section absent must still produce a usable prompt
	prompt := buildInsightsPrompt(data)
	if prompt == "" {
		t.Fatal("buildInsightsPrompt returned an empty prompt")
	}
	if !strings.Contains(prompt, "2025") {
		t.Errorf("prompt does not mention the year: %q", prompt)
	}
}

func TestBuildInsightsPrompt_IncludesActivityStats(t *testing.T) {
	prompt := buildInsightsPrompt(sampleData())

	for _, want := range []string{"120 runs", "5:30"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildForecastPrompt_CarriesInsights(t *testing.T) {
	prompt := buildForecastPrompt(sampleData(), "the year's analysis text")

	if !strings.Contains(prompt, "the year's analysis text") {
		t.Error("forecast prompt does not include the insight text")
	}
	if !strings.Contains(prompt, "2026") {
		t.Errorf("forecast prompt does not mention the following year:\n%s", prompt)
	}
}
